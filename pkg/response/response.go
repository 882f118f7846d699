package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
)

// Envelope wraps successful JSON payloads.
type Envelope struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// ErrorBody is the failure contract: a single human-readable message.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody carries informational responses such as the root status.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Message responds with {"message": ...}.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, MessageBody{Message: message})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Err != nil || appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Error: appErr.Message})
}

// AbortWithError writes the error and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// PDF writes an inline PDF payload held in memory.
func PDF(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", InlineDisposition(filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// InlineDisposition formats an inline Content-Disposition header value.
func InlineDisposition(filename string) string {
	return `inline; filename="` + dispositionEscaper.Replace(filename) + `"`
}

// AttachmentDisposition formats a download Content-Disposition header value.
func AttachmentDisposition(filename string) string {
	return `attachment; filename="` + dispositionEscaper.Replace(filename) + `"`
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")
