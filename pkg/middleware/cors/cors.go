package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Options builds rs/cors options for the given origins. An empty list allows any origin
// without credentials.
func Options(allowedOrigins []string) cors.Options {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins = append(origins, strings.TrimRight(origin, "/"))
	}

	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Range", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length", "X-Request-ID"},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
		return opts
	}
	opts.AllowedOrigins = origins
	opts.AllowCredentials = true
	return opts
}

// New adapts an rs/cors handler to gin. Preflight requests are answered here and never
// reach the routes.
func New(allowedOrigins []string) gin.HandlerFunc {
	handler := cors.New(Options(allowedOrigins))

	return func(c *gin.Context) {
		handler.HandlerFunc(c.Writer, c.Request)

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
