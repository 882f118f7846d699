package service

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/pdf-page-api/pkg/storage"
)

// TagPDFFilename rejects names that are not a single path segment.
const TagPDFFilename = "pdf_filename"

// NewValidator returns a validator with the service's custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerRules(v)
	return v
}

func registerRules(v *validator.Validate) {
	_ = v.RegisterValidation(TagPDFFilename, func(fl validator.FieldLevel) bool {
		return storage.IsSafeName(fl.Field().String())
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerRules(v)
	return v
}

// failedTag reports whether err contains a failure for tag.
func failedTag(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
