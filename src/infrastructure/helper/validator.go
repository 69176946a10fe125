package helper

import (
	"fmt"

	logger "go-campaign-api/src/infrastructure/logger"

	"github.com/go-playground/validator/v10"
)

// Validator translates validator tags into human-readable messages
type Validator interface {
	GetErrorMsg(fe validator.FieldError) string
}

type validatorHelper struct {
	Logger *logger.Logger
}

// NewValidator creates a validator helper
func NewValidator(loggerInstance *logger.Logger) Validator {
	return &validatorHelper{Logger: loggerInstance}
}

func (v *validatorHelper) GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Should be at least %s in length or value", fe.Param())
	case "max":
		return fmt.Sprintf("Should be at most %s in length or value", fe.Param())
	case "gt":
		return fmt.Sprintf("Should be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Should be one of: %s", fe.Param())
	case "email":
		return "Invalid email format"
	}
	return "Invalid value"
}
