package server

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gaborage/chatwire/chat"
)

// Validator wraps go-playground/validator with the chat rules registered.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the mx_phone rule registered.
func NewValidator() *Validator {
	v := validator.New()
	if err := chat.RegisterPhoneValidation(v); err != nil {
		panic(fmt.Sprintf("server: failed to register %s validation: %v", chat.PhoneTag, err))
	}
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ValidationError carries one entry per failed field.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError converts validator errors into field messages.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fieldErrors := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   err.Field(),
			Message: getErrorMessage(err),
		})
	}
	return &ValidationError{Errors: fieldErrors}
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
	}
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case chat.PhoneTag:
		return fmt.Sprintf("%s must be a valid Mexican phone number", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation", fe.Field())
	}
}
