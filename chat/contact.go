package chat

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PhoneTag is the validator tag for Mexican phone numbers.
const PhoneTag = "mx_phone"

// Contact is the form posted to /welcome_user before a chat starts.
type Contact struct {
	Name   string `json:"name" validate:"required,max=120"`
	Phone  string `json:"phone" validate:"required,mx_phone"`
	Option string `json:"option" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:   strings.TrimSpace(c.Name),
		Phone:  strings.TrimSpace(c.Phone),
		Option: strings.TrimSpace(c.Option),
	}
}

var (
	phoneFormat = regexp.MustCompile(`^(\+52\s?)?(\(?\d{2,3}\)?[-.\s]?)?\d{4}[-.\s]?\d{4}$`)
	nonDigits   = regexp.MustCompile(`[^0-9]`)

	contactValidator = newContactValidator()
)

func newContactValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterPhoneValidation(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterPhoneValidation adds the mx_phone rule to v.
func RegisterPhoneValidation(v *validator.Validate) error {
	return v.RegisterValidation(PhoneTag, func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
}

// ValidPhone accepts 10 local digits, optionally preceded by +52, with spaces,
// dots, dashes or a parenthesized area code as separators. Numbers made of a
// single repeated digit, a repeated pair, or a straight run are rejected.
func ValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" || !phoneFormat.MatchString(phone) {
		return false
	}

	digits := nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "52"):
	case len(digits) == 10:
	default:
		return false
	}

	local := digits[len(digits)-10:]
	if strings.Count(local, local[:1]) == len(local) {
		return false
	}
	if local == strings.Repeat(local[:2], 5) {
		return false
	}
	return local != "0123456789" && local != "9876543210"
}

// ValidateContact checks c after normalization and returns the first
// offending field as a *ContactError.
func ValidateContact(c Contact) error {
	err := contactValidator.Struct(c.Normalize())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ContactError{Field: strings.ToLower(fieldErrs[0].Field()), Tag: fieldErrs[0].Tag()}
	}
	return err
}

// ContactError names the contact field that failed validation.
type ContactError struct {
	Field string
	Tag   string
}

func (e *ContactError) Error() string {
	switch {
	case e.Tag == "required":
		return "chat: contact " + e.Field + " is required"
	case e.Tag == PhoneTag:
		return "chat: contact phone is not a valid number"
	default:
		return "chat: contact " + e.Field + " is invalid"
	}
}
