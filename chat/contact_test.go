package chat

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	valid := []string{
		"5512345678",
		"55 1234 5678",
		"(55) 1234-5678",
		"+52 5512345678",
		"+525512345678",
		"+52 (33) 1234.5678",
		"  8112345678  ",
	}
	for _, phone := range valid {
		assert.True(t, ValidPhone(phone), phone)
	}

	invalid := []string{
		"",
		"12345",
		"551234567",       // 9 digits
		"+1 5512345678",   // foreign prefix
		"abc1234567",      // letters
		"1111111111",      // all the same
		"+52 2222222222",  // all the same after country code
		"1212121212",      // repeated pair
		"0123456789",      // ascending run
		"9876543210",      // descending run
		"55-1234-5678-99", // too many groups
	}
	for _, phone := range invalid {
		assert.False(t, ValidPhone(phone), phone)
	}
}

func TestValidateContact(t *testing.T) {
	valid := Contact{Name: " Ana ", Phone: "55 1234 5678", Option: "ventas"}
	require.NoError(t, ValidateContact(valid))

	tests := []struct {
		name    string
		contact Contact
		field   string
		message string
	}{
		{
			name:    "missing name",
			contact: Contact{Name: "  ", Phone: "5512345678", Option: "ventas"},
			field:   "name",
			message: "chat: contact name is required",
		},
		{
			name:    "bad phone",
			contact: Contact{Name: "Ana", Phone: "1111111111", Option: "ventas"},
			field:   "phone",
			message: "chat: contact phone is not a valid number",
		},
		{
			name:    "missing option",
			contact: Contact{Name: "Ana", Phone: "5512345678"},
			field:   "option",
			message: "chat: contact option is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContact(tt.contact)
			require.Error(t, err)
			var contactErr *ContactError
			require.True(t, errors.As(err, &contactErr))
			assert.Equal(t, tt.field, contactErr.Field)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestRegisterPhoneValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterPhoneValidation(v))

	type form struct {
		Phone string `validate:"mx_phone"`
	}
	assert.NoError(t, v.Struct(form{Phone: "+52 55 1234 5678"}))
	assert.Error(t, v.Struct(form{Phone: "0000000000"}))
}
