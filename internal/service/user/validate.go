package user

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"uk.co.dudmesh.gatehouse/internal/i18n"
	"uk.co.dudmesh.gatehouse/internal/model"
)

// validateRegistration checks every field and returns the failures
// together, keyed by field name with message-key values.
func validateRegistration(params *model.RegisterUserParams) map[string]string {
	err := validation.ValidateStruct(params,
		validation.Field(&params.Username,
			validation.Required.Error(i18n.UsernameNull),
			validation.Length(4, 32).Error(i18n.UsernameSize)),
		validation.Field(&params.Email,
			validation.Required.Error(i18n.EmailNull),
			is.Email.Error(i18n.EmailInvalid)),
		validation.Field(&params.Password,
			validation.Required.Error(i18n.PasswordNull),
			validation.Length(6, 0).Error(i18n.PasswordSize),
			validation.By(passwordPattern)),
	)

	fieldErrors := map[string]string{}
	var fields validation.Errors
	if errors.As(err, &fields) {
		for field, fieldErr := range fields {
			fieldErrors[field] = fieldErr.Error()
		}
	}
	return fieldErrors
}

func passwordPattern(value interface{}) error {
	password, _ := value.(string)

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !lower || !upper || !digit {
		return errors.New(i18n.PasswordPattern)
	}
	return nil
}
