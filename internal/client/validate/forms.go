package validate

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Form field names shared by the forms and their error maps.
const (
	FieldName            = "name"
	FieldSurname         = "surname"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// User-facing messages.
const (
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Please enter a valid email address"
	MsgPasswordRequired = "Password is required"
	MsgPasswordWeak     = "Password must be 8-128 characters with uppercase, lowercase, number, and special character"
	MsgNameRequired     = "First name is required"
	MsgNameInvalid      = "Name must contain only letters, spaces, hyphens, and apostrophes (1-50 chars)"
	MsgSurnameRequired  = "Last name is required"
	MsgSurnameInvalid   = "Surname must contain only letters, spaces, hyphens, and apostrophes (1-50 chars)"
	MsgPhoneRequired    = "Phone number is required"
	MsgPhoneInvalid     = "Please enter a valid phone number (10-15 digits)"
	MsgConfirmRequired  = "Please confirm your password"
	MsgPasswordMismatch = "Passwords do not match"
)

// Errors maps a field name to its first failing message.
type Errors map[string]string

// OK reports whether no field failed.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Login checks the sign-in form. Only presence is enforced on the password
// so accounts created under older policies can still sign in.
func Login(fields map[string]string) Errors {
	errs := Errors{}
	check(errs, fields, FieldEmail, requiredText(MsgEmailRequired), shape(MsgEmailInvalid, emailRules...))
	check(errs, fields, FieldPassword, validation.Required.Error(MsgPasswordRequired))
	return errs
}

// Registration checks the sign-up form, including password confirmation.
func Registration(fields map[string]string) Errors {
	errs := Errors{}
	check(errs, fields, FieldName, requiredText(MsgNameRequired), shape(MsgNameInvalid, nameRules...))
	check(errs, fields, FieldSurname, requiredText(MsgSurnameRequired), shape(MsgSurnameInvalid, nameRules...))
	check(errs, fields, FieldEmail, requiredText(MsgEmailRequired), shape(MsgEmailInvalid, emailRules...))
	check(errs, fields, FieldPhone, requiredText(MsgPhoneRequired), shape(MsgPhoneInvalid, phoneRules...))
	check(errs, fields, FieldPassword,
		validation.Required.Error(MsgPasswordRequired),
		shape(MsgPasswordWeak, passwordRules...),
	)
	check(errs, fields, FieldConfirmPassword,
		validation.Required.Error(MsgConfirmRequired),
		validation.By(StringEquals(fields[FieldPassword], MsgPasswordMismatch)),
	)
	return errs
}

// Profile checks the profile edit form.
func Profile(fields map[string]string) Errors {
	errs := Errors{}
	check(errs, fields, FieldName, requiredText(MsgNameRequired), shape(MsgNameInvalid, nameRules...))
	check(errs, fields, FieldSurname, requiredText(MsgSurnameRequired), shape(MsgSurnameInvalid, nameRules...))
	check(errs, fields, FieldPhone, requiredText(MsgPhoneRequired), shape(MsgPhoneInvalid, phoneRules...))
	return errs
}

// StringEquals fails with message unless the value equals want.
func StringEquals(want, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != want {
			return errors.New(message)
		}
		return nil
	}
}

func check(errs Errors, fields map[string]string, field string, rules ...validation.Rule) {
	if err := validation.Validate(fields[field], rules...); err != nil {
		errs[field] = err.Error()
	}
}

// requiredText treats whitespace-only input as missing.
func requiredText(message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	})
}

// shape collapses a group of rules into one message.
func shape(message string, rules ...validation.Rule) validation.Rule {
	return validation.By(func(value interface{}) error {
		if err := validation.Validate(value, rules...); err != nil {
			return errors.New(message)
		}
		return nil
	})
}
