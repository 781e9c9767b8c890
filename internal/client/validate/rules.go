package validate

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// PasswordSymbols is the punctuation set a password must draw at least one
// character from.
const PasswordSymbols = "@$!%*?&"

const (
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordLength = 128
	minPhoneDigits    = 10
	maxPhoneDigits    = 15
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]+$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s\-']{1,50}$`)
	phoneCharset    = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

var (
	errPasswordClasses = errors.New("must contain lowercase, uppercase, digit and symbol")
	errPhoneDigits     = errors.New("must contain 10-15 digits")
)

// Shape rules. ozzo skips Length and Match on empty input, so callers check
// required-ness separately.
var (
	emailRules = []validation.Rule{
		validation.Length(0, maxEmailLength),
		validation.Match(emailPattern),
	}
	passwordRules = []validation.Rule{
		validation.Length(minPasswordLength, maxPasswordLength),
		validation.Match(passwordCharset),
		validation.By(passwordClasses),
	}
	nameRules = []validation.Rule{
		validation.Match(namePattern),
	}
	phoneRules = []validation.Rule{
		validation.Match(phoneCharset),
		validation.By(phoneDigits),
	}
)

// ValidateEmail reports whether email looks like local@domain.tld and is at
// most 254 characters long.
func ValidateEmail(email string) bool {
	return email != "" && validation.Validate(email, emailRules...) == nil
}

// ValidatePassword reports whether password is 8-128 characters from the
// allowed set with at least one lowercase, uppercase, digit and symbol.
func ValidatePassword(password string) bool {
	return password != "" && validation.Validate(password, passwordRules...) == nil
}

// ValidateName reports whether name is 1-50 letters, spaces, hyphens or
// apostrophes. It serves both first name and surname.
func ValidateName(name string) bool {
	return name != "" && validation.Validate(name, nameRules...) == nil
}

// ValidatePhone reports whether phone is an optional leading "+" followed by
// digits, spaces, hyphens and parentheses, carrying 10-15 digits.
func ValidatePhone(phone string) bool {
	return phone != "" && validation.Validate(phone, phoneRules...) == nil
}

func passwordClasses(value interface{}) error {
	s, _ := value.(string)
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return errPasswordClasses
	}
	return nil
}

func phoneDigits(value interface{}) error {
	s, _ := value.(string)
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	if n < minPhoneDigits || n > maxPhoneDigits {
		return errPhoneDigits
	}
	return nil
}
