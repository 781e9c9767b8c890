// Package validate holds the client-side input rules that gate which
// requests may reach the identity API.
//
// Two layers are exposed:
//
//   - Predicates (ValidateEmail, ValidatePassword, ValidateName,
//     ValidatePhone) answer pass/fail for a single string. They never
//     perform I/O and never panic.
//   - Form validators (Login, Registration, Profile) run the predicates over
//     a form's fields and return a field → message map. An empty value is
//     always reported as "required" before its shape is checked, so the two
//     failures carry different messages.
//
// Rules are composed with ozzo-validation.
package validate
