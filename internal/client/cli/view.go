package cli

import (
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/validate"
)

// View is the screen currently shown to the user.
type View string

const (
	ViewLoading   View = "loading"
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewDashboard View = "dashboard"
)

// selectView picks the screen for s. Anonymous users stay on whichever of
// login/register they were on.
func selectView(s models.Snapshot, current View) View {
	switch {
	case s.Status == models.StatusUninitialized || s.Status == models.StatusVerifying:
		return ViewLoading
	case s.IsAuthenticated:
		return ViewDashboard
	case current == ViewRegister:
		return ViewRegister
	default:
		return ViewLogin
	}
}

// FormState is the per-view input buffer. It is discarded on every view
// switch.
type FormState struct {
	Fields      map[string]string
	FieldErrors validate.Errors
	SubmitError string
}

func newFormState() FormState {
	return FormState{Fields: map[string]string{}, FieldErrors: validate.Errors{}}
}

// Set stores a field value. Typing into a field clears its error and the
// submit banner.
func (f *FormState) Set(field, value string) {
	f.Fields[field] = value
	delete(f.FieldErrors, field)
	f.SubmitError = ""
}
