package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/validate"
)

// getSimpleText, getTextWithDefault and getPassword are indirections used
// to facilitate testing.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

var (
	loginOrder    = []string{validate.FieldEmail, validate.FieldPassword}
	registerOrder = []string{
		validate.FieldName, validate.FieldSurname, validate.FieldEmail,
		validate.FieldPhone, validate.FieldPassword, validate.FieldConfirmPassword,
	}
	profileOrder = []string{validate.FieldName, validate.FieldSurname, validate.FieldPhone}
)

type prompt struct {
	field    string
	label    string
	password bool
}

// fill prompts for each field in turn and stores the answers in the form.
func (a *App) fill(prompts []prompt) error {
	for _, p := range prompts {
		var (
			v   string
			err error
		)
		if p.password {
			v, err = getPassword(a.reader, p.label, a.out)
		} else {
			v, err = getSimpleText(a.reader, p.label, a.out)
		}
		if err != nil {
			return err
		}
		a.setField(p.field, v)
	}
	return nil
}

// Login shows the login form, validates it and signs in.
func (a *App) Login(ctx context.Context) error {
	a.switchView(ViewLogin)

	err := a.fill([]prompt{
		{field: validate.FieldEmail, label: "Enter email"},
		{field: validate.FieldPassword, label: "Enter password", password: true},
	})
	if err != nil {
		return err
	}

	fields := a.formFields()
	if errs := validate.Login(fields); !errs.OK() {
		a.fail(loginOrder, errs, "")
		return nil
	}

	res, err := a.session.Login(ctx, fields[validate.FieldEmail], fields[validate.FieldPassword])
	if err != nil {
		a.fail(loginOrder, nil, services.SubmitError(err))
		return err
	}

	if res.Message != "" {
		fmt.Fprintln(a.out, res.Message)
	}
	return a.Profile(ctx)
}

// Register shows the registration form, validates it and creates the
// account.
func (a *App) Register(ctx context.Context) error {
	a.switchView(ViewRegister)

	err := a.fill([]prompt{
		{field: validate.FieldName, label: "Enter first name"},
		{field: validate.FieldSurname, label: "Enter last name"},
		{field: validate.FieldEmail, label: "Enter email"},
		{field: validate.FieldPhone, label: "Enter phone number"},
		{field: validate.FieldPassword, label: "Enter password", password: true},
		{field: validate.FieldConfirmPassword, label: "Confirm password", password: true},
	})
	if err != nil {
		return err
	}

	fields := a.formFields()
	if errs := validate.Registration(fields); !errs.OK() {
		a.fail(registerOrder, errs, "")
		return nil
	}

	res, err := a.session.Register(ctx, models.Registration{
		Name:     fields[validate.FieldName],
		Surname:  fields[validate.FieldSurname],
		Email:    fields[validate.FieldEmail],
		Phone:    fields[validate.FieldPhone],
		Password: fields[validate.FieldPassword],
	})
	if err != nil {
		a.fail(registerOrder, nil, services.SubmitError(err))
		return err
	}

	if res.Message != "" {
		fmt.Fprintln(a.out, res.Message)
	}
	return a.Profile(ctx)
}

// Profile renders the dashboard.
func (a *App) Profile(ctx context.Context) error {
	a.mu.Lock()
	user, notice := a.snap.User, a.notice
	a.mu.Unlock()

	if user == nil {
		fmt.Fprintln(a.out, services.MsgNotAuthenticated)
		return services.ErrNotAuthenticated
	}
	renderDashboard(a.out, user, a.config.PhoneRegion, notice)
	return nil
}

// EditProfile prompts for name, surname and phone, defaulting to the
// current values, and sends them as a profile update.
func (a *App) EditProfile(ctx context.Context) error {
	a.mu.Lock()
	user := a.snap.User
	a.notice = ""
	a.form = newFormState()
	a.mu.Unlock()

	if user == nil {
		fmt.Fprintln(a.out, services.MsgNotAuthenticated)
		return services.ErrNotAuthenticated
	}

	steps := []struct {
		field, label, current string
	}{
		{validate.FieldName, "First name", user.Name},
		{validate.FieldSurname, "Last name", user.Surname},
		{validate.FieldPhone, "Phone number", user.Phone},
	}
	for _, s := range steps {
		v, err := getTextWithDefault(a.reader, s.label, s.current, a.out)
		if err != nil {
			return err
		}
		a.setField(s.field, v)
	}

	fields := a.formFields()
	if errs := validate.Profile(fields); !errs.OK() {
		a.fail(profileOrder, errs, "")
		return nil
	}

	name, surname, phone := fields[validate.FieldName], fields[validate.FieldSurname], fields[validate.FieldPhone]
	_, err := a.session.UpdateProfile(ctx, models.ProfilePatch{Name: &name, Surname: &surname, Phone: &phone})
	if err != nil {
		a.fail(profileOrder, nil, services.SubmitError(err))
		return err
	}

	a.mu.Lock()
	a.notice = "Profile updated successfully!"
	a.mu.Unlock()
	return a.Profile(ctx)
}

// Logout ends the session. Local state is cleared even when the server
// cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.log.Error(ctx, "logout failed", "error", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
