package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/nyaruka/phonenumbers"
)

const (
	dateLayout     = "January 2, 2006"
	dateTimeLayout = "January 2, 2006 15:04"
)

// formatPhone renders raw in international format when it parses as a
// possible number for region, and returns it unchanged otherwise.
func formatPhone(raw, region string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

func renderDashboard(w io.Writer, u *models.UserProfile, region, notice string) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "Welcome, %s!\n", u.Name)
	if notice != "" {
		fmt.Fprintln(w, notice)
	}
	fmt.Fprintf(w, "  Name:         %s %s\n", u.Name, u.Surname)
	fmt.Fprintf(w, "  Email:        %s\n", u.Email)
	fmt.Fprintf(w, "  Phone:        %s\n", formatPhone(u.Phone, region))
	fmt.Fprintf(w, "  Member since: %s\n", u.CreatedAt.Local().Format(dateLayout))
	if u.LastLogin != nil {
		fmt.Fprintf(w, "  Last login:   %s\n", u.LastLogin.Local().Format(dateTimeLayout))
	}
}

func renderFieldErrors(w io.Writer, order []string, f FormState) {
	for _, field := range order {
		if msg, ok := f.FieldErrors[field]; ok {
			fmt.Fprintf(w, "  %s: %s\n", field, msg)
		}
	}
	if f.SubmitError != "" {
		fmt.Fprintf(w, "Error: %s\n", f.SubmitError)
	}
}
