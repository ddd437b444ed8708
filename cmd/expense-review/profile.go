package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zombor/expense-tracker/internal/client"
	"github.com/zombor/expense-tracker/internal/record"
)

var errUnknownProfileField = errors.New("unknown profile field")

func isNotFound(err error) bool {
	var statusErr *client.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

func (r *reviewer) showProfile(ctx context.Context) error {
	p, err := r.client.GetProfile(ctx, r.session.IDToken)
	if isNotFound(err) {
		fmt.Fprintln(r.out, "No profile saved yet. Set one with --set-profile name=... --set-profile email=...")
		return nil
	}
	if err != nil {
		return err
	}
	printProfile(r.out, p)
	return nil
}

// updateProfile applies field=value edits on top of the stored profile and
// saves after confirmation. A first profile starts from the signed-in email.
func (r *reviewer) updateProfile(ctx context.Context, edits []string) error {
	current := record.Profile{Email: r.session.Email}
	stored, err := r.client.GetProfile(ctx, r.session.IDToken)
	switch {
	case isNotFound(err):
	case err != nil:
		return err
	default:
		current = stored.Profile
	}

	if err := applyEdits(func(field, value string) error {
		return setProfileField(&current, field, value)
	}, edits); err != nil {
		return err
	}

	printProfile(r.out, &record.StoredProfile{Profile: current})
	ok, err := r.confirm("Save this profile?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(r.out, "Profile unchanged.")
		return nil
	}

	if _, err := r.client.UpdateProfile(ctx, r.session.IDToken, &current); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Profile saved.")
	return nil
}

func setProfileField(p *record.Profile, field, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(field) {
	case "name":
		p.Name = value
	case "email":
		p.Email = value
	case "occupation":
		p.Occupation = value
	case "home_town", "hometown":
		p.HomeTown = value
	default:
		return fmt.Errorf("%w: %q", errUnknownProfileField, field)
	}
	return nil
}

// checkInvoices asks the backend to remind the user of invoices due soon
func (r *reviewer) checkInvoices(ctx context.Context, days int) error {
	result, err := r.client.RemindDueInvoices(ctx, r.session.IDToken, days)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%d invoices due within %d days, %d reminders sent\n", result.Due, days, result.EmailsSent)
	return nil
}
