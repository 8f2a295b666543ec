package service

import (
	"context"
	"errors"
	"time"

	"CapIot.portal/internal/client"
	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
	"github.com/charmbracelet/log"
)

const (
	signupFallbackMessage = "Error: Username already in use."
	LoginPath             = "/login"
)

// SignupOutcome is the settled result of a signup attempt.
type SignupOutcome struct {
	FieldErrors forms.FieldErrors
	Notice      *models.Notice
	User        *models.User
	// Redirect is set on success; the browser navigates there after RedirectAfter.
	Redirect      string
	RedirectAfter time.Duration
	Phase         forms.Phase
	Err           error
}

// SignupService backs the signup page.
type SignupService struct {
	api           client.API
	redirectDelay time.Duration
}

// NewSignupService creates a new SignupService.
func NewSignupService(api client.API, redirectDelay time.Duration) *SignupService {
	return &SignupService{api: api, redirectDelay: redirectDelay}
}

// Signup validates the form and, when it passes, creates the user.
func (s *SignupService) Signup(ctx context.Context, form forms.SignupForm) SignupOutcome {
	var act forms.Action
	fail := func(out SignupOutcome) SignupOutcome {
		if err := settle(&act, forms.Failed); err != nil {
			out.Err = errors.Join(out.Err, err)
		}
		out.Phase = act.Phase()
		return out
	}
	if err := act.Advance(forms.Validating); err != nil {
		return fail(SignupOutcome{Notice: models.Failure(signupFallbackMessage), Err: err})
	}

	if errs := form.Validate(); !errs.Empty() {
		return fail(SignupOutcome{FieldErrors: errs, Err: ErrInvalidInput})
	}

	if err := act.Advance(forms.Submitting); err != nil {
		return fail(SignupOutcome{Notice: models.Failure(signupFallbackMessage), Err: err})
	}
	user, err := s.api.CreateUser(ctx, models.NewUser{Username: form.Username, Password: form.Password})
	if err != nil {
		log.Error("Signup failed", "username", form.Username, "err", err)
		return fail(SignupOutcome{
			Notice: models.Failure(client.MessageOr(err, signupFallbackMessage)),
			Err:    err,
		})
	}
	if err := settle(&act, forms.Succeeded); err != nil {
		return fail(SignupOutcome{Notice: models.Failure(signupFallbackMessage), Err: err})
	}
	log.Info("User created", "username", user.Username)

	return SignupOutcome{
		Notice:        models.Success("Signup successful! Redirecting to Login..."),
		User:          &user,
		Redirect:      LoginPath,
		RedirectAfter: s.redirectDelay,
		Phase:         act.Phase(),
	}
}
