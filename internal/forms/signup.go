package forms

import "unicode/utf8"

const (
	MinUsernameLength = 5
	MinPasswordLength = 4
)

// Field names as they appear in the form and in error maps.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Empty() bool { return len(e) == 0 }

// SignupForm is the state of the signup page.
type SignupForm struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`

	ShowPassword        bool `json:"-"`
	ShowConfirmPassword bool `json:"-"`
}

// Validate checks the form against the signup schema. All failing fields
// are reported, not only the first.
func (f SignupForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if utf8.RuneCountInString(f.Username) < MinUsernameLength {
		errs[FieldUsername] = "Username must be at least 5 characters"
	}
	if utf8.RuneCountInString(f.Password) < MinPasswordLength {
		errs[FieldPassword] = "Password must be at least 4 characters"
	}
	if f.Password != f.ConfirmPassword {
		errs[FieldConfirmPassword] = "Passwords do not match"
	}
	return errs
}

// Toggle flips the visibility flag of a password field. It never touches
// the values, so validation is unaffected.
func (f *SignupForm) Toggle(field string) {
	switch field {
	case FieldPassword:
		f.ShowPassword = !f.ShowPassword
	case FieldConfirmPassword:
		f.ShowConfirmPassword = !f.ShowConfirmPassword
	}
}
