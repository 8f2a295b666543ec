package controller

import (
	"encoding/json"
	"net/http"

	"CapIot.portal/internal/forms"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/service"
	"CapIot.portal/internal/utils"
	"CapIot.portal/internal/views"
)

// SignupController serves the signup page and its JSON twin.
type SignupController struct {
	service *service.SignupService
}

func NewSignupController(service *service.SignupService) *SignupController {
	return &SignupController{service: service}
}

// ShowSignup renders an empty signup form.
func (c *SignupController) ShowSignup(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "signup", views.SignupPage{})
}

// HandleSignup handles both password visibility toggles and submission.
func (c *SignupController) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	form := forms.SignupForm{
		Username:            r.PostForm.Get("username"),
		Password:            r.PostForm.Get("password"),
		ConfirmPassword:     r.PostForm.Get("confirmPassword"),
		ShowPassword:        r.PostForm.Get("showPassword") == "true",
		ShowConfirmPassword: r.PostForm.Get("showConfirmPassword") == "true",
	}

	if toggle := r.PostForm.Get("toggle"); toggle != "" {
		form.Toggle(toggle)
		render(w, http.StatusOK, "signup", views.SignupPage{Form: form})
		return
	}

	out := c.service.Signup(r.Context(), form)
	page := views.SignupPage{
		Form:   form,
		Errors: out.FieldErrors,
		Notice: out.Notice,
		Phase:  out.Phase,
	}
	status := http.StatusOK
	switch {
	case out.Redirect != "":
		page.Redirect = out.Redirect
		page.RedirectSeconds = views.Seconds(out.RedirectAfter)
	case !out.FieldErrors.Empty():
		status = http.StatusUnprocessableEntity
	}
	render(w, status, "signup", page)
}

// HandleSignupJSON is the scriptable form of HandleSignup.
func (c *SignupController) HandleSignupJSON(w http.ResponseWriter, r *http.Request) {
	var form forms.SignupForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeInvalidFormat, "Invalid request payload", nil, http.StatusBadRequest)
		utils.RespondWithError(w, apiErr)
		return
	}
	defer r.Body.Close()

	out := c.service.Signup(r.Context(), form)
	if out.Err != nil {
		notice := out.Notice
		if notice == nil {
			notice = models.Failure("Validation failed")
		}
		var details any
		if !out.FieldErrors.Empty() {
			details = out.FieldErrors
		}
		respondWithOutcomeError(w, out.Err, notice, details)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"user":     out.User,
		"notice":   out.Notice,
		"redirect": out.Redirect,
	})
}
