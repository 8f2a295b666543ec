package controller

import (
	"net/http"

	"CapIot.portal/internal/client"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/service"
	"CapIot.portal/internal/views"
	"github.com/charmbracelet/log"
)

// AuthController keeps the session's auth token.
type AuthController struct {
	service *service.AuthService
}

func NewAuthController(service *service.AuthService) *AuthController {
	return &AuthController{service: service}
}

func (c *AuthController) ShowLogin(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	render(w, http.StatusOK, "login", views.LoginPage{LoggedIn: c.service.LoggedIn(r.Context(), store)})
}

// HandleLogin logs in against the remote API and stores the token.
func (c *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	creds := models.LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := c.service.Login(r.Context(), store, creds); err != nil {
		log.Error("Login failed", "username", creds.Username, "err", err)
		render(w, http.StatusUnauthorized, "login", views.LoginPage{
			Username: creds.Username,
			Notice:   models.Failure(client.MessageOr(err, "Invalid username or password")),
		})
		return
	}
	http.Redirect(w, r, "/dashboard/testing/add-datapoints", http.StatusSeeOther)
}

func (c *AuthController) HandleLogout(w http.ResponseWriter, r *http.Request) {
	store, ok := sessionStore(w, r)
	if !ok {
		return
	}
	if err := c.service.Logout(r.Context(), store); err != nil {
		log.Error("Logout failed", "err", err)
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
