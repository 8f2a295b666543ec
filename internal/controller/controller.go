package controller

import (
	"errors"
	"net/http"

	"CapIot.portal/internal/middleware"
	"CapIot.portal/internal/models"
	"CapIot.portal/internal/service"
	"CapIot.portal/internal/storage"
	"CapIot.portal/internal/utils"
	"CapIot.portal/internal/views"
	"github.com/charmbracelet/log"
)

// sessionStore returns the request's local storage, answering 500 when the
// session middleware did not run.
func sessionStore(w http.ResponseWriter, r *http.Request) (storage.LocalStorage, bool) {
	store, ok := middleware.Storage(r.Context())
	if !ok {
		log.Error("No session storage on request", "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return store, ok
}

func render(w http.ResponseWriter, status int, page string, data any) {
	if err := views.Render(w, status, page, data); err != nil {
		log.Error("Failed to render page", "page", page, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		apiErr := models.NewAPIError(models.ErrorCodeBadRequest, "Invalid form submission", nil, http.StatusBadRequest)
		http.Error(w, apiErr.Message, apiErr.StatusCode)
		return false
	}
	return true
}

// apiErrorFor maps a failed action to the JSON error envelope.
func apiErrorFor(err error, notice *models.Notice, details any) models.APIError {
	message := "Request failed"
	if notice != nil {
		message = notice.Message
	}
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		return models.NewAPIError(models.ErrorCodeUnauthorized, message, details, http.StatusUnauthorized)
	case errors.Is(err, service.ErrInvalidInput):
		return models.NewAPIError(models.ErrorCodeValidationFailed, message, details, http.StatusBadRequest)
	default:
		return models.NewAPIError(models.ErrorCodeUpstreamFailed, message, details, http.StatusBadGateway)
	}
}

func respondWithOutcomeError(w http.ResponseWriter, err error, notice *models.Notice, details any) {
	utils.RespondWithError(w, apiErrorFor(err, notice, details))
}
