package routes

import (
	"fmt"
	"net/http"

	"CapIot.portal/internal/config"
	"CapIot.portal/internal/controller"
	"CapIot.portal/internal/middleware"
	"CapIot.portal/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// APIPrefix roots the JSON routes, the only ones that accept
// middleware.SessionHeader.
const APIPrefix = "/api"

// Controllers groups the handlers the router dispatches to.
type Controllers struct {
	Signup     *controller.SignupController
	Datapoints *controller.DatapointController
	Auth       *controller.AuthController
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router *mux.Router, c Controllers) {
	router.Handle("/", http.RedirectHandler("/signup", http.StatusFound)).Methods(http.MethodGet)

	// Pages
	router.HandleFunc("/signup", c.Signup.ShowSignup).Methods(http.MethodGet)
	router.HandleFunc("/signup", c.Signup.HandleSignup).Methods(http.MethodPost)
	router.HandleFunc("/login", c.Auth.ShowLogin).Methods(http.MethodGet)
	router.HandleFunc("/login", c.Auth.HandleLogin).Methods(http.MethodPost)
	router.HandleFunc("/logout", c.Auth.HandleLogout).Methods(http.MethodPost)
	router.HandleFunc("/dashboard/testing/add-datapoints", c.Datapoints.ShowPage).Methods(http.MethodGet)
	router.HandleFunc("/dashboard/testing/add-datapoints", c.Datapoints.HandlePage).Methods(http.MethodPost)

	// JSON
	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/signup", c.Signup.HandleSignupJSON).Methods(http.MethodPost)
	api.HandleFunc("/testing/devices/{deviceId}/last-datapoint", c.Datapoints.HandleLastDatapoint).Methods(http.MethodGet)
	api.HandleFunc("/testing/datapoints", c.Datapoints.HandleSubmitDatapoint).Methods(http.MethodPost)
	api.HandleFunc("/testing/sessions", c.Datapoints.HandleStartSession).Methods(http.MethodPost)

	// Health check (GET only)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)
}

// NewHandler builds the router and wraps it with logging, recovery, CORS
// and session middleware.
func NewHandler(cfg config.Config, backend storage.Backend, c Controllers) http.Handler {
	router := mux.NewRouter()
	RegisterRoutes(router, c)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.SessionHeader},
		AllowCredentials: true,
	})
	sessions := middleware.NewSessions(backend, cfg.SecureCookies, APIPrefix+"/")

	return middleware.Chain(
		middleware.Logging,
		middleware.Recovery,
		corsHandler.Handler,
		sessions.Middleware,
	)(router)
}
