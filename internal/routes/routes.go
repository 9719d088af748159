package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"REMINDME_BACK-END/internal/handlers"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/middleware"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Reminders  *handlers.RemindersHandler
	Health     *handlers.HealthHandler
	GoogleAuth *handlers.GoogleAuthHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(h Handlers, sessions middleware.Authenticator, cookieName string, logger logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)

	// Health check routes
	r.Get("/health", h.Health.HealthCheck)
	r.Get("/livez", h.Health.LivenessCheck)
	r.Get("/readyz", h.Health.ReadinessCheck)

	// Authentication routes
	r.Post("/register", h.Auth.Register)
	r.Post("/login", h.Auth.Login)
	r.With(middleware.OptionalSession(cookieName)).Post("/logout", h.Auth.Logout)
	r.With(middleware.RequireSession(sessions, cookieName)).Get("/profile", h.Auth.Profile)

	if h.GoogleAuth != nil {
		r.Get("/auth/google/login", h.GoogleAuth.GoogleLogin)
		r.Get("/auth/google/callback", h.GoogleAuth.GoogleCallback)
	}

	r.Route("/reminders", func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, cookieName))
		r.Post("/", h.Reminders.CreateReminder)
		r.Get("/", h.Reminders.ListReminders)
		r.Get("/{id}", h.Reminders.GetReminder)
		r.Put("/{id}", h.Reminders.UpdateReminder)
		r.Delete("/{id}", h.Reminders.DeleteReminder)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Root route
	r.Get("/", rootHandler)

	return r
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("RemindMe backend is running."))
}
