package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/crisis-companion/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/crisis-companion/internal/http/middleware"
	"github.com/wolfman30/crisis-companion/internal/webchat"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// Roles allowed on /admin routes.
var adminRoles = []string{"admin", "counselor"}

// Config holds router configuration
type Config struct {
	Logger    *logging.Logger
	Sessions  *handlers.SessionHandler
	Stream    *webchat.Handler
	Catalog   *handlers.CatalogHandler
	Status    http.Handler
	Incidents *handlers.IncidentsHandler
	Contacts  *handlers.ContactsHandler
	History   *handlers.HistoryHandler

	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// RateLimitRPS <= 0 disables per-IP rate limiting on session routes.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Status != nil {
			public.Handle("/status", cfg.Status)
		}
		if cfg.Catalog != nil {
			public.Get("/resources/crisis", cfg.Catalog.CrisisResources)
			public.Get("/exercises", cfg.Catalog.ListExercises)
			public.Get("/exercises/{type}", cfg.Catalog.GetExercise)
		}
	})

	if cfg.Sessions != nil {
		r.Route("/sessions", func(sessions chi.Router) {
			if cfg.RateLimitRPS > 0 {
				sessions.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			}
			if cfg.Stream != nil {
				sessions.Get("/{id}/stream", cfg.Stream.HandleStream)
			}
			cfg.Sessions.Routes(sessions)
		})
	}

	// Without a secret the admin surface is not mounted at all.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, adminRoles...))
			admin.Route("/users/{userID}", func(user chi.Router) {
				if cfg.Incidents != nil {
					user.Get("/incidents", cfg.Incidents.List)
				}
				if cfg.Contacts != nil {
					user.Route("/contacts", cfg.Contacts.Routes)
				}
			})
			if cfg.History != nil {
				admin.Get("/sessions/{id}/history", cfg.History.Get)
			}
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
