package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/hugh/go-folio/internal/ai"
	"github.com/hugh/go-folio/internal/api/handlers"
	"github.com/hugh/go-folio/internal/api/middleware"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/identity"
	"github.com/hugh/go-folio/internal/payments"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/portfolios"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	Store          handlers.Pinger
	Redis          *redis.Client
	Queue          handlers.QueueInspector
	Logger         *slog.Logger
	Sessions       *auth.SessionManager
	AuthService    *auth.Service
	Exchanger      *identity.Exchanger
	Enforcer       *plans.Enforcer
	Portfolios     *portfolios.Service
	Writer         *ai.Writer
	Resumes        *ai.ResumeExtractor
	GitHub         handlers.ProjectSource
	Payments       *payments.Service
	Webhooks       *payments.WebhookProcessor
	AllowedOrigins []string // CORS allowed origins
	CookieSecure   bool
	RateLimitReqs  int // Rate limit requests per window
	RateLimitSecs  int // Rate limit window in seconds
	AuthPerMinute  int
	AuthBurst      int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// Cookies cross origins, so the allowlist must be explicit.
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Razorpay-Signature"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Redis, cfg.Queue)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Exchanger, handlers.CookieConfig{
		Secure: cfg.CookieSecure,
		TTL:    cfg.Sessions.TTL(),
	}, cfg.Logger)
	portfolioHandler := handlers.NewPortfolioHandler(cfg.Portfolios, cfg.Logger)
	aiHandler := handlers.NewAIHandler(cfg.Enforcer, cfg.Writer, cfg.Resumes, cfg.Logger)
	githubHandler := handlers.NewGitHubHandler(cfg.GitHub, cfg.Logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(cfg.Payments, cfg.Webhooks, cfg.Logger)

	throttle := middleware.NewThrottle(cfg.AuthPerMinute, cfg.AuthBurst)
	requireSession := middleware.Auth(cfg.Sessions, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(throttle.Middleware).Post("/signup", authHandler.Signup)
			r.With(throttle.Middleware).Post("/login", authHandler.Login)
			r.With(throttle.Middleware).Post("/session", authHandler.Session)
			r.Get("/verify", authHandler.Verify)
			r.With(throttle.Middleware).Post("/resend-verification", authHandler.ResendVerification)
			r.Post("/logout", authHandler.Logout)
			r.With(requireSession).Get("/me", authHandler.Me)
		})

		r.Get("/public/portfolio/{slug}", portfolioHandler.GetPublic)
		r.Post("/webhook/razorpay", subscriptionHandler.Webhook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Route("/portfolios", func(r chi.Router) {
				r.Get("/", portfolioHandler.List)
				r.Post("/", portfolioHandler.Create)
				r.Get("/{id}", portfolioHandler.Get)
				r.Put("/{id}", portfolioHandler.Update)
				r.Delete("/{id}", portfolioHandler.Delete)
				r.Post("/{id}/publish", portfolioHandler.Publish)
			})

			r.Route("/ai", func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(20, 60))
				r.Post("/generate", aiHandler.Generate)
				r.Post("/extract-resume", aiHandler.ExtractResume)
			})

			r.Get("/github/repos/{username}", githubHandler.Repos)

			r.Route("/subscription", func(r chi.Router) {
				r.Post("/create-order", subscriptionHandler.CreateOrder)
				r.Post("/verify", subscriptionHandler.Verify)
				r.Get("/status", subscriptionHandler.Status)
			})
		})
	})

	return &Router{r}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
