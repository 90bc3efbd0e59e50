package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-folio/internal/ai"
	"github.com/hugh/go-folio/internal/api"
	"github.com/hugh/go-folio/internal/api/handlers"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database"
	"github.com/hugh/go-folio/internal/gitimport"
	"github.com/hugh/go-folio/internal/identity"
	"github.com/hugh/go-folio/internal/mail"
	"github.com/hugh/go-folio/internal/payments"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/portfolios"
	"github.com/hugh/go-folio/internal/storage"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/internal/store/mongostore"
	"github.com/hugh/go-folio/internal/tasks"
	"github.com/hugh/go-folio/pkg/config"
	"github.com/hugh/go-folio/pkg/queue"
	"github.com/hugh/go-folio/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting go-folio server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"database", cfg.Database.Driver,
	)

	ctx := context.Background()
	timeout := cfg.Outbound.Timeout()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("failed to connect to Redis, mail will be sent inline", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	var (
		asynqClient *asynq.Client
		inspector   *asynq.Inspector
		notifier    auth.VerificationNotifier
		ledger      payments.Ledger
		queueCheck  handlers.QueueInspector
	)
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		inspector = queue.NewInspector(&cfg.Redis)
		notifier = tasks.NewQueueNotifier(asynqClient)
		ledger = payments.NewRedisLedger(redisClient, 0)
		queueCheck = inspector
	} else {
		sender, err := mail.NewSender(cfg.Mail, logger)
		if err != nil {
			logger.Error("failed to configure mail", "error", err)
			os.Exit(1)
		}
		notifier = mail.NewNotifier(sender, timeout)
	}

	// Accounts and sessions
	sessions := auth.NewSessionManager(st.Sessions(), st.Users(), cfg.Session.TTL())
	authService := auth.NewService(auth.ServiceConfig{
		Users:     st.Users(),
		Sessions:  sessions,
		Links:     auth.NewLinkSigner(cfg.Server.LinkSecret, auth.DefaultLinkExpiry),
		Notifier:  notifier,
		VerifyURL: cfg.Server.FrontendURL + "/verify",
		Logger:    logger,
	})
	exchanger := identity.NewExchanger(
		identity.NewClient(cfg.Identity.ProviderURL, timeout),
		st.Users(), sessions, logger,
	)

	// Plans and portfolios
	enforcer := plans.NewEnforcer(plans.PolicyFromConfig(cfg.Plans), st.Portfolios())

	var uploader portfolios.ImageUploader
	if cfg.Storage.Bucket != "" {
		imageStore, err := storage.NewImageStore(ctx, cfg.Storage)
		if err != nil {
			logger.Error("failed to configure image storage", "error", err)
			os.Exit(1)
		}
		uploader = storage.NewUploader(imageStore, storage.Constraints{
			MaxBytes: cfg.Storage.MaxImageBytes,
			MaxDim:   cfg.Storage.MaxImageDim,
		}, timeout, logger)
	} else {
		logger.Warn("STORAGE_BUCKET not set, profile image uploads are disabled")
	}
	portfolioService := portfolios.NewService(st.Portfolios(), enforcer, uploader, logger)

	// Integrations
	llm := ai.NewOpenRouterClient(cfg.LLM)
	writer := ai.NewWriter(llm, 0)
	resumes := ai.NewResumeExtractor(ai.PDFTextExtractor{}, llm, 0)
	importer := gitimport.NewImporter(cfg.GitHub.Token, timeout)

	gateway := payments.NewRazorpayGateway(cfg.Payments.KeyID, cfg.Payments.KeySecret)
	paymentService := payments.NewService(payments.ServiceConfig{
		Gateway:   gateway,
		Users:     st.Users(),
		Orders:    st.Orders(),
		KeySecret: cfg.Payments.KeySecret,
		Currency:  cfg.Payments.Currency,
		Timeout:   timeout,
		Logger:    logger,
	})

	var webhooks *payments.WebhookProcessor
	if cfg.Payments.WebhookSecret != "" {
		webhooks = payments.NewWebhookProcessor(payments.WebhookConfig{
			Secret:  cfg.Payments.WebhookSecret,
			Gateway: gateway,
			Users:   st.Users(),
			Orders:  st.Orders(),
			Ledger:  ledger,
			Timeout: timeout,
			Logger:  logger,
		})
	} else {
		logger.Warn("RAZORPAY_WEBHOOK_SECRET not set, webhook deliveries will be refused")
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		Store:          st,
		Redis:          redisClient,
		Queue:          queueCheck,
		Logger:         logger,
		Sessions:       sessions,
		AuthService:    authService,
		Exchanger:      exchanger,
		Enforcer:       enforcer,
		Portfolios:     portfolioService,
		Writer:         writer,
		Resumes:        resumes,
		GitHub:         importer,
		Payments:       paymentService,
		Webhooks:       webhooks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CookieSecure:   cfg.Server.CookieSecure,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AuthBurst:      cfg.RateLimit.AuthBurst,
	})

	// Model calls dominate the write timeout.
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if inspector != nil {
		inspector.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("server stopped")
}

// openStore connects the configured backend. Postgres schemas are migrated
// on startup.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.Connect(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return store.NewGormStore(db), nil
	case "mongo":
		s, err := mongostore.New(ctx, cfg.Database.MongoURI, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Database.Name)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
