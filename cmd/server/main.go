package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/tax-task-tracker/internal/auth"
	"github.com/yukikurage/tax-task-tracker/internal/config"
	"github.com/yukikurage/tax-task-tracker/internal/database"
	"github.com/yukikurage/tax-task-tracker/internal/events"
	"github.com/yukikurage/tax-task-tracker/internal/obligations"
	"github.com/yukikurage/tax-task-tracker/internal/ratelimit"
	"github.com/yukikurage/tax-task-tracker/internal/repository"
	"github.com/yukikurage/tax-task-tracker/internal/resettoken"
	"github.com/yukikurage/tax-task-tracker/internal/scheduler"
	"github.com/yukikurage/tax-task-tracker/internal/server"
	"github.com/yukikurage/tax-task-tracker/internal/services"
	"github.com/yukikurage/tax-task-tracker/internal/storage"
	"github.com/yukikurage/tax-task-tracker/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTELServiceName)
	if err != nil {
		log.Fatalf("Failed to initialise tracing: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
	}

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create session store: %v", err)
	}

	resetTokens, err := newResetTokenStore(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to create reset token store: %v", err)
	}

	var limiter ratelimit.Limiter = ratelimit.NewFixedWindow(time.Minute)
	if redisClient != nil {
		limiter = ratelimit.NewRedisFixedWindow(redisClient, time.Minute)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaActivityTopic,
		})
		if err != nil {
			log.Fatalf("Failed to create activity publisher: %v", err)
		}
		publisher = kafka
	}
	defer publisher.Close()

	verifier, err := newExternalVerifier(cfg)
	if err != nil {
		log.Fatalf("Failed to configure external authentication: %v", err)
	}

	files, err := storage.NewDiskStore(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("Failed to prepare uploads directory: %v", err)
	}

	// Initialize repositories and services
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	activityService := services.NewActivityService(activityRepo, publisher)
	sessionService := services.NewSessionService(userRepo, verifier)
	authService := services.NewAuthService(userRepo, resetTokens, services.AuthOptions{
		ExposeResetTokens: cfg.IsDevelopment(),
		ResetURLBase:      cfg.ResetURLBase,
	})
	userService := services.NewUserService(userRepo, activityService)
	taskService := services.NewTaskService(taskRepo, userRepo, activityService, files)
	fileService := services.NewFileService(fileRepo, taskRepo, files, activityService)

	var extractor services.ObligationExtractor
	if ai := services.NewAIService(cfg.OpenAIAPIKey); ai != nil {
		extractor = ai
	}
	var feed services.CatalogFeed
	if cfg.AgendaFeedURL != "" {
		feed = obligations.NewFeedFetcher(cfg.AgendaFeedURL, telemetry.InstrumentClient(&http.Client{Timeout: 15 * time.Second}))
	}
	obligationService := services.NewObligationService(obligations.Default(), taskRepo, userRepo, activityService, feed, extractor)

	jobs, err := newScheduler(ctx, cfg, authService, obligationService)
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()

	router := server.NewRouter(server.Deps{
		DB:                 db,
		SessionStore:       sessionStore,
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		FrontendDist:       cfg.FrontendDist,
		Sessions:           sessionService,
		Auth:               authService,
		Users:              userService,
		Tasks:              taskService,
		Files:              fileService,
		Obligations:        obligationService,
		Activity:           activityService,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           telemetry.WrapHandler(router, cfg.OTELServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	jobs.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown: %v", err)
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		s, err := redisStore.NewStore(
			10,            // Redis pool size
			"tcp",         // network type
			cfg.RedisAddr, // Redis address from config
			"",            // username (empty for default user)
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = s
	case "cookie", "":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func newResetTokenStore(cfg *config.Config, client *redis.Client) (resettoken.Store, error) {
	switch cfg.ResetTokenStore {
	case "redis":
		if client == nil {
			return nil, errors.New("RESET_TOKEN_STORE=redis requires REDIS_ADDR")
		}
		return resettoken.NewRedisStore(client), nil
	case "database", "":
		return resettoken.NewGormStore(database.GetDB()), nil
	default:
		return nil, fmt.Errorf("unsupported RESET_TOKEN_STORE %q", cfg.ResetTokenStore)
	}
}

// newExternalVerifier returns nil when no identity provider is configured.
func newExternalVerifier(cfg *config.Config) (auth.ExternalVerifier, error) {
	switch {
	case cfg.ExternalAuthPublicKeyFile != "":
		pem, err := os.ReadFile(cfg.ExternalAuthPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		return auth.NewRS256Verifier(pem, cfg.ExternalAuthIssuer, cfg.ExternalAuthAudience)
	case cfg.ExternalAuthSecret != "":
		return auth.NewHS256Verifier([]byte(cfg.ExternalAuthSecret), cfg.ExternalAuthIssuer, cfg.ExternalAuthAudience), nil
	default:
		log.Println("External authentication disabled; only local credentials are accepted")
		return nil, nil
	}
}

func newScheduler(ctx context.Context, cfg *config.Config, authService *services.AuthService, obligationService *services.ObligationService) (*scheduler.Scheduler, error) {
	jobs := scheduler.New(time.UTC)

	_, err := jobs.ScheduleInterval("purge-reset-tokens", time.Hour, func() {
		n, err := authService.PurgeExpiredResetTokens(ctx)
		if err != nil {
			log.Printf("[SCHEDULER] purge reset tokens: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[SCHEDULER] purged %d expired reset tokens", n)
		}
	})
	if err != nil {
		return nil, err
	}

	if cfg.AgendaAutoCron != "" {
		_, err := jobs.Schedule("agenda-next-month", cfg.AgendaAutoCron, func() {
			outcome, err := obligationService.GenerateScheduled(ctx, cfg.AgendaAutoAssignee)
			if err != nil {
				log.Printf("[SCHEDULER] agenda generation: %v", err)
				return
			}
			log.Printf("[SCHEDULER] agenda %02d/%d: %d created, %d skipped", outcome.Month, outcome.Year, outcome.Created, outcome.Skipped)
		})
		if err != nil {
			return nil, err
		}
	}

	return jobs, nil
}
