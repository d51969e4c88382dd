package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/email"
	"github.com/jwalitptl/clinic-booking/internal/handler/account"
	"github.com/jwalitptl/clinic-booking/internal/handler/admin"
	appointmentHandler "github.com/jwalitptl/clinic-booking/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-booking/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/clinic-booking/internal/handler/doctor"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	"github.com/jwalitptl/clinic-booking/internal/handler/home"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	"github.com/jwalitptl/clinic-booking/internal/router"
	appointmentService "github.com/jwalitptl/clinic-booking/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-booking/internal/service/auth"
	doctorService "github.com/jwalitptl/clinic-booking/internal/service/doctor"
	userService "github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/internal/templates"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Log.Console,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	// Session store: Redis when configured, process memory otherwise
	var (
		store        session.Store
		sessionCheck health.Pinger
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		redisStore := session.NewRedisStore(client)
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to Redis")
		}
		store = redisStore
		sessionCheck = health.PingFunc(redisStore.Ping)
	} else {
		log.Warn().Msg("redis not configured, keeping sessions in memory")
		store = session.NewMemoryStore(10 * time.Minute)
	}

	sessions := session.NewManager(store, session.NewCodec(cfg.Session.Secret), session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})

	m := metrics.New("clinic")

	mailer := email.Async(email.NewService(cfg.Mail), func(msg email.Message, err error) {
		m.NotificationFailed()
		log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("failed to send notification")
	})

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	feedbackRepo := postgres.NewFeedbackRepository(db)

	// Initialize services
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	userSvc := userService.NewService(userRepo, hasher)
	doctorSvc := doctorService.NewService(doctorRepo, userRepo, feedbackRepo)
	authSvc := authService.NewService(userRepo, hasher, cfg.Admin.BootstrapUsername, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, userRepo, mailer, m)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
	}

	views, err := templates.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	// Setup router
	r := router.NewRouter(
		router.RouterConfig{
			Mode:         cfg.Server.Mode,
			CSRFEnabled:  cfg.Security.CSRFEnabled,
			TLS:          cfg.Session.Secure,
			MaxBodyBytes: cfg.Security.MaxBodyBytes,
		},
		views,
		sessions,
		userSvc,
		m,
		health.NewHandler(db, sessionCheck, m.Handler()),
		home.NewHandler(),
		authHandler.NewHandler(authSvc, limiter),
		doctorHandler.NewHandler(doctorSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		account.NewHandler(userSvc),
		admin.NewHandler(doctorSvc, userSvc, appointmentSvc, admin.Contact{
			Email: cfg.Admin.Email,
			Phone: cfg.Admin.Contact,
		}),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
