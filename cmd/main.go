package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agromind-server/config"
	_ "agromind-server/docs"
	"agromind-server/internal/handler"
	"agromind-server/internal/metrics"
	"agromind-server/internal/notifier"
	"agromind-server/internal/ports"
	"agromind-server/internal/repository"
	"agromind-server/internal/security"
	"agromind-server/internal/service"
	"agromind-server/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title AgroMind auth API
// @version 1.0
// @description Registration, JWT login with refresh tokens, revocation, user feedback and device credentials

// @host localhost:8000

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", util.Err(err))
		os.Exit(1)
	}

	log := util.NewLogger(cfg.Env, cfg.LogLevel)
	log.Info("starting agromind-server", slog.String("addr", cfg.Server.Address))

	db, err := config.SetupDatabase(&cfg.DatabaseConfig)
	if err != nil {
		log.Error("failed to connect to database", util.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", util.Err(err))
		}
	}()

	if !cfg.DatabaseConfig.SkipMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Error("failed to apply schema", util.Err(err))
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	userRepo := repository.NewUserRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	revocationRepo := repository.NewRevocationRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	var ledger ports.RevocationLedger = revocationRepo
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			log.Error("failed to connect to redis", util.Err(err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis", util.Err(err))
			}
		}()
		ledger = repository.NewRevocationCache(revocationRepo, redisClient, m, log)
		log.Info("revocation cache enabled", slog.String("redis", cfg.RedisConfig.Addr))
	}

	var storage ports.AttachmentStorage
	if cfg.S3Config.Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, &cfg.S3Config, log)
		if err != nil {
			log.Error("failed to create s3 service", util.Err(err))
			os.Exit(1)
		}
		storage = s3Service
	}

	var events ports.Notifier = notifier.Noop{}
	if cfg.Broker.URL != "" {
		rabbit, err := notifier.NewRabbitMQNotifier(&cfg.Broker)
		if err != nil {
			log.Error("failed to connect to broker", util.Err(err))
			os.Exit(1)
		}
		defer rabbit.Close()
		events = rabbit
	}

	codec, err := security.NewTokenCodec(&cfg.JWT)
	if err != nil {
		log.Error("failed to create token codec", util.Err(err))
		os.Exit(1)
	}
	hasher, err := security.NewPasswordHasher(cfg.JWT.BcryptCost)
	if err != nil {
		log.Error("failed to create password hasher", util.Err(err))
		os.Exit(1)
	}

	authService := service.NewAuthenticationService(service.AuthenticationDeps{
		DB:                  db,
		Users:               userRepo,
		Ledger:              ledger,
		Codec:               codec,
		Hasher:              hasher,
		Notifier:            events,
		Metrics:             m,
		Log:                 log,
		RotateRefreshTokens: cfg.JWT.RotateRefreshTokens,
	})
	userService := service.NewUserService(db, userRepo, feedbackRepo, storage, hasher, events, log)
	feedbackService := service.NewFeedbackService(db, feedbackRepo, storage, cfg.S3Config.PresignTTL, log)
	deviceService := service.NewDeviceService(db, deviceRepo, log)

	guard := security.NewAccessGuard(codec, ledger, userService, log)
	authMiddleware := security.JWTMiddleware(guard, m, log)

	sweeper := service.NewRevocationSweeper(ledger, cfg.Revocation.SweepInterval, cfg.Revocation.Retention, log)
	go sweeper.Run(ctx)

	authHandler := handler.NewAuthenticationHandler(authService, log)
	userHandler := handler.NewUserHandler(userService, log)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, log)
	deviceHandler := handler.NewDeviceHandler(deviceService, log)
	healthHandler := handler.NewHealthHandler(db, log)

	srv, router := config.SetupServer(&cfg.Server)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(handler.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(m.Middleware)

	router.Get("/health", healthHandler.Health)
	router.Handle("/metrics", metrics.Handler(registry))
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler)
	setupUserRoutes(router, userHandler, authMiddleware)
	setupFeedbackRoutes(router, feedbackHandler, authMiddleware)
	setupDeviceRoutes(router, deviceHandler, authMiddleware)

	runServer(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler, auth func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", h.ListUsers)
		r.Get("/me", h.Me)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Put("/", h.UpdateUser)
			r.Delete("/", h.DeleteUser)
			r.Put("/password", h.UpdatePassword)
		})
	})
}

func setupFeedbackRoutes(r chi.Router, h *handler.FeedbackHandler, auth func(http.Handler) http.Handler) {
	r.Route("/feedback", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", h.ListFeedback)
		r.Post("/", h.SubmitFeedback)
	})
}

// setupDeviceRoutes : /devices/me authenticates by device credential, the rest by user JWT
func setupDeviceRoutes(r chi.Router, h *handler.DeviceHandler, auth func(http.Handler) http.Handler) {
	r.Route("/devices", func(r chi.Router) {
		r.Get("/me", h.DeviceMe)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/register", h.RegisterDevice)
			r.Post("/provision/{device_id}", h.ProvisionDevice)
		})
	})
}

func runServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log *slog.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", util.Err(err))
			return
		}
	case sig := <-signalChannel:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Error("failed to stop server", util.Err(err))
	} else {
		log.Info("server stopped")
	}
}
