package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/backup"
	"firesafety-backend/internal/config"
	"firesafety-backend/internal/database"
	"firesafety-backend/internal/handlers"
	"firesafety-backend/internal/logger"
	"firesafety-backend/internal/middleware"
	"firesafety-backend/internal/services"
	"firesafety-backend/internal/storage"
	"firesafety-backend/internal/websocket"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup("firesafety-backend", "info", "console")
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}
	logger.Setup("firesafety-backend", cfg.LogLevel, cfg.LogFormat)

	log.Info().Msg("═══════════════════════════════════════════════════════════════════")
	log.Info().Str("env", string(cfg.Environment)).Msg("🚀 FIRE SAFETY BACKEND STARTING")
	log.Info().Msg("═══════════════════════════════════════════════════════════════════")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ database connection failed")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ database migrations failed")
	}
	log.Info().Msg("✅ database migrations completed")

	slot := storage.NewSQLSlot(db)
	store := storage.NewStore(slot, storage.WithSessionWindow(cfg.SessionWindow))
	defer store.Close()

	data, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to load snapshot")
	}
	if data == nil {
		log.Warn().Msg("⚠️  stored snapshot is unreadable, serving with no data until an import")
	} else {
		log.Info().
			Int("customers", len(data.Customers)).
			Int("extinguishers", len(data.Extinguishers)).
			Int("records", len(data.Records)).
			Msg("📂 snapshot loaded")
	}

	var analyzer services.AnalysisService
	if cfg.GeminiAPIKey != "" {
		analyzer = services.WithFallback(services.NewGeminiAnalyzer(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiModel))
		log.Info().Str("model", cfg.GeminiModel).Msg("🤖 note analysis enabled")
	} else {
		log.Warn().Msg("⚠️  FIRESAFE_GEMINI_API_KEY not set, inspections get the fallback analysis")
	}

	var notifier services.Notifier
	fcm, err := services.NewFCMService(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseCredentialsBase64)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("⚠️  FCM unavailable, inspection alerts disabled")
	case fcm == nil:
		log.Info().Msg("🔕 Firebase credentials not set, inspection alerts disabled")
	default:
		notifier = fcm
	}

	backups := backup.NewService(store)
	go backup.NewScheduler(backups, cfg.BackupTick).Run(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	events, unsubscribe := store.Subscribe()
	defer unsubscribe()
	go hub.Forward(ctx, events)

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateEvery)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Cleanup(30 * time.Minute); n > 0 {
					log.Debug().Int("removed", n).Msg("🧹 dropped idle login limiters")
				}
			}
		}
	}()

	router := handlers.NewRouter(handlers.Deps{
		Store:          store,
		Tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.SessionWindow),
		Credentials:    auth.NewCredentialStore(slot),
		Analyzer:       analyzer,
		Notifier:       notifier,
		Backup:         backups,
		Hub:            hub,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🌐 server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ graceful shutdown failed")
	}
	log.Info().Msg("👋 server stopped")
}
