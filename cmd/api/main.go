package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/minewatch/minewatch-api/internal/config"
	"github.com/minewatch/minewatch-api/internal/domain/auth"
	"github.com/minewatch/minewatch-api/internal/domain/report"
	"github.com/minewatch/minewatch-api/internal/domain/user"
	"github.com/minewatch/minewatch-api/internal/pkg/database"
	"github.com/minewatch/minewatch-api/internal/pkg/email"
	"github.com/minewatch/minewatch-api/internal/pkg/imaging"
	"github.com/minewatch/minewatch-api/internal/pkg/jwt"
	"github.com/minewatch/minewatch-api/internal/pkg/logger"
	"github.com/minewatch/minewatch-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting MineWatch API")

	if cfg.IsProduction() && cfg.JWTSecret == config.DefaultJWTSecret {
		log.Fatal().Msg("JWT_SECRET must be set in production")
	}

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Storage ----------
	store, uploadDir := setupStorage(ctx, cfg)
	processor := imaging.NewProcessor(imaging.DefaultConfig())
	photos := report.NewPhotoUploader(store, processor, cfg.MaxUploadBytes)

	// ---------- Email ----------
	var mailer *email.Service
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewService(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		})
		defer mailer.Close()
	} else {
		log.Warn().Msg("SendGrid not configured, sign-in codes will be logged")
	}

	// ---------- Live feed ----------
	hub := report.NewHub(redis, cfg.AllowedOrigins)
	go hub.Run()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	reportRepo := report.NewRepository(db)

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, authStore(redis), codeSender(mailer, cfg.IsDevelopment()), auth.Config{
		CodeTTL:       cfg.SignInCodeTTL,
		Cooldown:      cfg.SignInCodeCooldown,
		DefaultRegion: cfg.DefaultPhoneRegion,
	})

	reportService := report.NewService(reportRepo, report.NewQueryCache(redis, cfg.ReportCacheTTL), photos, hub, cfg.MaxUploadBytes)
	if mailer != nil {
		reportService.SetStatusNotifier(userRepo, mailer)
	}

	// ---------- Handlers ----------
	router := newRouter(routerDeps{
		allowedOrigins: cfg.AllowedOrigins,
		jwt:            jwtService,
		auth:           auth.NewHandler(authService),
		reports:        report.NewHandler(reportService, hub, cfg.MaxUploadBytes),
		uploadDir:      uploadDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}

// setupStorage returns the photo store and, for local storage, the directory to serve
func setupStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string) {
	if cfg.UseS3() {
		s3Store, err := storage.NewS3Storage(ctx, storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
			PublicURL:   cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", s3Store.Bucket()).Msg("Failed to provision photo bucket")
		}
		log.Info().Str("bucket", s3Store.Bucket()).Msg("Storing report photos in S3")
		return s3Store, ""
	}

	local, err := storage.NewLocalStorage(cfg.LocalUploadDir, cfg.LocalUploadURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create local storage")
	}
	log.Info().Str("dir", local.BasePath()).Msg("Storing report photos on local disk")
	return local, local.BasePath()
}

func authStore(client *goredis.Client) auth.Store {
	if client == nil {
		log.Warn().Msg("Sign-in codes kept in memory; they will not survive a restart")
		return auth.NewMemoryStore()
	}
	return auth.NewRedisStore(client)
}

func codeSender(mailer *email.Service, development bool) auth.CodeSender {
	if !development {
		log.Warn().Msg("Sign-in codes without a delivery provider will be rejected")
	}
	if mailer == nil {
		return auth.NewChannelSender(nil, development)
	}
	return auth.NewChannelSender(mailer, development)
}
