package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minewatch/minewatch-api/internal/config"
	"github.com/minewatch/minewatch-api/internal/pkg/database"
	"github.com/minewatch/minewatch-api/internal/pkg/logger"
	"github.com/minewatch/minewatch-api/internal/pkg/storage"
)

var (
	withSchema bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "provision-bucket",
	Short: "Create the report photo bucket and, optionally, the database schema",
	Long: `Creates the photo bucket with a public-read policy when it does not exist yet.
With --schema it also creates the database tables. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	rootCmd.Flags().BoolVar(&withSchema, "schema", false, "also create the database schema")
	rootCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	if !cfg.UseS3() {
		log.Warn().Str("driver", cfg.StorageDriver).Msg("STORAGE_DRIVER is not s3, nothing to provision for photos")
	} else {
		store, err := storage.NewS3Storage(ctx, storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			S3Bucket:    cfg.S3Bucket,
			PublicURL:   cfg.S3PublicURL,
		})
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
		log.Info().
			Str("bucket", store.Bucket()).
			Str("sample_url", store.GetURL("reports/example.jpg")).
			Msg("Bucket ready")
	}

	if !withSchema {
		return nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.ClosePostgres(db)

	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("Schema ready")
	return nil
}
