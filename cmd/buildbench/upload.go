package main

import (
	"context"
	"fmt"

	"github.com/buildbench/buildbench/pkg/config"
	"github.com/buildbench/buildbench/pkg/upload"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload the results database to remote storage",
	Long: `Upload the local sqlite results database to S3-compatible storage
using the config file settings, so runs from different hosts can be
compared in one place.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if cfg.Upload == nil || cfg.Upload.S3 == nil || !cfg.Upload.S3.Enabled {
		return fmt.Errorf("S3 upload is not configured or not enabled in config")
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf(
			"upload requires the sqlite driver; %q databases are already shared",
			cfg.Database.Driver)
	}

	uploader, err := upload.NewS3Uploader(log, cfg.Upload.S3)
	if err != nil {
		return fmt.Errorf("creating S3 uploader: %w", err)
	}

	ctx := context.Background()

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("preflight check: %w", err)
	}

	log.WithField("database", cfg.Database.SQLite.Path).
		Info("Uploading results database")

	if err := uploader.UploadFile(ctx, cfg.Database.SQLite.Path); err != nil {
		return fmt.Errorf("uploading database: %w", err)
	}

	return nil
}
