package main

import (
	"fmt"

	"github.com/Lukita-it/buscador-semantico/internal/storage"
	"github.com/spf13/cobra"
)

var ensureBucket bool

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the built artifacts to object storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// publishing is an explicit request for storage
		cfg.Storage.Enabled = true
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		ctx, stop := signalContext()
		defer stop()

		if ensureBucket {
			if s3, ok := store.(*storage.S3Storage); ok {
				if err := s3.EnsureBucket(ctx); err != nil {
					return err
				}
			}
		}

		artifactSync := storage.NewArtifactSync(store, cfg.Storage.Prefix)
		n, err := artifactSync.Publish(ctx, storage.BuildArtifacts(&cfg.Data))
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %d artifacts to s3://%s/%s\n", n, cfg.Storage.Bucket, cfg.Storage.Prefix)
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&ensureBucket, "ensure-bucket", false, "create the bucket when it does not exist")
	rootCmd.AddCommand(publishCmd)
}
