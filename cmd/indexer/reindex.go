package main

import (
	"fmt"

	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the saved embedding matrix",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reindex never encodes or looks anything up.
		builder := service.NewIndexBuilder(nil, nil, &service.IndexBuilderConfig{Data: cfg.Data})

		ctx, stop := signalContext()
		defer stop()

		stats, err := builder.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Vector index rebuilt: %d vectors, %d dimensions -> %s\n",
			stats.Entries, stats.Dimensions, cfg.Data.IndexPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
