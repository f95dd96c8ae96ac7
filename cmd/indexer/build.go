package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/spf13/cobra"
)

var noProgress bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build metadata, embeddings and vector index",
	Long: `Build loads the augmented metadata (or the raw IMDb dataset), resolves
streaming providers through TMDB with a persistent cache, encodes every
composite text and writes the three artifacts atomically.

Requires TMDB_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if cfg.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB_API_KEY is not set")
	}

	embedding, err := service.NewEmbeddingLoader(&cfg.Embedding).Load()
	if err != nil {
		return fmt.Errorf("failed to load embedding encoder: %w", err)
	}

	builder := service.NewIndexBuilder(
		service.NewTMDBService(&cfg.TMDB),
		embedding,
		&service.IndexBuilderConfig{
			Data:         cfg.Data,
			BatchSize:    cfg.Embedding.BatchSize,
			RequestDelay: cfg.TMDB.RequestDelay,
		},
	)

	ctx, stop := signalContext()
	defer stop()

	var obs *service.BuildObserver
	if !noProgress {
		obs = newProgressObserver()
	}

	stats, err := builder.Build(ctx, obs)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printStats(cmd, stats, &cfg.Data)
	return nil
}

func printStats(cmd *cobra.Command, stats *service.BuildStats, data *config.DataConfig) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBuild complete (%s):\n", stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond))
	fmt.Fprintf(out, "  Source:          %s\n", stats.SourceID)
	fmt.Fprintf(out, "  Entries:         %d\n", stats.Entries)
	fmt.Fprintf(out, "  Dimensions:      %d\n", stats.Dimensions)
	fmt.Fprintf(out, "  Cache hits:      %d\n", stats.CacheHits)
	fmt.Fprintf(out, "  Lookups:         %d (%d failed)\n", stats.Lookups, stats.LookupFailures)
	fmt.Fprintf(out, "\nArtifacts written to %s\n", data.Dir)
}

// signalContext cancels on SIGINT/SIGTERM. Provider lookups already made
// stay in the cache, so an interrupted build resumes where it stopped.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
