package main

import (
	"fmt"
	"os"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dataDir string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Offline index builder for the Spanish movie search",
	Long: `indexer turns the movie catalog into the artifacts served by the API:
the metadata table, the embedding matrix and the vector index.

Example usage:
  indexer build              # Resolve providers, encode and write artifacts
  indexer reindex            # Rebuild the vector index from saved embeddings
  indexer publish            # Upload artifacts to object storage`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appLogger := logger.New(&logger.Config{
			Level:       os.Getenv("LOG_LEVEL"),
			Format:      "text",
			Output:      os.Stderr,
			ServiceName: "buscador-semantico-indexer",
		})
		logger.SetDefaultLogger(appLogger)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDir != "" {
			cfg.Data.Dir = dataDir
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "artifact directory (overrides data.dir)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
