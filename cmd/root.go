package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geopost/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geopost",
	Short: "Collect posts and map where they came from",
	Long:  "Streams search results, resolves each post to a coordinate from its embedded geography or its author location, and writes CSV, GeoJSON, shapefile and spreadsheet outputs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
