package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/applyhawk/applyhawk/internal/store"
)

var pruneOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the answer cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached answers older than a cutoff",
	Long:  "Removes stale entries from the answer cache so outdated answers are regenerated on the next ask.",
	RunE:  runCachePrune,
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "age beyond which cached answers are deleted")

	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		logger.Error("failed to open answer store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	if err := sqlStore.Cleanup(pruneOlderThan); err != nil {
		logger.Error("failed to prune answer cache", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Pruned cached answers older than %v from %s\n", pruneOlderThan, cfg.StorePath)
	return nil
}
