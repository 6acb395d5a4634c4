package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lcrespin/towerstats/internal/config"
	"github.com/lcrespin/towerstats/internal/feed"
	"github.com/lcrespin/towerstats/internal/pipeline"
	"github.com/lcrespin/towerstats/internal/storage"
)

var (
	configPath string
	feedURL    string
	feedFile   string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "towerstats",
	Short: "Game session leaderboards",
	Long: `Fetch the shared game session log, reconcile it (midnight stitching and
win counter correction) and compute leaderboards, win percentages, ELO
ratings and kill analytics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		log.SetLevel(lvl)
		log.SetOutput(os.Stderr)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "path to YAML config (default $"+config.EnvConfig+")")
	pf.StringVar(&feedURL, "feed-url", "", "CSV feed URL (default from config or $"+config.EnvFeedURL+")")
	pf.StringVar(&feedFile, "file", "", "read the feed from a local CSV snapshot (.csv, .gz, .zst) instead of HTTP")
	pf.StringVar(&dbPath, "db", storage.MemoryPath, "SQLite database for the session snapshot")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(winrateCmd)
	rootCmd.AddCommand(eloCmd)
	rootCmd.AddCommand(killsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig reads the config file and applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if feedURL != "" {
		cfg.Feed.URL = feedURL
	}
	return cfg, nil
}

// newSource picks the local file when --file is set, HTTP otherwise.
func newSource(cfg *config.Config) feed.Source {
	if feedFile != "" {
		return feed.FileSource{Path: feedFile}
	}
	return feed.NewHTTPSource(cfg.Feed.URL, cfg.Feed.Timeout)
}

// loadDataset runs one fetch-build-reconcile cycle.
func loadDataset(ctx context.Context) (*pipeline.Dataset, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ds, err := pipeline.Load(ctx, newSource(cfg), cfg)
	if err != nil {
		return nil, nil, err
	}
	return ds, cfg, nil
}
