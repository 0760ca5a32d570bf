// Package cmd wires the CLI: flag parsing, configuration, logging, and
// the scan and retry commands that drive the pipeline.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"aniscan/internal/anime"
	"aniscan/internal/config"
	"aniscan/internal/pipeline"
)

// CLI represents the complete command structure for the aniscan application
type CLI struct {
	// Global flags
	Records   string `help:"Path to JSON records output file" default:"anime_series_data.json"`
	ErrorURLs string `help:"Path to failed-URL list (retry input)" default:"aniscan_errors.txt"`
	ErrorLog  string `help:"Path to append-only classified error log" default:"aniscan_errors.log"`
	TMDBKey   string `help:"TMDB API key (overrides config file and TMDB_API_KEY env)"`
	Verbose   bool   `short:"v" help:"Enable debug logging"`

	// Datasette flags
	Datasette   bool   `help:"Enable SQLite output for Datasette" default:"true"`
	DatasetteDB string `help:"Path to SQLite database file" default:"./aniscan.db"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Scan  ScanCmd  `cmd:"" help:"Sweep a contiguous identifier range"`
	Retry RetryCmd `cmd:"" help:"Re-run the identifiers from a saved error URL list"`
}

// ScanCmd sweeps the identifier range [lo, hi).
type ScanCmd struct {
	Lo int `help:"First identifier of the range (inclusive)" required:""`
	Hi int `help:"End of the range (exclusive)" required:""`

	FetchWorkers  int           `help:"Concurrent fetch workers" default:"30"`
	EnrichWorkers int           `help:"Concurrent metadata lookups" default:"10"`
	BatchSize     int           `help:"Identifiers per batch" default:"100"`
	Rate          int           `help:"Site requests per second" default:"10"`
	FetchTimeout  time.Duration `help:"Timeout for a single fetch attempt" default:"10s"`
	Attempts      int           `help:"Total fetch attempts per identifier" default:"3"`
	NoCache       bool          `help:"Bypass the TMDB response cache"`
}

// RetryCmd re-processes identifiers recovered from a failed-URL list.
type RetryCmd struct {
	Input string `short:"f" help:"Path to failed-URL list from a previous run" default:"aniscan_errors.txt"`

	FetchWorkers  int           `help:"Concurrent fetch workers" default:"30"`
	EnrichWorkers int           `help:"Concurrent metadata lookups" default:"10"`
	BatchSize     int           `help:"Identifiers per batch" default:"100"`
	Rate          int           `help:"Site requests per second" default:"10"`
	FetchTimeout  time.Duration `help:"Timeout for a single fetch attempt" default:"10s"`
	Attempts      int           `help:"Total fetch attempts per identifier" default:"3"`
	NoCache       bool          `help:"Bypass the TMDB response cache"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(false)
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("aniscan"),
		kong.Description("Sweep a range of title identifiers, extract episode ranges, and enrich them with TMDB metadata."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)
	if cli.Verbose {
		initLogging(true)
	}

	err := ctx.Run(&cli)
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Datasette defaults
	viper.SetDefault("datasette.enabled", true)
	viper.SetDefault("datasette.dbfile", "./aniscan.db")
	viper.SetDefault("datasette.remote", "")
	viper.SetDefault("datasette.token", "")

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("TMDBAPIKey", "TMDB_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
		// No config file is fine; flags and env cover everything.
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	config.SetTMDBAPIKey(cli.TMDBKey)

	viper.Set("datasette.enabled", cli.Datasette)
	viper.Set("datasette.dbfile", cli.DatasetteDB)

	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run executes a range sweep.
func (s *ScanCmd) Run(cli *CLI) error {
	ids, err := pipeline.IdentifierRange(s.Lo, s.Hi)
	if err != nil {
		return err
	}

	return runPipeline(cli, ids, runOptions{
		FetchWorkers:  s.FetchWorkers,
		EnrichWorkers: s.EnrichWorkers,
		BatchSize:     s.BatchSize,
		Rate:          s.Rate,
		FetchTimeout:  s.FetchTimeout,
		Attempts:      s.Attempts,
		NoCache:       s.NoCache,
	})
}

// Run executes a retry pass over a saved failed-URL list.
func (r *RetryCmd) Run(cli *CLI) error {
	data, err := os.ReadFile(r.Input)
	if err != nil {
		return fmt.Errorf("failed to read retry input: %w", err)
	}

	ids, err := identifiersFromURLList(string(data))
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		slog.Info("Retry list is empty, nothing to do", "input", r.Input)
		return nil
	}

	return runPipeline(cli, ids, runOptions{
		FetchWorkers:  r.FetchWorkers,
		EnrichWorkers: r.EnrichWorkers,
		BatchSize:     r.BatchSize,
		Rate:          r.Rate,
		FetchTimeout:  r.FetchTimeout,
		Attempts:      r.Attempts,
		NoCache:       r.NoCache,
	})
}

func identifiersFromURLList(data string) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)
	for _, line := range splitLines(data) {
		if line == "" {
			continue
		}
		id, err := anime.IDFromURL(line)
		if err != nil {
			slog.Warn("Skipping unparseable retry line", "line", line, "error", err)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
