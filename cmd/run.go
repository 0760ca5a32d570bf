package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"aniscan/internal/anime"
	"aniscan/internal/config"
	"aniscan/internal/datastore"
	"aniscan/internal/export"
	"aniscan/internal/pipeline"
	"aniscan/internal/tmdb"
)

// runOptions carries the per-command pipeline knobs.
type runOptions struct {
	FetchWorkers  int
	EnrichWorkers int
	BatchSize     int
	Rate          int
	FetchTimeout  time.Duration
	Attempts      int
	NoCache       bool
}

// runPipeline assembles the collaborators, output writers, and engine
// for one run, then drives the identifier list through it.
func runPipeline(cli *CLI, ids []int, opts runOptions) error {
	if config.TMDBAPIKey == "" {
		return errors.New("TMDB API key is required (provide via --tmdb-key flag, TMDB_API_KEY env, or TMDBAPIKey in config)")
	}

	recordWriter, err := export.NewRecordWriter[pipeline.Record](cli.Records)
	if err != nil {
		return err
	}

	errorWriter, err := export.NewErrorWriter(cli.ErrorURLs, cli.ErrorLog)
	if err != nil {
		return err
	}
	defer func() { _ = errorWriter.Close() }()

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer func() {
		for _, store := range stores {
			_ = store.Close()
		}
	}()

	siteClient := anime.NewClient(anime.WithBaseURL(config.SiteBaseURL))

	resolverOpts := []tmdb.ResolverOption{}
	if opts.NoCache {
		resolverOpts = append(resolverOpts, tmdb.WithoutCache())
	}
	if config.FetchIMDBIDs {
		resolverOpts = append(resolverOpts, tmdb.WithIMDBIDs())
	}
	resolver := tmdb.NewResolver(tmdb.NewClient(config.TMDBAPIKey), resolverOpts...)

	cfg := pipeline.Config{
		FetchWorkers:      opts.FetchWorkers,
		EnrichWorkers:     opts.EnrichWorkers,
		BatchSize:         opts.BatchSize,
		FetchAttempts:     opts.Attempts,
		FetchTimeout:      opts.FetchTimeout,
		RequestsPerSecond: opts.Rate,
		StartSerial:       recordWriter.Count(),
	}

	sink := func(records []pipeline.Record, errs []pipeline.ErrorEntry) error {
		if err := recordWriter.Append(records); err != nil {
			return err
		}
		if err := errorWriter.Append(errs); err != nil {
			return err
		}
		if len(records) > 0 {
			resolved := make([]string, 0, len(records))
			for _, rec := range records {
				resolved = append(resolved, siteClient.URL(rec.Identifier))
			}
			if err := errorWriter.Resolve(resolved); err != nil {
				return err
			}
		}
		for _, store := range stores {
			if err := store.BatchInsert("aniscan", "series", datastore.RecordRows(records)); err != nil {
				return fmt.Errorf("datastore insert failed: %w", err)
			}
			if err := store.BatchInsert("aniscan", "scan_errors", datastore.ErrorRows(errs)); err != nil {
				return fmt.Errorf("datastore insert failed: %w", err)
			}
		}
		return nil
	}

	engine, err := pipeline.New(cfg, siteClient, anime.Parser{}, resolver,
		pipeline.WithBatchSink(sink),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting run",
		"identifiers", len(ids),
		"fetch_workers", cfg.FetchWorkers,
		"enrich_workers", cfg.EnrichWorkers,
		"batch_size", cfg.BatchSize)

	result, runErr := engine.Run(ctx, ids)
	if result != nil {
		fmt.Println(renderSummary(result.Summary))
		slog.Info("Run finished",
			"attempted", result.Summary.Attempted,
			"records", result.Summary.Succeeded,
			"degraded", result.Summary.Degraded,
			"failed", result.Summary.TotalFailed())
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			slog.Warn("Run cancelled; partial output has been persisted")
		}
		return runErr
	}
	return nil
}

// openStores returns the configured result stores: local SQLite when
// Datasette output is enabled, plus a remote Datasette instance when
// one is configured.
func openStores() ([]datastore.Store, error) {
	var stores []datastore.Store

	if viper.GetBool("datasette.enabled") {
		store := datastore.NewSQLiteStore(viper.GetString("datasette.dbfile"))
		if err := store.Connect(); err != nil {
			return nil, err
		}
		for _, schema := range []string{datastore.SeriesSchema, datastore.ScanErrorsSchema} {
			if err := store.CreateTable(schema); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		stores = append(stores, store)
	}

	if remote := viper.GetString("datasette.remote"); remote != "" {
		client := datastore.NewDatasetteClient(remote, viper.GetString("datasette.token"))
		if err := client.Connect(); err != nil {
			for _, store := range stores {
				_ = store.Close()
			}
			return nil, err
		}
		stores = append(stores, client)
	}

	return stores, nil
}

func splitLines(data string) []string {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
