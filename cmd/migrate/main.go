package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blobsvc/blobsvc/internal/config"
	"github.com/blobsvc/blobsvc/internal/legacy"
	"github.com/blobsvc/blobsvc/internal/migrate/logstore"
	"github.com/blobsvc/blobsvc/internal/migrate/uploadclient"
	"github.com/blobsvc/blobsvc/internal/migrate/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy document storage into the Storage Engine",
	}

	newFlags := func(name string) *flag.FlagSet {
		return flag.NewFlagSet(name, flag.ContinueOnError)
	}

	buildWorker := func(args []string) (*worker.Worker, func(), error) {
		fs := newFlags("migrate")
		cfg, err := config.LoadMigrationConfig(fs, args)
		if err != nil {
			return nil, nil, fmt.Errorf("parse config: %w", err)
		}
		if cfg.Year == 0 {
			return nil, nil, fmt.Errorf("-year is required")
		}

		logDB, err := logstore.Open(cfg.MigrationDbConnectionString)
		if err != nil {
			return nil, nil, err
		}

		documents, err := legacy.OpenSQLDocumentStore("sqlite", cfg.SourceConnectionString)
		if err != nil {
			logDB.Close()
			return nil, nil, err
		}
		content, err := legacy.OpenSQLContentStore("sqlite", cfg.ContentConnectionString)
		if err != nil {
			logDB.Close()
			documents.Close()
			return nil, nil, err
		}

		client := uploadclient.New(cfg.TargetAPIBaseURL, logger)

		w := worker.New(logDB, documents, content, client, logger, worker.Config{
			Year:           cfg.Year,
			DocumentsTable: cfg.DocumentsTable,
			ContentTable:   cfg.ContentTable,
			TargetBucket:   cfg.TargetBucket,
			BatchSize:      cfg.BatchSize,
			MaxParallelism: cfg.MaxParallelism,
			MaxRetries:     cfg.MaxRetries,
			WorkerToken:    cfg.WorkerToken,
		})
		cleanup := func() {
			logDB.Close()
			documents.Close()
			content.Close()
		}
		return w, cleanup, nil
	}

	cancellableContext := func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			logger.Info("cancellation requested, finishing in-flight documents")
			cancel()
		}()
		return ctx, cancel
	}

	runCmd := &cobra.Command{
		Use:                "run",
		Short:              "Run the full seed/enrich/migrate/report pipeline",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cleanup, err := buildWorker(args)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := cancellableContext()
			defer cancel()
			counts, err := w.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("run complete", "byStatus", counts.ByStatus, "failedExhausted", counts.FailedExhausted)
			return nil
		},
	}

	seedCmd := &cobra.Command{
		Use:                "seed",
		Short:              "Seed the migration log from the legacy content database",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cleanup, err := buildWorker(args)
			if err != nil {
				return err
			}
			defer cleanup()
			return w.Seed(context.Background())
		},
	}

	enrichCmd := &cobra.Command{
		Use:                "enrich",
		Short:              "Enrich Seeded rows with legacy document metadata",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cleanup, err := buildWorker(args)
			if err != nil {
				return err
			}
			defer cleanup()
			return w.Enrich(context.Background())
		},
	}

	migrateCmd := &cobra.Command{
		Use:                "migrate",
		Short:              "Migrate Pending/retryable Failed rows to the Storage Engine",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cleanup, err := buildWorker(args)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, cancel := cancellableContext()
			defer cancel()
			return w.Migrate(ctx)
		},
	}

	reportCmd := &cobra.Command{
		Use:                "report",
		Short:              "Report migration log counts for a year without migrating",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cleanup, err := buildWorker(args)
			if err != nil {
				return err
			}
			defer cleanup()
			counts, err := w.Report(context.Background())
			if err != nil {
				return err
			}
			fmt.Println("status counts:")
			for status, n := range counts.ByStatus {
				fmt.Printf("  %-12s %d\n", status, n)
			}
			fmt.Printf("failed (retries exhausted): %d\n", counts.FailedExhausted)
			return nil
		},
	}

	root.AddCommand(runCmd, seedCmd, enrichCmd, migrateCmd, reportCmd)

	if err := root.Execute(); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}
