// Package worker implements the Migration Worker state machine of
// spec.md §4.9/§4.10: seed, enrich, migrate, report.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/blobsvc/blobsvc/internal/legacy"
	"github.com/blobsvc/blobsvc/internal/migrate/logstore"
	"github.com/blobsvc/blobsvc/internal/migrate/uploadclient"
)

// Config holds everything one worker invocation needs beyond the
// collaborators passed to New.
type Config struct {
	Year           int
	DocumentsTable string
	ContentTable   string
	TargetBucket   string
	BatchSize      int
	MaxParallelism int
	MaxRetries     int
	WorkerToken    string
}

// Worker drives a single migration run end to end. It depends only on
// the narrow legacy.DocumentStore/legacy.ContentStore interfaces plus
// the concrete migration log and upload client, so it never touches
// internal/engine directly — the same separation the Upload Client
// enforces at the HTTP boundary.
type Worker struct {
	log     *logstore.Store
	docs    legacy.DocumentStore
	content legacy.ContentStore
	upload  *uploadclient.Client
	logger  *slog.Logger
	cfg     Config
}

// New builds a Worker.
func New(store *logstore.Store, documents legacy.DocumentStore, content legacy.ContentStore, client *uploadclient.Client, logger *slog.Logger, cfg Config) *Worker {
	return &Worker{
		log:     store,
		docs:    documents,
		content: content,
		upload:  client,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run executes phases 1-6 of spec.md §4.9 sequentially. ctx
// cancellation stops the Migrate loop cleanly after in-flight
// documents finish; Seed/Enrich/Report always run to completion once
// started.
func (w *Worker) Run(ctx context.Context) (logstore.Counts, error) {
	if _, err := w.upload.EnsureBucketExists(ctx, w.cfg.TargetBucket); err != nil {
		return logstore.Counts{}, fmt.Errorf("worker: ensure bucket: %w", err)
	}

	if err := w.Seed(ctx); err != nil {
		return logstore.Counts{}, err
	}
	if err := w.Enrich(ctx); err != nil {
		return logstore.Counts{}, err
	}
	if err := w.Migrate(ctx); err != nil {
		return logstore.Counts{}, err
	}
	return w.Report(ctx)
}

// Seed enumerates the legacy content database's distinct ContentIds
// and bulk-inserts the ones not already logged for this year, per
// spec.md §4.9 step 3.
func (w *Worker) Seed(ctx context.Context) error {
	ids, err := w.content.ListContentIDs(ctx, w.cfg.ContentTable, w.cfg.Year)
	if err != nil {
		return fmt.Errorf("worker: seed: list content ids: %w", err)
	}
	inserted, err := w.log.SeedMissing(ctx, w.cfg.Year, ids)
	if err != nil {
		return fmt.Errorf("worker: seed: %w", err)
	}
	w.logger.Info("seed complete", "year", w.cfg.Year, "candidates", len(ids), "inserted", inserted)
	return nil
}

// Enrich fills in legacy document metadata for every Seeded row, per
// spec.md §4.9 step 4.
func (w *Worker) Enrich(ctx context.Context) error {
	rows, err := w.log.SeededForYear(ctx, w.cfg.Year)
	if err != nil {
		return fmt.Errorf("worker: enrich: list seeded: %w", err)
	}

	var enriched, skipped int
	for _, row := range rows {
		meta, ok, err := w.docs.GetByContentID(ctx, w.cfg.DocumentsTable, row.SourceDocumentID)
		if err != nil {
			return fmt.Errorf("worker: enrich: lookup %s: %w", row.SourceDocumentID, err)
		}
		if !ok {
			if err := w.log.MarkSkipped(ctx, row.ID, "no metadata found"); err != nil {
				return fmt.Errorf("worker: enrich: mark skipped: %w", err)
			}
			skipped++
			continue
		}
		ext := strings.TrimPrefix(meta.OriginalExtension, ".")
		if err := w.log.MarkEnriched(ctx, row.ID, meta.OriginalFilename, ext, meta.ClaimedContentType, meta.FileSize, meta.RecordDate); err != nil {
			return fmt.Errorf("worker: enrich: mark enriched: %w", err)
		}
		enriched++
	}
	w.logger.Info("enrich complete", "year", w.cfg.Year, "enriched", enriched, "skipped", skipped)
	return nil
}

// Migrate runs the batch-selection loop of spec.md §4.9 step 5 until
// an empty batch is returned or ctx is cancelled.
func (w *Worker) Migrate(ctx context.Context) error {
	var completed, failed, skipped int64
	parallelism := int64(w.cfg.MaxParallelism)
	if parallelism < 1 {
		parallelism = 1
	}

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("migrate loop stopping on cancellation")
			return nil
		}

		batch, err := w.log.SelectBatch(ctx, w.cfg.Year, w.cfg.WorkerToken, w.cfg.BatchSize, w.cfg.MaxRetries)
		if err != nil {
			return fmt.Errorf("worker: migrate: select batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		sem := semaphore.NewWeighted(parallelism)
		done := make(chan struct{})
		var wg int64 = int64(len(batch))
		for _, row := range batch {
			row := row
			if err := sem.Acquire(ctx, 1); err != nil {
				if atomic.AddInt64(&wg, -1) == 0 {
					close(done)
				}
				continue
			}
			go func() {
				defer sem.Release(1)
				defer func() {
					if atomic.AddInt64(&wg, -1) == 0 {
						close(done)
					}
				}()
				out, err := w.ProcessDocument(ctx, row)
				if err != nil {
					w.logger.Error("process document failed unexpectedly", "sourceDocumentId", row.SourceDocumentID, "error", err)
					return
				}
				switch out {
				case outcomeCompleted:
					atomic.AddInt64(&completed, 1)
				case outcomeFailed:
					atomic.AddInt64(&failed, 1)
				case outcomeSkipped:
					atomic.AddInt64(&skipped, 1)
				}
			}()
		}
		<-done
	}

	w.logger.Info("migrate complete", "completed", completed, "failed", failed, "skipped", skipped)
	return nil
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeFailed
	outcomeSkipped
)

// ProcessDocument runs the per-row lifecycle of spec.md §4.10.
func (w *Worker) ProcessDocument(ctx context.Context, row logstore.Entry) (outcome, error) {
	if row.WorkerToken == "" && w.cfg.WorkerToken != "" {
		if err := w.log.ClaimWorkerToken(ctx, row.ID, w.cfg.WorkerToken); err != nil {
			return outcomeFailed, err
		}
	}
	if err := w.log.MarkInProgress(ctx, row.ID); err != nil {
		return outcomeFailed, err
	}

	data, ok, err := w.content.GetContent(ctx, w.cfg.ContentTable, row.SourceDocumentID)
	if err != nil {
		return w.fail(ctx, row.ID, err.Error()), nil
	}
	if !ok {
		if err := w.log.MarkSkipped(ctx, row.ID, "No content found"); err != nil {
			return outcomeFailed, err
		}
		return outcomeSkipped, nil
	}

	targetFilename := buildTargetFilename(row.SourceDocumentID, row.OriginalFilename, row.OriginalExtension)

	result, err := w.upload.Upload(ctx, w.cfg.TargetBucket, targetFilename, bytes.NewReader(data), row.ClaimedContentType, w.cfg.Year)
	if err != nil {
		return w.fail(ctx, row.ID, err.Error()), nil
	}
	if !result.Success {
		return w.fail(ctx, row.ID, result.ErrorMessage), nil
	}

	if err := w.log.MarkCompleted(ctx, row.ID, result.DocID, w.cfg.TargetBucket, targetFilename, result.SHA256Hex, result.DetectedContentType); err != nil {
		return outcomeFailed, err
	}
	return outcomeCompleted, nil
}

func (w *Worker) fail(ctx context.Context, id int64, message string) outcome {
	if err := w.log.MarkFailed(ctx, id, message); err != nil {
		w.logger.Error("failed to record failure", "id", id, "error", err)
	}
	return outcomeFailed
}

// buildTargetFilename reproduces spec.md §4.10 step 3:
// "{contentId}/{originalFilename ?? contentId}{.originalExtension?}".
func buildTargetFilename(contentID, originalFilename, originalExtension string) string {
	base := originalFilename
	if base == "" {
		base = contentID
	}
	var b strings.Builder
	b.WriteString(contentID)
	b.WriteByte('/')
	b.WriteString(base)
	if originalExtension != "" {
		b.WriteByte('.')
		b.WriteString(originalExtension)
	}
	return b.String()
}

// Report runs phase 6 standalone, grouping by status for this year
// and worker token. Exposed separately so cmd/migrate can offer it as
// its own subcommand, per SPEC_FULL.md's supplemented features.
func (w *Worker) Report(ctx context.Context) (logstore.Counts, error) {
	counts, err := w.log.Report(ctx, w.cfg.Year, w.cfg.WorkerToken, w.cfg.MaxRetries)
	if err != nil {
		return logstore.Counts{}, fmt.Errorf("worker: report: %w", err)
	}
	w.logger.Info("report", "year", w.cfg.Year, "byStatus", counts.ByStatus, "failedExhausted", counts.FailedExhausted)
	return counts, nil
}
