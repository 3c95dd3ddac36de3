// Package engine is the Storage Engine: streaming upload with
// simultaneous hashing and MIME identification, atomic placement on a
// partitioned directory tree, metadata commit to the catalog, and
// conditional-disposition download, per spec.md §4.4-§4.6.
package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blobsvc/blobsvc/internal/catalog"
)

// Engine wires the catalog Store, a logger, and the Config together. It
// takes its dependencies at construction time rather than reaching for
// globals, per spec.md §9's dependency-injection note.
type Engine struct {
	store catalog.Store
	log   *slog.Logger
	cfg   Config
}

// New ensures cfg.RootPath exists and returns a ready Engine.
func New(store catalog.Store, log *slog.Logger, cfg Config) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(cfg.RootPath, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create root path: %w", err)
	}

	e := &Engine{store: store, log: log, cfg: cfg}

	for _, b := range cfg.DefaultBuckets {
		if _, err := store.EnsureBucket(context.Background(), b); err != nil {
			log.Warn("failed to ensure default bucket", "bucket", b, "error", err)
		}
	}
	return e, nil
}

// Close is a no-op today; kept so callers can defer it without caring
// whether the Engine ever grows a resource that needs releasing.
func (e *Engine) Close() error {
	return nil
}

func hexDigest(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// cleanupEmptyDirs removes dir and any now-empty ancestor directories up
// to but excluding root, the way the teacher's storage.cleanupEmptyDirs
// walks back up a tree it just orphaned.
func cleanupEmptyDirs(dir, root string) {
	current := dir
	for {
		rel, err := filepath.Rel(root, current)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return
		}
		entries, err := os.ReadDir(current)
		if err != nil {
			return
		}
		if len(entries) > 0 {
			return
		}
		if err := os.Remove(current); err != nil {
			return
		}
		current = filepath.Dir(current)
	}
}
