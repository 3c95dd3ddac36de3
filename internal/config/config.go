// Package config loads the flag/env-based configuration structs for the
// daemon and the migrator, per spec.md §6's Configuration sections.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/blobsvc/blobsvc/internal/engine"
)

// DaemonConfig is the process-level configuration for cmd/blobsvcd,
// wrapping the engine.Config it builds plus the HTTP bind address and
// the catalog database path.
type DaemonConfig struct {
	Addr       string
	CatalogDSN string
	Engine     engine.Config
}

// LoadDaemonConfig parses flags (falling back to BLOBSVC_-prefixed
// environment variables for defaults) into a DaemonConfig.
func LoadDaemonConfig(args []string) (DaemonConfig, error) {
	fs := flag.NewFlagSet("blobsvcd", flag.ContinueOnError)

	addr := fs.String("addr", envOrDefault("BLOBSVC_ADDR", ":8080"), "HTTP bind address")
	rootPath := fs.String("root", envOrDefault("BLOBSVC_ROOT", "./data/blobs"), "blob storage root directory")
	catalogDSN := fs.String("catalog", envOrDefault("BLOBSVC_CATALOG_DSN", "./data/catalog.db"), "catalog sqlite database path")
	maxUploadBytes := fs.Int64("max-upload-bytes", envOrDefaultInt64("BLOBSVC_MAX_UPLOAD_BYTES", 1<<30), "maximum accepted upload size in bytes")
	uploadBufferSize := fs.Int("upload-buffer-size", envOrDefaultInt("BLOBSVC_UPLOAD_BUFFER_SIZE", 64*1024), "streaming copy buffer size in bytes")
	firstChunkSize := fs.Int("first-chunk-size", envOrDefaultInt("BLOBSVC_FIRST_CHUNK_SIZE", 64*1024), "bytes buffered for MIME identification")
	allowedExtensions := fs.String("allowed-extensions", envOrDefault("BLOBSVC_ALLOWED_EXTENSIONS", ""), "comma-separated allow-list of accepted extensions (empty allows all)")
	inlineContentTypes := fs.String("inline-content-types", envOrDefault("BLOBSVC_INLINE_CONTENT_TYPES", "text/plain,image/png,image/jpeg,image/gif,application/pdf"), "comma-separated list of content types served inline")
	defaultBuckets := fs.String("default-buckets", envOrDefault("BLOBSVC_DEFAULT_BUCKETS", ""), "comma-separated list of buckets to ensure at startup")

	if err := fs.Parse(args); err != nil {
		return DaemonConfig{}, err
	}

	return DaemonConfig{
		Addr:       *addr,
		CatalogDSN: *catalogDSN,
		Engine: engine.Config{
			RootPath:           *rootPath,
			MaxUploadBytes:     *maxUploadBytes,
			UploadBufferSize:   *uploadBufferSize,
			FirstChunkSize:     *firstChunkSize,
			AllowedExtensions:  splitNonEmpty(*allowedExtensions),
			InlineContentTypes: splitNonEmpty(*inlineContentTypes),
			DefaultBuckets:     splitNonEmpty(*defaultBuckets),
		},
	}, nil
}

// MigrationConfig is the migrator's configuration, per spec.md §6.
type MigrationConfig struct {
	SourceConnectionString      string
	ContentConnectionString     string
	MigrationDbConnectionString string
	TargetAPIBaseURL            string
	Year                        int
	DocumentsTable              string
	ContentTable                string
	TargetBucket                string
	BatchSize                   int
	MaxParallelism              int
	MaxRetries                  int
	WorkerToken                 string
}

// LoadMigrationConfig parses flags (falling back to BLOBSVC_MIGRATE_-
// prefixed environment variables for defaults) into a MigrationConfig.
func LoadMigrationConfig(fs *flag.FlagSet, args []string) (MigrationConfig, error) {
	source := fs.String("source-dsn", envOrDefault("BLOBSVC_MIGRATE_SOURCE_DSN", ""), "legacy document-metadata database connection string")
	content := fs.String("content-dsn", envOrDefault("BLOBSVC_MIGRATE_CONTENT_DSN", ""), "legacy per-year content database connection string")
	migrationDB := fs.String("log-dsn", envOrDefault("BLOBSVC_MIGRATE_LOG_DSN", "./data/migration.db"), "migration log sqlite database path")
	targetURL := fs.String("target-url", envOrDefault("BLOBSVC_MIGRATE_TARGET_URL", "http://localhost:8080"), "Storage Engine base URL")
	year := fs.Int("year", envOrDefaultInt("BLOBSVC_MIGRATE_YEAR", 0), "legacy year partition to migrate")
	documentsTable := fs.String("documents-table", envOrDefault("BLOBSVC_MIGRATE_DOCUMENTS_TABLE", "Documents"), "legacy documents table name")
	contentTable := fs.String("content-table", envOrDefault("BLOBSVC_MIGRATE_CONTENT_TABLE", "Content"), "legacy content table name")
	targetBucket := fs.String("target-bucket", envOrDefault("BLOBSVC_MIGRATE_TARGET_BUCKET", "migrated"), "destination bucket name")
	batchSize := fs.Int("batch-size", envOrDefaultInt("BLOBSVC_MIGRATE_BATCH_SIZE", 100), "rows claimed per batch")
	maxParallelism := fs.Int("max-parallelism", envOrDefaultInt("BLOBSVC_MIGRATE_MAX_PARALLELISM", 4), "concurrent ProcessDocument workers")
	maxRetries := fs.Int("max-retries", envOrDefaultInt("BLOBSVC_MIGRATE_MAX_RETRIES", 3), "failed attempts after which a Failed row is no longer retried")
	workerToken := fs.String("worker-token", envOrDefault("BLOBSVC_MIGRATE_WORKER_TOKEN", ""), "shard key claimed by this worker process")

	if err := fs.Parse(args); err != nil {
		return MigrationConfig{}, err
	}

	return MigrationConfig{
		SourceConnectionString:      *source,
		ContentConnectionString:     *content,
		MigrationDbConnectionString: *migrationDB,
		TargetAPIBaseURL:            *targetURL,
		Year:                        *year,
		DocumentsTable:              *documentsTable,
		ContentTable:                *contentTable,
		TargetBucket:                *targetBucket,
		BatchSize:                   *batchSize,
		MaxParallelism:              *maxParallelism,
		MaxRetries:                  *maxRetries,
		WorkerToken:                 *workerToken,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
