// Package docid builds and parses DocIds and the deterministic filesystem
// paths derived from them.
package docid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed is returned when a DocId cannot be parsed.
var ErrMalformed = errors.New("docid: malformed")

// Generate returns a fresh "{year}-{uuid4}" DocId. If year is 0, the
// current UTC year is used.
func Generate(year int) string {
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	return fmt.Sprintf("%d-%s", year, uuid.New().String())
}

// Year extracts the year component of a DocId. It rejects any string
// without a "-" after the year digits.
func Year(docID string) (int, error) {
	idx := strings.IndexByte(docID, '-')
	if idx <= 0 {
		return 0, ErrMalformed
	}
	year, err := strconv.Atoi(docID[:idx])
	if err != nil {
		return 0, ErrMalformed
	}
	return year, nil
}

// uuidSuffix returns the uuid4 portion of a DocId (everything after the
// first "-", i.e. the canonical lowercase UUID string).
func uuidSuffix(docID string) (string, error) {
	idx := strings.IndexByte(docID, '-')
	if idx <= 0 || idx+1 >= len(docID) {
		return "", ErrMalformed
	}
	return docID[idx+1:], nil
}

// shardPrefixes returns (b1, b2): the first two and next two lowercase hex
// characters of the UUID with hyphens removed.
func shardPrefixes(docID string) (string, string, error) {
	suffix, err := uuidSuffix(docID)
	if err != nil {
		return "", "", err
	}
	hex := strings.ReplaceAll(strings.ToLower(suffix), "-", "")
	if len(hex) < 4 {
		return "", "", ErrMalformed
	}
	return hex[0:2], hex[2:4], nil
}

// Dir returns the directory "{root}/{year}/{b1}/{b2}/{docId}" for docID.
func Dir(root, docID string) (string, error) {
	year, err := Year(docID)
	if err != nil {
		return "", err
	}
	b1, b2, err := shardPrefixes(docID)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, strconv.Itoa(year), b1, b2, docID), nil
}

// BlobPath returns "{dir}/blob.{ext}" for docID, with any leading "." in
// ext stripped.
func BlobPath(root, docID, ext string) (string, error) {
	dir, err := Dir(root, docID)
	if err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(ext, ".")
	return filepath.Join(dir, "blob."+ext), nil
}

// TempPath returns "{dir}/blob.tmp" for docID.
func TempPath(root, docID string) (string, error) {
	dir, err := Dir(root, docID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blob.tmp"), nil
}
