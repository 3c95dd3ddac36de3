// Package hasher implements the incremental SHA-256 digest used while
// streaming an upload to disk.
package hasher

import (
	"context"
	"crypto/sha256"
	"hash"
	"io"
)

// Hasher wraps an incremental SHA-256 state with a streaming API.
type Hasher struct {
	h hash.Hash
}

// New returns a fresh Hasher.
func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Update folds b into the running digest. It never returns an error; it
// satisfies io.Writer so a Hasher can sit inside an io.MultiWriter next to
// the destination file, the way the teacher's object.go does with
// crypto/sha256 directly.
func (hh *Hasher) Update(b []byte) (int, error) {
	return hh.h.Write(b)
}

// Write implements io.Writer.
func (hh *Hasher) Write(b []byte) (int, error) {
	return hh.Update(b)
}

// Finalize returns the 32-byte SHA-256 digest of everything written so
// far. It does not reset the internal state; callers construct a new
// Hasher per logical stream.
func (hh *Hasher) Finalize() [32]byte {
	var out [32]byte
	copy(out[:], hh.h.Sum(nil))
	return out
}

// Compute is the synchronous convenience for a full byte slice.
func Compute(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// CopyAndHash streams r into w while computing its SHA-256 digest,
// checking ctx between reads so cancellation is honored mid-stream. It
// returns the total byte count and digest.
func CopyAndHash(ctx context.Context, w io.Writer, r io.Reader) (int64, [32]byte, error) {
	hh := New()
	var written int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return written, hh.Finalize(), err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, hh.Finalize(), werr
			}
			if _, herr := hh.Update(buf[:n]); herr != nil {
				return written, hh.Finalize(), herr
			}
			written += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, hh.Finalize(), rerr
		}
	}
	return written, hh.Finalize(), nil
}
