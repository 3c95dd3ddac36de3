package hasher_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"testing"

	"github.com/blobsvc/blobsvc/internal/hasher"
)

func TestComputeDeterministic(t *testing.T) {
	b := []byte("the quick brown fox jumps over the lazy dog")
	a := hasher.Compute(b)
	c := hasher.Compute(b)
	if a != c {
		t.Fatalf("Compute is not deterministic: %x != %x", a, c)
	}
	want := sha256.Sum256(b)
	if a != want {
		t.Fatalf("Compute = %x, want %x", a, want)
	}
}

func TestCopyAndHashMatchesCompute(t *testing.T) {
	b := bytes.Repeat([]byte("abc123"), 10000)
	var out bytes.Buffer
	n, digest, err := hasher.CopyAndHash(context.Background(), &out, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("CopyAndHash: %v", err)
	}
	if n != int64(len(b)) {
		t.Fatalf("wrote %d bytes, want %d", n, len(b))
	}
	if !bytes.Equal(out.Bytes(), b) {
		t.Fatalf("copied bytes do not match source")
	}
	if want := hasher.Compute(b); digest != want {
		t.Fatalf("CopyAndHash digest = %x, want %x", digest, want)
	}
}

func TestCopyAndHashHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, _, err := hasher.CopyAndHash(ctx, &out, bytes.NewReader([]byte("data")))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestStreamingUpdateMatchesCompute(t *testing.T) {
	parts := [][]byte{[]byte("hello "), []byte("world"), []byte("!")}
	h := hasher.New()
	var all []byte
	for _, p := range parts {
		h.Update(p)
		all = append(all, p...)
	}
	if got, want := h.Finalize(), hasher.Compute(all); got != want {
		t.Fatalf("streaming digest = %x, want %x", got, want)
	}
}
