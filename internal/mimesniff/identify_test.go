package mimesniff_test

import (
	"testing"

	"github.com/blobsvc/blobsvc/internal/mimesniff"
)

func TestIdentifyMagicPDF(t *testing.T) {
	chunk := []byte("%PDF-1.4\n...rest of the document...")
	res := mimesniff.Identify(chunk, "report.pdf", "")
	if res.DetectedContentType != "application/pdf" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if res.DetectedExtension != "pdf" {
		t.Fatalf("DetectedExtension = %q", res.DetectedExtension)
	}
	if res.Method != mimesniff.MethodMagic {
		t.Fatalf("Method = %q", res.Method)
	}
	if res.IsMismatch {
		t.Fatal("expected no mismatch")
	}
}

func TestIdentifyDangerousMismatch(t *testing.T) {
	chunk := []byte("\x4D\x5A\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xFF\xFF\x00\x00")
	res := mimesniff.Identify(chunk, "x.pdf", "application/pdf")
	if res.DetectedContentType != "application/x-msdownload" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if !res.IsMismatch {
		t.Fatal("expected mismatch")
	}
	if !res.IsDangerousMismatch {
		t.Fatal("expected dangerous mismatch")
	}
}

func TestIdentifyClaimedTypeNoMismatch(t *testing.T) {
	chunk := []byte("\x4D\x5A\x90\x00")
	res := mimesniff.Identify(chunk, "x.exe", "application/x-msdownload")
	if res.IsMismatch {
		t.Fatal("expected no mismatch when claimed matches detected")
	}
}

func TestIdentifyExtensionFallback(t *testing.T) {
	chunk := []byte{0x01, 0x02, 0x03, 0x04}
	res := mimesniff.Identify(chunk, "archive.zip", "")
	// no ZIP magic present, so extension table should kick in
	if res.DetectedContentType != "application/zip" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if res.Method != mimesniff.MethodExtension {
		t.Fatalf("Method = %q", res.Method)
	}
}

func TestIdentifyTextHeuristic(t *testing.T) {
	chunk := []byte("line one\nline two\njust plain ascii text here\n")
	res := mimesniff.Identify(chunk, "", "")
	if res.DetectedContentType != "text/plain" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if res.Method != mimesniff.MethodHeuristic {
		t.Fatalf("Method = %q", res.Method)
	}
}

func TestIdentifyFallback(t *testing.T) {
	chunk := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0xFF, 0xFE, 0x00, 0x10, 0x20}
	res := mimesniff.Identify(chunk, "", "")
	if res.DetectedContentType != "application/octet-stream" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if res.Method != mimesniff.MethodFallback {
		t.Fatalf("Method = %q", res.Method)
	}
}

func TestIdentifyRIFFWebp(t *testing.T) {
	chunk := append([]byte("RIFF"), []byte{0x00, 0x00, 0x00, 0x00}...)
	chunk = append(chunk, []byte("WEBP")...)
	res := mimesniff.Identify(chunk, "", "")
	if res.DetectedContentType != "image/webp" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
}

func TestIdentifyOLE2RefinesByExtension(t *testing.T) {
	chunk := []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1restofthefile")
	res := mimesniff.Identify(chunk, "legacy.doc", "")
	if res.DetectedContentType != "application/msword" {
		t.Fatalf("DetectedContentType = %q", res.DetectedContentType)
	}
	if res.DetectedExtension != "doc" {
		t.Fatalf("DetectedExtension = %q", res.DetectedExtension)
	}
}

func TestIdentifyZipRefinesToDocx(t *testing.T) {
	chunk := buildZipChunkWithEntry("word/document.xml")
	res := mimesniff.Identify(chunk, "file.docx", "")
	if res.DetectedExtension != "docx" {
		t.Fatalf("DetectedExtension = %q, want docx", res.DetectedExtension)
	}
}

// buildZipChunkWithEntry constructs a minimal local-file-header-only ZIP
// chunk containing a single entry name, enough for refineZip to find it.
func buildZipChunkWithEntry(name string) []byte {
	header := []byte{
		'P', 'K', 0x03, 0x04, // local file header signature
		0x14, 0x00, // version needed
		0x00, 0x00, // flags
		0x00, 0x00, // compression method
		0x00, 0x00, // mod time
		0x00, 0x00, // mod date
		0x00, 0x00, 0x00, 0x00, // crc32
		0x00, 0x00, 0x00, 0x00, // compressed size
		0x00, 0x00, 0x00, 0x00, // uncompressed size
		byte(len(name)), 0x00, // name length
		0x00, 0x00, // extra length
	}
	return append(header, []byte(name)...)
}
