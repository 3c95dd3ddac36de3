package mimesniff

import "bytes"

// magicSignature is a fixed hex-prefix signature mapped to a MIME type and
// canonical extension. Signatures are tried longest-first so a more
// specific match always wins over a shorter, more general prefix.
type magicSignature struct {
	prefix []byte
	mime   string
	ext    string
}

var magicSignatures = []magicSignature{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png", "png"},
	{[]byte("GIF87a"), "image/gif", "gif"},
	{[]byte("GIF89a"), "image/gif", "gif"},
	{[]byte("\xFF\xD8\xFF"), "image/jpeg", "jpg"},
	{[]byte("%PDF-"), "application/pdf", "pdf"},
	{[]byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"), "application/x-ole-compound", "ole"},
	{[]byte("PK\x03\x04"), "application/zip", "zip"},
	{[]byte("PK\x05\x06"), "application/zip", "zip"},
	{[]byte("PK\x07\x08"), "application/zip", "zip"},
	{[]byte("\x1F\x8B"), "application/gzip", "gz"},
	{[]byte("BM"), "image/bmp", "bmp"},
	{[]byte("7z\xBC\xAF\x27\x1C"), "application/x-7z-compressed", "7z"},
	{[]byte("Rar!\x1A\x07\x00"), "application/x-rar-compressed", "rar"},
	{[]byte("Rar!\x1A\x07\x01\x00"), "application/x-rar-compressed", "rar"},
	{[]byte("\x7FELF"), "application/x-elf", "elf"},
	{[]byte("MZ"), "application/x-msdownload", "exe"},
	{[]byte("#!"), "text/x-shellscript", "sh"},
	{[]byte("<?xml"), "application/xml", "xml"},
	{[]byte("<!DOCTYPE html"), "text/html", "html"},
	{[]byte("<!doctype html"), "text/html", "html"},
	{[]byte("<html"), "text/html", "html"},
	{[]byte("<HTML"), "text/html", "html"},
	{[]byte("\x00\x00\x01\x00"), "image/x-icon", "ico"},
	{[]byte("fLaC"), "audio/flac", "flac"},
	{[]byte("ID3"), "audio/mpeg", "mp3"},
}

func init() {
	// Longer signatures are attempted before shorter ones to avoid
	// ambiguity (e.g. "PK\x05\x06" must not shadow a longer future match).
	sortSignaturesByLengthDesc(magicSignatures)
}

func sortSignaturesByLengthDesc(sigs []magicSignature) {
	for i := 1; i < len(sigs); i++ {
		for j := i; j > 0 && len(sigs[j-1].prefix) < len(sigs[j].prefix); j-- {
			sigs[j-1], sigs[j] = sigs[j], sigs[j-1]
		}
	}
}

// matchMagic returns the first (longest-prefix-first) magic signature
// match for chunk, or ok=false if none match.
func matchMagic(chunk []byte) (magicSignature, bool) {
	for _, sig := range magicSignatures {
		if len(chunk) >= len(sig.prefix) && bytes.HasPrefix(chunk, sig.prefix) {
			return sig, true
		}
	}
	return magicSignature{}, false
}
