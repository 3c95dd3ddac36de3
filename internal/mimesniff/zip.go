package mimesniff

import (
	"bytes"
	"encoding/binary"
)

// ooxmlByEntryPrefix maps a ZIP entry name prefix to the OOXML (mime, ext)
// it identifies.
var ooxmlByEntryPrefix = []struct {
	prefix string
	mime   string
	ext    string
}{
	{"word/", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
	{"xl/", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	{"ppt/", "application/vnd.openxmlformats-officedocument.presentationml.presentation", "pptx"},
}

// refineZip scans the local file headers in the (possibly partial) ZIP
// chunk and, if an entry name starts with word/, xl/, or ppt/, rewrites
// (mime, ext) to the corresponding OOXML type. Central-directory records
// are not read. Parsing errors are swallowed: the caller keeps the plain
// ZIP result.
func refineZip(chunk []byte, mime, ext string) (string, string) {
	if len(chunk) < 30 {
		return mime, ext
	}

	// A full ZIP may carry its central directory anywhere, but for the
	// partial first-chunk we only have what we were given; scan local
	// file headers ("PK\x03\x04") within the chunk for entry names, which
	// is sufficient to recognize OOXML container layouts from a prefix
	// read.
	offset := 0
	for {
		idx := bytes.Index(chunk[offset:], []byte("PK\x03\x04"))
		if idx < 0 {
			break
		}
		start := offset + idx
		if start+30 > len(chunk) {
			break
		}
		nameLen := int(binary.LittleEndian.Uint16(chunk[start+26 : start+28]))
		extraLen := int(binary.LittleEndian.Uint16(chunk[start+28 : start+30]))
		nameStart := start + 30
		nameEnd := nameStart + nameLen
		if nameEnd > len(chunk) {
			break
		}
		name := string(chunk[nameStart:nameEnd])
		for _, candidate := range ooxmlByEntryPrefix {
			if len(name) >= len(candidate.prefix) && name[:len(candidate.prefix)] == candidate.prefix {
				return candidate.mime, candidate.ext
			}
		}
		offset = nameEnd + extraLen
		if offset >= len(chunk) {
			break
		}
	}
	return mime, ext
}
