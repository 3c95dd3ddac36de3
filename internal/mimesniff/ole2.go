package mimesniff

import (
	"path/filepath"
	"strings"
)

// ole2ByExtension maps a legacy-Office filename extension to the (mime,
// ext) it identifies when the magic bytes are the Compound Document
// signature.
var ole2ByExtension = map[string]struct {
	mime string
	ext  string
}{
	".doc": {"application/msword", "doc"},
	".xls": {"application/vnd.ms-excel", "xls"},
	".ppt": {"application/vnd.ms-powerpoint", "ppt"},
	".msg": {"application/vnd.ms-outlook", "msg"},
}

// refineOLE2 rewrites (mime, ext) to the Office type matching filename's
// extension, if filename has one of .doc/.xls/.ppt/.msg.
func refineOLE2(filename, mime, ext string) (string, string) {
	e := strings.ToLower(filepath.Ext(filename))
	if m, ok := ole2ByExtension[e]; ok {
		return m.mime, m.ext
	}
	return mime, ext
}
