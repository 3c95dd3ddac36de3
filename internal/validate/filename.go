package validate

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// maxFilenameBytes is the maximum UTF-8-encoded length of an object key.
const maxFilenameBytes = 1024

// Filename validates an object key: UTF-8 length <= 1024 bytes, no control
// characters, no backslash, characters restricted to [A-Za-z0-9._\-/], no
// leading/trailing "/", no "//".
func Filename(name string) Result {
	if name == "" {
		return fail("filename must not be empty")
	}
	if !utf8.ValidString(name) {
		return fail("filename must be valid UTF-8")
	}
	if len(name) > maxFilenameBytes {
		return fail("filename must not exceed 1024 bytes")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fail("filename must not start or end with a slash")
	}
	if strings.Contains(name, "//") {
		return fail("filename must not contain consecutive slashes")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x1F || c == 0x7F {
			return fail("filename must not contain control characters")
		}
		if c == '\\' || c == 0x00 {
			return fail("filename must not contain a backslash or NUL")
		}
		if !isFilenameChar(c) {
			return fail("filename contains a disallowed character")
		}
	}
	return ok()
}

func isFilenameChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-' || c == '/':
		return true
	}
	return false
}

// Normalize percent-decodes name once. It must be called before Filename
// validation, per spec: the HTTP surface normalizes the path segment
// before validating it.
func Normalize(name string) (string, error) {
	return url.PathUnescape(name)
}
