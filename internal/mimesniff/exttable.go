package mimesniff

import "strings"

// extToMime and mimeToExt form the known mime<->extension table consulted
// by the claimed-type and extension resolution steps.
var extToMime = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"ico":  "image/x-icon",
	"svg":  "image/svg+xml",
	"txt":  "text/plain",
	"csv":  "text/csv",
	"html": "text/html",
	"htm":  "text/html",
	"xml":  "application/xml",
	"json": "application/json",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"7z":   "application/x-7z-compressed",
	"rar":  "application/x-rar-compressed",
	"tar":  "application/x-tar",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"doc":  "application/msword",
	"xls":  "application/vnd.ms-excel",
	"ppt":  "application/vnd.ms-powerpoint",
	"msg":  "application/vnd.ms-outlook",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"exe":  "application/x-msdownload",
	"elf":  "application/x-elf",
	"sh":   "text/x-shellscript",
	"bat":  "application/x-bat",
	"js":   "text/javascript",
	"bin":  "application/octet-stream",
}

var mimeToExt = func() map[string]string {
	m := make(map[string]string, len(extToMime))
	for ext, mime := range extToMime {
		if _, exists := m[mime]; !exists {
			m[mime] = ext
		}
	}
	return m
}()

// dangerousMimes is the set of detected types that force attachment
// disposition when mismatched against a claimed type.
var dangerousMimes = map[string]bool{
	"application/x-msdownload":  true,
	"application/x-elf":         true,
	"text/x-shellscript":        true,
	"application/x-bat":         true,
	"text/html":                 true,
	"text/javascript":           true,
	"application/javascript":    true,
	"application/x-dosexec":     true,
	"application/vnd.microsoft.portable-executable": true,
}

// lookupClaimed returns (ext, ok) for a claimed MIME type present in the
// known table, case-insensitively.
func lookupClaimed(claimed string) (string, bool) {
	ext, ok := mimeToExt[strings.ToLower(strings.TrimSpace(claimed))]
	return ext, ok
}

// lookupExtension returns (mime, ok) for a filename extension (without
// leading dot), case-insensitively.
func lookupExtension(ext string) (string, bool) {
	mime, ok := extToMime[strings.ToLower(ext)]
	return mime, ok
}

func isDangerous(mime string) bool {
	return dangerousMimes[strings.ToLower(mime)]
}
