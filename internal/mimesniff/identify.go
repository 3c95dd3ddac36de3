package mimesniff

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Identify resolves the content type and extension of an object from its
// leading chunk bytes, optional filename, and optional claimed content
// type, following the order: magic bytes, ZIP/OLE2/RIFF refinement,
// claimed type, extension, text heuristic, fallback.
func Identify(chunk []byte, filename, claimedContentType string) Result {
	mime, ext, method, _ := resolve(chunk, filename, claimedContentType)

	res := Result{
		DetectedContentType: mime,
		DetectedExtension:   ext,
		Method:              method,
	}

	claimed := strings.TrimSpace(claimedContentType)
	if claimed != "" && !strings.EqualFold(claimed, mime) {
		res.IsMismatch = true
		if isDangerous(mime) {
			res.IsDangerousMismatch = true
		}
	}
	return res
}

func resolve(chunk []byte, filename, claimedContentType string) (mime, ext string, method Method, matched bool) {
	// 1. Magic bytes.
	if sig, ok := matchMagic(chunk); ok {
		mime, ext, method, matched = sig.mime, sig.ext, MethodMagic, true

		// 2. ZIP refinement.
		if mime == "application/zip" && len(chunk) >= 30 {
			mime, ext = refineZip(chunk, mime, ext)
		}

		// 3. OLE2 refinement.
		if mime == "application/x-ole-compound" && filename != "" {
			mime, ext = refineOLE2(filename, mime, ext)
		}
		return mime, ext, method, matched
	}

	// 4. RIFF detection.
	if len(chunk) >= 12 && bytes.HasPrefix(chunk, []byte("RIFF")) {
		if m, e, ok := detectRIFF(chunk); ok {
			return m, e, MethodMagic, true
		}
	}

	// 5. Claimed type.
	if claimedContentType != "" {
		if e, ok := lookupClaimed(claimedContentType); ok {
			return strings.ToLower(strings.TrimSpace(claimedContentType)), e, MethodHeader, true
		}
	}

	// 6. Extension.
	if filename != "" {
		fileExt := strings.TrimPrefix(filepath.Ext(filename), ".")
		if fileExt != "" {
			if m, ok := lookupExtension(fileExt); ok {
				return m, strings.ToLower(fileExt), MethodExtension, true
			}
		}
	}

	// 7. Text heuristic.
	if looksLikeText(chunk) {
		return "text/plain", "txt", MethodHeuristic, true
	}

	// 8. Fallback.
	return "application/octet-stream", "bin", MethodFallback, false
}
