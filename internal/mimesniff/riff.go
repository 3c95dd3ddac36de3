package mimesniff

// detectRIFF inspects a RIFF container's form type (bytes 8-11) to
// distinguish WebP/WAV/AVI. It assumes the caller already verified bytes
// 0-3 are "RIFF" and len(chunk) >= 12.
func detectRIFF(chunk []byte) (mime, ext string, ok bool) {
	form := string(chunk[8:12])
	switch form {
	case "WEBP":
		return "image/webp", "webp", true
	case "WAVE":
		return "audio/wav", "wav", true
	case "AVI ":
		return "video/x-msvideo", "avi", true
	}
	return "", "", false
}
