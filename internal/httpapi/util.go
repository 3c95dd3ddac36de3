package httpapi

import (
	"encoding/hex"
	"net/http"
	"strconv"
)

func hexDigest(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
