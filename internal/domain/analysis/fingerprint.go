package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
)

// ContentHash returns the hex sha256 of raw source content (image bytes).
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint derives the deterministic cache/dedup key for a request.
// It covers the source content hash, query, viewport, model, and the
// context map with sorted keys, so two structurally identical requests
// always collide and any differing field changes the key.
func Fingerprint(contentHash string, req Request) string {
	h := sha256.New()
	writeField(h, contentHash)
	writeField(h, req.Query)
	writeField(h, req.Viewport)
	writeField(h, req.Model)

	keys := make([]string, 0, len(req.Context))
	for k := range req.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(h, k)
		writeField(h, req.Context[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-free field with a NUL terminator so adjacent
// fields cannot alias ("ab"+"c" vs "a"+"bc").
func writeField(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
	_, _ = w.Write([]byte{0})
}
