// Package cache provides content hashing and the sidecar-based asset cache
// keys used to decide whether a generated asset is still current.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StableJSON encodes v deterministically: sorted keys, no insignificant
// whitespace. Used everywhere a hash of structured data is needed.
func StableJSON(v any) (string, error) {
	// encoding/json сортирует ключи map автоматически; для структур порядок
	// полей фиксирован объявлением, этого достаточно для стабильного хэша.
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SHA256Text returns the hex sha256 of a string.
func SHA256Text(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ContentHash is an algorithm-tagged digest.
type ContentHash struct {
	Algo  string `json:"algo"`
	Value string `json:"value"`
}

// Short returns the first n hex chars of the digest.
func (h ContentHash) Short(n int) string {
	if n > len(h.Value) {
		n = len(h.Value)
	}
	return h.Value[:n]
}

// HashValue hashes any JSON-encodable value.
func HashValue(v any) (ContentHash, error) {
	text, err := StableJSON(v)
	if err != nil {
		return ContentHash{}, err
	}
	return ContentHash{Algo: "sha256", Value: SHA256Text(text)}, nil
}

// FileSHA256 streams a file through sha256.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AssetCacheKey derives the 16-hex-char cache key for one generated asset.
// Any input that changes the output image must be part of the key.
func AssetCacheKey(assetType, assetID, resolvedPrompt string, width, height int, providerID string) string {
	keyData := fmt.Sprintf("%s:%s:%dx%d:%s:%s", assetType, assetID, width, height, providerID, resolvedPrompt)
	return SHA256Text(keyData)[:16]
}

// SidecarPath returns the provenance sidecar path for an asset file.
func SidecarPath(assetPath string) string {
	return assetPath + ".json"
}

// ReadSidecarCacheKey reads the cache_key recorded in an asset's sidecar.
// Returns "" when the sidecar is absent or unreadable.
func ReadSidecarCacheKey(assetPath string) string {
	data, err := os.ReadFile(SidecarPath(assetPath))
	if err != nil {
		return ""
	}
	var payload struct {
		CacheKey string `json:"cache_key"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.CacheKey
}

// Check reports whether the asset at path exists and its sidecar records the
// given cache key.
func Check(cacheKey, assetPath string) bool {
	if _, err := os.Stat(assetPath); err != nil {
		return false
	}
	return ReadSidecarCacheKey(assetPath) == cacheKey
}
