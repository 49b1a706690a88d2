// Package provenance records how every artifact of an episode build was
// produced: per-asset sidecars, append-only event logs and the final
// reviewable bundle.
package provenance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/showrunner/internal/cache"
)

// NowUTC returns wall time in the RFC3339 UTC form used across all logs.
func NowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// WriteSidecar stores the generation metadata next to an asset, at
// <asset>.png.json.
func WriteSidecar(assetPath string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cache.SidecarPath(assetPath), append(data, '\n'), 0644)
}

// AppendJSONL appends one event to a JSON-lines log, creating parents as
// needed.
func AppendJSONL(logPath string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
