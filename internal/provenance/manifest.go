package provenance

import (
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manifest describes what a provenance bundle contains and which pipeline
// build produced it.
type Manifest struct {
	Version         string            `json:"version"`
	PipelineVersion string            `json:"pipeline_version"`
	BuildID         string            `json:"build_id"`
	BuildTimestamp  string            `json:"build_timestamp"`
	EpisodeID       string            `json:"episode_id"`
	Files           []string          `json:"files"`
	Checksums       map[string]string `json:"checksums"`
	OutputPath      string            `json:"output_path,omitempty"`
}

const manifestVersion = "1.0"

// NewManifest stamps a manifest for one build run. BuildID is unique per run
// so two builds of the same episode remain distinguishable.
func NewManifest(episodeID string, files []string, checksums map[string]string, outputPath string) Manifest {
	return Manifest{
		Version:         manifestVersion,
		PipelineVersion: PipelineVersion(),
		BuildID:         uuid.NewString(),
		BuildTimestamp:  time.Now().UTC().Format(time.RFC3339),
		EpisodeID:       episodeID,
		Files:           files,
		Checksums:       checksums,
		OutputPath:      outputPath,
	}
}

func (m Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// PipelineVersion asks git for a describe string, falling back to "unknown"
// outside a checkout.
func PipelineVersion() string {
	cmd := exec.Command("git", "describe", "--tags", "--always", "--dirty")
	cmd.Stderr = nil
	out, err := cmd.Output()
	if err == nil {
		if v := strings.TrimSpace(string(out)); v != "" {
			return v
		}
	}
	if v := os.Getenv("SHOWRUNNER_VERSION"); v != "" {
		return v
	}
	return "unknown"
}
