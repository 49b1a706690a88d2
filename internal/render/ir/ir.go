// Package ir defines the Timeline IR: the derived, frame-count-annotated
// intermediate representation of a shot list. It is the contract between
// timeline derivation, the compositor, frame assembly and audit tooling,
// persisted as versioned JSON.
package ir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/schema"
)

// SchemaVersion of the persisted timeline document.
const SchemaVersion = 1

// CameraMoveIR mirrors schema.CameraMove inside the IR.
type CameraMoveIR struct {
	Move     schema.CameraMoveType `json:"move"`
	X0       float64               `json:"x0"`
	X1       float64               `json:"x1"`
	Y0       float64               `json:"y0"`
	Y1       float64               `json:"y1"`
	Z0       float64               `json:"z0"`
	Z1       float64               `json:"z1"`
	Strength float64               `json:"strength"`
}

// ActorIR is one actor placement within a shot.
type ActorIR struct {
	Character  string   `json:"character"`
	Pose       string   `json:"pose"`
	Expression string   `json:"expression"`
	MouthTrack string   `json:"mouth_track,omitempty"`
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
}

// OverlayIR is one overlay reference within a shot.
type OverlayIR struct {
	ID   string   `json:"id"`
	Text string   `json:"text,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// AudioIR lists the audio cues of one shot.
type AudioIR struct {
	Dialogue []string `json:"dialogue"`
	SFX      []string `json:"sfx"`
	Music    string   `json:"music,omitempty"`
}

// ShotIR is one continuous take, annotated with its derived frame count.
// Instances are immutable after derivation.
type ShotIR struct {
	ID         string       `json:"id"`
	DurSec     float64      `json:"dur_sec"`
	FrameCount int          `json:"frame_count"`
	BG         string       `json:"bg"`
	Camera     CameraMoveIR `json:"camera"`
	Actors     []ActorIR    `json:"actors"`
	Overlays   []OverlayIR  `json:"overlays"`
	FX         []string     `json:"fx"`
	Audio      AudioIR      `json:"audio"`
}

// TimelineIR is the derived timeline for a whole episode. Shot order is
// presentation order.
type TimelineIR struct {
	SchemaVersion int               `json:"schema_version"`
	EpisodeID     string            `json:"episode_id"`
	FPS           int               `json:"fps"`
	Resolution    schema.Resolution `json:"resolution"`
	Shots         []ShotIR          `json:"shots"`
}

// Write persists the timeline as indented JSON, creating parent directories.
func (tl *TimelineIR) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tl, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Read loads and checks a persisted timeline document.
func Read(path string) (*TimelineIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tl TimelineIR
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if tl.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%s: unsupported timeline schema_version %d", path, tl.SchemaVersion)
	}
	return &tl, nil
}

// TotalFrames sums the frame counts of all shots.
func (tl *TimelineIR) TotalFrames() int {
	total := 0
	for _, sh := range tl.Shots {
		total += sh.FrameCount
	}
	return total
}
