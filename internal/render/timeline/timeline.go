// Package timeline derives the Timeline IR from an episode description.
// The derivation is a pure transform: same inputs, same IR, byte for byte.
package timeline

import (
	"math"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/render/ir"
	"github.com/ivlev/showrunner/internal/schema"
)

// FrameCount derives the frame count for a shot duration at a given fps.
// Sub-frame durations still get one frame.
func FrameCount(durSec float64, fps int) int {
	n := int(math.Round(durSec * float64(fps)))
	if n < 1 {
		return 1
	}
	return n
}

// BuildIR derives the Timeline IR for the episode at episodeYAML.
func BuildIR(episodeYAML string) (*ir.TimelineIR, error) {
	ep, err := schema.LoadEpisode(episodeYAML)
	if err != nil {
		return nil, err
	}
	sl, err := schema.LoadShotList(filepath.Join(filepath.Dir(episodeYAML), "shotlist.yaml"))
	if err != nil {
		return nil, err
	}

	shots := make([]ir.ShotIR, 0, len(sl.Shots))
	for _, sh := range sl.Shots {
		shots = append(shots, convertShot(sh, ep.Render.FPS))
	}

	return &ir.TimelineIR{
		SchemaVersion: ir.SchemaVersion,
		EpisodeID:     ep.ID,
		FPS:           ep.Render.FPS,
		Resolution:    ep.Render.Resolution,
		Shots:         shots,
	}, nil
}

func convertShot(sh schema.Shot, fps int) ir.ShotIR {
	actors := make([]ir.ActorIR, 0, len(sh.Actors))
	for _, a := range sh.Actors {
		actors = append(actors, ir.ActorIR{
			Character:  a.Character,
			Pose:       a.Pose,
			Expression: a.Expression,
			MouthTrack: a.MouthTrack,
			X:          a.X,
			Y:          a.Y,
			Scale:      a.Scale,
		})
	}
	overlays := make([]ir.OverlayIR, 0, len(sh.Overlays))
	for _, o := range sh.Overlays {
		overlays = append(overlays, ir.OverlayIR{ID: o.ID, Text: o.Text, X: o.X, Y: o.Y})
	}

	return ir.ShotIR{
		ID:         sh.ID,
		DurSec:     sh.DurSec,
		FrameCount: FrameCount(sh.DurSec, fps),
		BG:         sh.BG,
		Camera: ir.CameraMoveIR{
			Move:     sh.Camera.Move,
			X0:       sh.Camera.X0,
			X1:       sh.Camera.X1,
			Y0:       sh.Camera.Y0,
			Y1:       sh.Camera.Y1,
			Z0:       sh.Camera.Z0,
			Z1:       sh.Camera.Z1,
			Strength: sh.Camera.Strength,
		},
		Actors:   actors,
		Overlays: overlays,
		FX:       append([]string(nil), sh.FX...),
		Audio: ir.AudioIR{
			Dialogue: append([]string(nil), sh.Audio.Dialogue...),
			SFX:      append([]string(nil), sh.Audio.SFX...),
			Music:    sh.Audio.MusicBed,
		},
	}
}

// DefaultPath is where the timeline document is persisted for an episode.
func DefaultPath(episodeDir string) string {
	return filepath.Join(assets.LogsDir(episodeDir), "timeline.json")
}

// Write derives the IR and persists it to logs/timeline.json, returning the
// output path.
func Write(episodeYAML string) (string, error) {
	tl, err := BuildIR(episodeYAML)
	if err != nil {
		return "", err
	}
	outPath := DefaultPath(filepath.Dir(episodeYAML))
	if err := tl.Write(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}
