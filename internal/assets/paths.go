// Package assets fixes the on-disk layout of generated episode assets.
// Every component that reads or writes assets goes through these helpers so
// the layout is defined in exactly one place.
package assets

import (
	"fmt"
	"path/filepath"
)

// Dir returns the assets directory for an episode directory.
func Dir(episodeDir string) string {
	return filepath.Join(episodeDir, "assets")
}

// BGPath is where the background plate for bgID lives.
func BGPath(assetsDir, bgID string) string {
	return filepath.Join(assetsDir, "bg", bgID+".png")
}

// CutoutID is the canonical id of an expression-specific cutout.
func CutoutID(character, pose, expression string) string {
	return fmt.Sprintf("%s_%s_%s", character, pose, expression)
}

// CutoutFallbackID is the pose-only id used when no expression-specific
// cutout exists.
func CutoutFallbackID(character, pose string) string {
	return fmt.Sprintf("%s_%s", character, pose)
}

// CutoutPath is where an expression-specific cutout lives.
func CutoutPath(assetsDir, character, pose, expression string) string {
	return filepath.Join(assetsDir, "cutouts", CutoutID(character, pose, expression)+".png")
}

// CutoutFallbackPath is where the pose-only cutout lives.
func CutoutFallbackPath(assetsDir, character, pose string) string {
	return filepath.Join(assetsDir, "cutouts", CutoutFallbackID(character, pose)+".png")
}

// AudioDir is where episode audio tracks live.
func AudioDir(episodeDir string) string {
	return filepath.Join(episodeDir, "assets", "audio")
}

// LogsDir is where per-build artifacts (plan, timeline, build log) live.
func LogsDir(episodeDir string) string {
	return filepath.Join(episodeDir, "logs")
}

// RendersDir is where frames, audio mix and final video live.
func RendersDir(episodeDir string) string {
	return filepath.Join(episodeDir, "renders")
}

// FramesDir is where numbered frame files live.
func FramesDir(episodeDir string) string {
	return filepath.Join(episodeDir, "renders", "frames")
}
