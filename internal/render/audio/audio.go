// Package audio mixes dialogue, sfx and music tracks for an episode into a
// single bed via an ffmpeg filter graph.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/showrunner/internal/assets"
	"github.com/ivlev/showrunner/internal/render/video"
	"github.com/ivlev/showrunner/internal/schema"
)

// Track is one input to the mix, placed on the episode's time axis.
type Track struct {
	Path       string
	StartSec   float64
	Volume     float64
	FadeInSec  float64
	FadeOutSec float64
}

// ShotSpec is the audio slice of one shot, with its absolute start time.
type ShotSpec struct {
	ShotID        string
	StartSec      float64
	DurationSec   float64
	DialogueFiles []string
	SFXFiles      []string
}

// MixConfig is everything the mixer needs for one episode.
type MixConfig struct {
	MusicBed string
	Levels   schema.AudioLevels
	Shots    []ShotSpec
}

// MixResult is the reportable outcome of one mix, consumed by the build
// orchestrator.
type MixResult struct {
	Success       bool
	OutputPath    string
	TracksUsed    int
	TracksMissing []string
	Message       string
}

// NoTracksMessage is the MixResult message for the "nothing to mix" case.
// The orchestrator downgrades this specific failure to a warning.
const NoTracksMessage = "no audio tracks available"

// Mixer mixes the tracks of one episode.
type Mixer struct {
	episodeDir string
	audioDir   string
	outputDir  string
	config     MixConfig
}

// NewMixer creates a Mixer rooted at an episode directory.
func NewMixer(episodeDir string, config MixConfig) *Mixer {
	return &Mixer{
		episodeDir: episodeDir,
		audioDir:   assets.AudioDir(episodeDir),
		outputDir:  assets.RendersDir(episodeDir),
		config:     config,
	}
}

// resolveAudioPath tries the bare name plus common audio extensions.
func (m *Mixer) resolveAudioPath(filename string) string {
	for _, ext := range []string{"", ".wav", ".mp3", ".aac", ".ogg"} {
		candidate := filepath.Join(m.audioDir, filename+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func (m *Mixer) collectTracks() (tracks []Track, missing []string) {
	if m.config.MusicBed != "" {
		if path := m.resolveAudioPath(m.config.MusicBed); path != "" {
			tracks = append(tracks, Track{
				Path:   path,
				Volume: m.config.Levels.Music,
			})
		} else {
			missing = append(missing, "music_bed:"+m.config.MusicBed)
		}
	}

	for _, shot := range m.config.Shots {
		for _, f := range shot.DialogueFiles {
			if path := m.resolveAudioPath(f); path != "" {
				tracks = append(tracks, Track{
					Path:     path,
					StartSec: shot.StartSec,
					Volume:   m.config.Levels.Dialogue,
				})
			} else {
				missing = append(missing, fmt.Sprintf("%s:dialogue:%s", shot.ShotID, f))
			}
		}
		for _, f := range shot.SFXFiles {
			if path := m.resolveAudioPath(f); path != "" {
				tracks = append(tracks, Track{
					Path:     path,
					StartSec: shot.StartSec,
					Volume:   m.config.Levels.SFX,
				})
			} else {
				missing = append(missing, fmt.Sprintf("%s:sfx:%s", shot.ShotID, f))
			}
		}
	}
	return tracks, missing
}

// BuildFilterGraph constructs the -filter_complex expression for the mix:
// per-track volume, fades and delay, then a normalize-free amix.
func BuildFilterGraph(tracks []Track, totalDuration float64) string {
	if len(tracks) == 0 {
		return ""
	}

	var parts []string
	var labels []string

	for i, track := range tracks {
		label := fmt.Sprintf("a%d", i)
		var filters []string

		if track.Volume != 1.0 {
			filters = append(filters, fmt.Sprintf("volume=%g", track.Volume))
		}
		if track.FadeInSec > 0 {
			filters = append(filters, fmt.Sprintf("afade=t=in:st=0:d=%g", track.FadeInSec))
		}
		if track.FadeOutSec > 0 {
			fadeStart := totalDuration - track.FadeOutSec
			if fadeStart > 0 {
				filters = append(filters, fmt.Sprintf("afade=t=out:st=%g:d=%g", fadeStart, track.FadeOutSec))
			}
		}
		if track.StartSec > 0 {
			ms := int(track.StartSec * 1000)
			filters = append(filters, fmt.Sprintf("adelay=%d|%d", ms, ms))
		}

		if len(filters) > 0 {
			parts = append(parts, fmt.Sprintf("[%d:a]%s[%s]", i, strings.Join(filters, ","), label))
		} else {
			parts = append(parts, fmt.Sprintf("[%d:a]acopy[%s]", i, label))
		}
		labels = append(labels, "["+label+"]")
	}

	parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[out]",
		strings.Join(labels, ""), len(tracks)))
	return strings.Join(parts, ";")
}

// Mix collects tracks and runs ffmpeg. A missing ffmpeg or a failed run is a
// failed result; an empty track list is a failed result with NoTracksMessage
// so the caller can choose to degrade gracefully.
func (m *Mixer) Mix(ctx context.Context, outputFilename string) MixResult {
	if !video.FFmpegExists() {
		return MixResult{Success: false, Message: "ffmpeg not available"}
	}

	tracks, missing := m.collectTracks()
	if len(tracks) == 0 {
		return MixResult{Success: false, TracksMissing: missing, Message: NoTracksMessage}
	}

	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return MixResult{Success: false, TracksMissing: missing, Message: err.Error()}
	}
	outputPath := filepath.Join(m.outputDir, outputFilename)

	totalDuration := 0.0
	for _, shot := range m.config.Shots {
		if end := shot.StartSec + shot.DurationSec; end > totalDuration {
			totalDuration = end
		}
	}
	if totalDuration == 0 {
		totalDuration = 60.0
	}

	args := []string{"-y"}
	for _, track := range tracks {
		args = append(args, "-i", track.Path)
	}
	args = append(args,
		"-filter_complex", BuildFilterGraph(tracks, totalDuration),
		"-map", "[out]",
		"-t", fmt.Sprintf("%g", totalDuration),
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return MixResult{
			Success:       false,
			TracksMissing: missing,
			Message:       fmt.Sprintf("ffmpeg mix error: %v, output: %s", err, out.String()),
		}
	}

	return MixResult{
		Success:       true,
		OutputPath:    outputPath,
		TracksUsed:    len(tracks),
		TracksMissing: missing,
		Message:       fmt.Sprintf("mixed %d tracks", len(tracks)),
	}
}

// ConfigFromShotList lays shots on the time axis and normalizes dialogue cue
// names ("Juno: hello there" → "hello_there") into file names.
func ConfigFromShotList(sl *schema.ShotList) MixConfig {
	cfg := MixConfig{Levels: schema.DefaultAudioLevels()}

	currentTime := 0.0
	for _, shot := range sl.Shots {
		var dialogueFiles []string
		for _, d := range shot.Audio.Dialogue {
			if idx := strings.Index(d, ":"); idx >= 0 {
				filename := strings.TrimSpace(d[idx+1:])
				dialogueFiles = append(dialogueFiles, strings.ToLower(strings.ReplaceAll(filename, " ", "_")))
			} else {
				dialogueFiles = append(dialogueFiles, d)
			}
		}

		if cfg.MusicBed == "" && shot.Audio.MusicBed != "" {
			cfg.MusicBed = shot.Audio.MusicBed
		}
		if shot.Audio.Levels != nil {
			cfg.Levels = *shot.Audio.Levels
		}

		cfg.Shots = append(cfg.Shots, ShotSpec{
			ShotID:        shot.ID,
			StartSec:      currentTime,
			DurationSec:   shot.DurSec,
			DialogueFiles: dialogueFiles,
			SFXFiles:      append([]string(nil), shot.Audio.SFX...),
		})
		currentTime += shot.DurSec
	}
	return cfg
}

// MixEpisode is the high-level entry: load the shotlist, derive the mix
// config and run the mix.
func MixEpisode(ctx context.Context, episodeYAML string) MixResult {
	episodeDir := filepath.Dir(episodeYAML)
	shotlistPath := filepath.Join(episodeDir, "shotlist.yaml")

	sl, err := schema.LoadShotList(shotlistPath)
	if err != nil {
		return MixResult{Success: false, Message: fmt.Sprintf("shotlist.yaml: %v", err)}
	}

	mixer := NewMixer(episodeDir, ConfigFromShotList(sl))
	return mixer.Mix(ctx, "audio_mix.wav")
}
