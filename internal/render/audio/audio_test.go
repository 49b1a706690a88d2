package audio

import (
	"strings"
	"testing"

	"github.com/ivlev/showrunner/internal/schema"
)

func TestBuildFilterGraphSingleTrackNoFilters(t *testing.T) {
	graph := BuildFilterGraph([]Track{{Path: "a.wav", Volume: 1.0}}, 10)
	want := "[0:a]acopy[a0];[a0]amix=inputs=1:duration=longest:normalize=0[out]"
	if graph != want {
		t.Errorf("got %q, want %q", graph, want)
	}
}

func TestBuildFilterGraphVolumeDelayFades(t *testing.T) {
	tracks := []Track{
		{Path: "music.wav", Volume: 0.3, FadeInSec: 1, FadeOutSec: 2},
		{Path: "line.wav", Volume: 1.0, StartSec: 4.5},
	}
	graph := BuildFilterGraph(tracks, 60)

	if !strings.Contains(graph, "[0:a]volume=0.3,afade=t=in:st=0:d=1,afade=t=out:st=58:d=2[a0]") {
		t.Errorf("music chain wrong: %q", graph)
	}
	if !strings.Contains(graph, "[1:a]adelay=4500|4500[a1]") {
		t.Errorf("dialogue chain wrong: %q", graph)
	}
	if !strings.HasSuffix(graph, "[a0][a1]amix=inputs=2:duration=longest:normalize=0[out]") {
		t.Errorf("mix tail wrong: %q", graph)
	}
}

func TestBuildFilterGraphEmpty(t *testing.T) {
	if graph := BuildFilterGraph(nil, 10); graph != "" {
		t.Errorf("expected empty graph, got %q", graph)
	}
}

func TestConfigFromShotList(t *testing.T) {
	sl := &schema.ShotList{
		Version: 1,
		Shots: []schema.Shot{
			{
				ID: "sh010", DurSec: 4,
				Audio: schema.AudioRef{
					Dialogue: []string{"Juno: Look At That"},
					MusicBed: "dunes_theme",
				},
			},
			{
				ID: "sh020", DurSec: 3.5,
				Audio: schema.AudioRef{
					Dialogue: []string{"plain_cue"},
					SFX:      []string{"whoosh"},
				},
			},
		},
	}

	cfg := ConfigFromShotList(sl)

	if cfg.MusicBed != "dunes_theme" {
		t.Errorf("music bed: %q", cfg.MusicBed)
	}
	if cfg.Levels != schema.DefaultAudioLevels() {
		t.Errorf("levels: %+v", cfg.Levels)
	}
	if len(cfg.Shots) != 2 {
		t.Fatalf("shots: %d", len(cfg.Shots))
	}

	// Speaker-prefixed cues become lowercased file names
	if got := cfg.Shots[0].DialogueFiles[0]; got != "look_at_that" {
		t.Errorf("dialogue file: %q", got)
	}
	// Bare cues pass through
	if got := cfg.Shots[1].DialogueFiles[0]; got != "plain_cue" {
		t.Errorf("dialogue file: %q", got)
	}

	// Shots land on the cumulative time axis
	if cfg.Shots[0].StartSec != 0 || cfg.Shots[1].StartSec != 4 {
		t.Errorf("start times: %v, %v", cfg.Shots[0].StartSec, cfg.Shots[1].StartSec)
	}
	if cfg.Shots[1].SFXFiles[0] != "whoosh" {
		t.Errorf("sfx: %v", cfg.Shots[1].SFXFiles)
	}
}

func TestMixerReportsNoTracks(t *testing.T) {
	dir := t.TempDir()
	mixer := NewMixer(dir, MixConfig{Levels: schema.DefaultAudioLevels()})

	tracks, missing := mixer.collectTracks()
	if len(tracks) != 0 {
		t.Errorf("tracks: %v", tracks)
	}
	if len(missing) != 0 {
		t.Errorf("missing: %v", missing)
	}
}

func TestCollectTracksReportsMissing(t *testing.T) {
	dir := t.TempDir()
	mixer := NewMixer(dir, MixConfig{
		Levels:   schema.DefaultAudioLevels(),
		MusicBed: "ghost_theme",
		Shots: []ShotSpec{
			{ShotID: "sh010", DialogueFiles: []string{"nothing_here"}},
		},
	})

	tracks, missing := mixer.collectTracks()
	if len(tracks) != 0 {
		t.Errorf("tracks: %v", tracks)
	}
	wantMissing := []string{"music_bed:ghost_theme", "sh010:dialogue:nothing_here"}
	if len(missing) != len(wantMissing) {
		t.Fatalf("missing: %v", missing)
	}
	for i := range wantMissing {
		if missing[i] != wantMissing[i] {
			t.Errorf("missing[%d]: got %q, want %q", i, missing[i], wantMissing[i])
		}
	}
}
