package qc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/showrunner/internal/schema"
)

func testContext(shots []schema.Shot) *Context {
	return &Context{
		Episode: &schema.Episode{
			ID:               "s01e01",
			RuntimeTargetSec: 300,
			Cast:             []string{"juno", "pax"},
		},
		ShotList:        &schema.ShotList{Version: 1, Shots: shots},
		EpisodeDir:      os.TempDir(),
		CanonCharacters: map[string]bool{"juno": true, "pax": true},
	}
}

func TestDialogueLanguageCheck(t *testing.T) {
	tests := []struct {
		name     string
		dialogue string
		wantErrs int
	}{
		{"clean line", "juno: look at the dunes", 0},
		{"flagged word", "pax: I will kill the lights", 1},
		{"word boundary respected", "juno: the skill check passed", 0},
		{"case insensitive", "pax: STUPID plan", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext([]schema.Shot{{
				ID: "sh010", DurSec: 4, BG: "bg",
				Audio: schema.AudioRef{Dialogue: []string{tt.dialogue}},
			}})
			result := DialogueLanguageCheck{}.Check(ctx)
			if len(result.Errors) != tt.wantErrs {
				t.Errorf("errors: %v", result.Errors)
			}
			if result.Passed != (tt.wantErrs == 0) {
				t.Errorf("passed: %v", result.Passed)
			}
		})
	}
}

func TestRuntimeBoundsCheck(t *testing.T) {
	ctx := testContext(nil)
	ctx.Episode.RuntimeTargetSec = 30
	result := RuntimeBoundsCheck{}.Check(ctx)
	if result.Passed || len(result.Errors) == 0 {
		t.Errorf("short runtime must fail: %+v", result)
	}

	ctx = testContext([]schema.Shot{{ID: "sh010", DurSec: 10, BG: "bg"}})
	ctx.Episode.RuntimeTargetSec = 300
	result = RuntimeBoundsCheck{}.Check(ctx)
	if !result.Passed {
		t.Errorf("variance is a warning, not an error: %+v", result)
	}
	if len(result.Warnings) == 0 {
		t.Error("97% variance should warn")
	}
}

func TestCharacterConsistencyCheck(t *testing.T) {
	ctx := testContext([]schema.Shot{{
		ID: "sh010", DurSec: 4, BG: "bg",
		Actors: []schema.ActorRef{{Character: "nyx"}},
	}})

	result := CharacterConsistencyCheck{}.Check(ctx)
	if result.Passed {
		t.Error("off-cast character must fail")
	}
	if !strings.Contains(result.Errors[0], "nyx") {
		t.Errorf("error: %v", result.Errors)
	}
}

func TestCharacterConsistencyCanonWarning(t *testing.T) {
	ctx := testContext(nil)
	ctx.Episode.Cast = []string{"juno", "stranger"}

	result := CharacterConsistencyCheck{}.Check(ctx)
	if !result.Passed {
		t.Errorf("non-canon cast member is a warning: %+v", result)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "stranger") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings: %v", result.Warnings)
	}
}

func TestKidsContentCheckWarnsOnly(t *testing.T) {
	ctx := testContext([]schema.Shot{{
		ID: "sh010", DurSec: 4, BG: "bg",
		Audio: schema.AudioRef{Dialogue: []string{"juno: the sand battle begins"}},
	}})

	result := KidsContentCheck{}.Check(ctx)
	if !result.Passed {
		t.Error("violence-adjacent words warn, never fail")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a review warning")
	}
}

func TestIPChecklistAlwaysWarns(t *testing.T) {
	result := IPChecklistReminder{}.Check(testContext(nil))
	if !result.Passed || len(result.Warnings) != 3 {
		t.Errorf("checklist: %+v", result)
	}
}

func TestCheckerRun(t *testing.T) {
	dir := t.TempDir()
	episodeYAML := filepath.Join(dir, "episode.yaml")
	episode := `id: s01e01
title: Test
runtime_target_sec: 300
biome: crystal_desert
cast: [juno]
`
	shotlist := `version: 1
shots:
  - id: sh010
    dur_sec: 4.0
    bg: bg_dunes
    actors:
      - character: juno
    audio:
      dialogue: ["juno: what a view"]
`
	if err := os.WriteFile(episodeYAML, []byte(episode), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shotlist.yaml"), []byte(shotlist), 0644); err != nil {
		t.Fatal(err)
	}

	result := NewChecker().Run(episodeYAML)
	if !result.Passed {
		t.Errorf("clean episode should pass, errors: %v", result.Errors)
	}
	// Missing assets, missing frames and the IP checklist all warn
	if len(result.Warnings) == 0 {
		t.Error("expected warnings")
	}
	if len(result.RuleResults) != 7 {
		t.Errorf("rule results: %d", len(result.RuleResults))
	}
}

func TestCheckerBrokenEpisodeFails(t *testing.T) {
	dir := t.TempDir()
	episodeYAML := filepath.Join(dir, "episode.yaml")
	if err := os.WriteFile(episodeYAML, []byte("id: [not valid"), 0644); err != nil {
		t.Fatal(err)
	}

	result := NewChecker().Run(episodeYAML)
	if result.Passed {
		t.Error("broken episode must fail")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Failed to load episode") {
		t.Errorf("errors: %v", result.Errors)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	result := Result{
		Passed:   false,
		Errors:   []string{"Shot sh010: inappropriate word"},
		Warnings: []string{"review something"},
		RuleResults: []RuleResult{
			{RuleName: "dialogue_language_check", Passed: false, Errors: []string{"Shot sh010: inappropriate word"}},
		},
	}

	jsonPath, err := WriteReport(result, dir, "s01e01")
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not valid json: %v", err)
	}
	if doc["episode_id"] != "s01e01" || doc["passed"] != false {
		t.Errorf("report: %v", doc)
	}

	md, err := os.ReadFile(filepath.Join(dir, "qc_report.md"))
	if err != nil {
		t.Fatalf("markdown report missing: %v", err)
	}
	if !strings.Contains(string(md), "FAILED") {
		t.Error("markdown report should show status")
	}
}
