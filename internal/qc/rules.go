package qc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ivlev/showrunner/internal/assets"
)

// RuleResult is the outcome of one rule over the whole episode.
type RuleResult struct {
	RuleName string   `json:"rule_name"`
	Passed   bool     `json:"passed"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// Rule is one editorial or technical check.
type Rule interface {
	Name() string
	Check(ctx *Context) RuleResult
}

var inappropriateWords = []string{
	"kill", "murder", "death", "die", "dead", "blood", "bloody",
	"hate", "stupid", "idiot", "dumb", "shut up",
	"damn", "hell", "crap",
}

var wordPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(inappropriateWords))
	for _, w := range inappropriateWords {
		out[w] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}()

// DialogueLanguageCheck fails the episode on words that must never reach a
// kids audience.
type DialogueLanguageCheck struct{}

func (DialogueLanguageCheck) Name() string { return "dialogue_language_check" }

func (c DialogueLanguageCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}
	if ctx.ShotList == nil {
		result.Warnings = append(result.Warnings, "No shotlist available for dialogue check")
		return result
	}
	for _, shot := range ctx.ShotList.Shots {
		for _, dialogue := range shot.Audio.Dialogue {
			for _, word := range inappropriateWords {
				if wordPatterns[word].MatchString(dialogue) {
					result.Errors = append(result.Errors,
						fmt.Sprintf("Shot %s: inappropriate word '%s' in dialogue: %s", shot.ID, word, dialogue))
					result.Passed = false
				}
			}
		}
	}
	return result
}

// RuntimeBoundsCheck compares the runtime target and the shotlist total
// against the slot the show airs in.
type RuntimeBoundsCheck struct{}

const (
	minRuntimeSec = 60
	maxRuntimeSec = 1800
)

func (RuntimeBoundsCheck) Name() string { return "runtime_bounds" }

func (c RuntimeBoundsCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}

	target := ctx.Episode.RuntimeTargetSec
	if target < minRuntimeSec {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Runtime target %ds is below minimum %ds", target, minRuntimeSec))
		result.Passed = false
	} else if target > maxRuntimeSec {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Runtime target %ds exceeds recommended max %ds", target, maxRuntimeSec))
	}

	if ctx.ShotList != nil && target > 0 {
		actual := 0.0
		for _, shot := range ctx.ShotList.Shots {
			actual += shot.DurSec
		}
		variance := actual - float64(target)
		if variance < 0 {
			variance = -variance
		}
		variance /= float64(target)
		if variance > 0.2 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Actual runtime %.1fs differs from target %ds by %.0f%%", actual, target, variance*100))
		}
	}
	return result
}

// AssetCoverageCheck warns about shots whose plates are missing on disk.
type AssetCoverageCheck struct{}

func (AssetCoverageCheck) Name() string { return "asset_coverage" }

func (c AssetCoverageCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}
	if ctx.ShotList == nil {
		result.Warnings = append(result.Warnings, "No shotlist available for asset coverage check")
		return result
	}

	assetsDir := assets.Dir(ctx.EpisodeDir)
	for _, shot := range ctx.ShotList.Shots {
		if shot.BG != "" {
			if _, err := os.Stat(assets.BGPath(assetsDir, shot.BG)); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Shot %s: missing background asset %s", shot.ID, shot.BG))
			}
		}
		for _, actor := range shot.Actors {
			exact := assets.CutoutPath(assetsDir, actor.Character, actor.Pose, actor.Expression)
			fallback := assets.CutoutFallbackPath(assetsDir, actor.Character, actor.Pose)
			if _, err := os.Stat(exact); err != nil {
				if _, err := os.Stat(fallback); err != nil {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Shot %s: missing pose %s for %s", shot.ID, actor.Pose, actor.Character))
				}
			}
		}
	}
	return result
}

// CharacterConsistencyCheck keeps every on-screen character inside the
// declared cast, and the cast inside the show canon.
type CharacterConsistencyCheck struct{}

func (CharacterConsistencyCheck) Name() string { return "character_consistency" }

func (c CharacterConsistencyCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}

	cast := make(map[string]bool, len(ctx.Episode.Cast))
	for _, id := range ctx.Episode.Cast {
		cast[id] = true
	}

	if ctx.ShotList == nil {
		result.Warnings = append(result.Warnings, "No shotlist available for character consistency check")
		return result
	}

	for _, shot := range ctx.ShotList.Shots {
		for _, actor := range shot.Actors {
			if !cast[actor.Character] {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Shot %s: character '%s' not in episode cast %v", shot.ID, actor.Character, ctx.Episode.Cast))
				result.Passed = false
			}
		}
	}

	if len(ctx.CanonCharacters) > 0 {
		for _, char := range ctx.Episode.Cast {
			if !ctx.CanonCharacters[char] {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("Cast member '%s' not in canon characters", char))
			}
		}
	}
	return result
}

var violenceKeywords = []string{
	"fight", "hit", "punch", "kick", "attack", "weapon", "sword", "gun",
	"battle", "war", "destroy", "explosion", "explode",
}

// KidsContentCheck flags violence-adjacent dialogue for human review. These
// are warnings, not errors: context decides.
type KidsContentCheck struct{}

func (KidsContentCheck) Name() string { return "kids_content" }

func (c KidsContentCheck) Check(ctx *Context) RuleResult {
	result := RuleResult{RuleName: c.Name(), Passed: true}
	if ctx.ShotList == nil {
		result.Warnings = append(result.Warnings, "No shotlist available for kids content check")
		return result
	}
	for _, shot := range ctx.ShotList.Shots {
		for _, dialogue := range shot.Audio.Dialogue {
			lower := strings.ToLower(dialogue)
			for _, word := range violenceKeywords {
				if strings.Contains(lower, word) {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Shot %s: review violence-adjacent word '%s' in dialogue", shot.ID, word))
				}
			}
		}
	}
	return result
}

// IPChecklistReminder always emits the manual review checklist.
type IPChecklistReminder struct{}

func (IPChecklistReminder) Name() string { return "ip_checklist" }

func (c IPChecklistReminder) Check(ctx *Context) RuleResult {
	return RuleResult{
		RuleName: c.Name(),
		Passed:   true,
		Warnings: []string{
			"IP Checklist Reminder: Verify characters are on-model",
			"IP Checklist Reminder: Verify biome consistency with show canon",
			"IP Checklist Reminder: Review all generated assets for style consistency",
		},
	}
}

// sampleFramePaths picks up to n frames spread across the rendered sequence.
func sampleFramePaths(framesDir string, n int) []string {
	entries, err := filepath.Glob(filepath.Join(framesDir, "frame_*.png"))
	if err != nil || len(entries) == 0 {
		return nil
	}
	if len(entries) <= n {
		return entries
	}
	step := len(entries) / n
	out := make([]string, 0, n)
	for i := 0; i < len(entries) && len(out) < n; i += step {
		out = append(out, entries[i])
	}
	return out
}
