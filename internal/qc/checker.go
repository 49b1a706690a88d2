// Package qc runs editorial and technical checks over an episode before the
// cut goes to review.
package qc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ivlev/showrunner/internal/canon"
	"github.com/ivlev/showrunner/internal/schema"
)

// Context is everything the rules may inspect.
type Context struct {
	Episode         *schema.Episode
	ShotList        *schema.ShotList
	EpisodeDir      string
	CanonCharacters map[string]bool
}

// Result aggregates every rule's findings. Any rule error fails the episode.
type Result struct {
	Passed      bool         `json:"passed"`
	Warnings    []string     `json:"warnings"`
	Errors      []string     `json:"errors"`
	RuleResults []RuleResult `json:"rule_results"`
}

func (r *Result) merge(rr RuleResult) {
	r.RuleResults = append(r.RuleResults, rr)
	r.Warnings = append(r.Warnings, rr.Warnings...)
	r.Errors = append(r.Errors, rr.Errors...)
	if len(rr.Errors) > 0 {
		r.Passed = false
	}
}

// Checker runs an ordered rule set.
type Checker struct {
	rules []Rule
}

// NewChecker creates a checker with the standard rule set.
func NewChecker() *Checker {
	return &Checker{rules: []Rule{
		DialogueLanguageCheck{},
		RuntimeBoundsCheck{},
		AssetCoverageCheck{},
		CharacterConsistencyCheck{},
		KidsContentCheck{},
		NewBlankFrameCheck(),
		IPChecklistReminder{},
	}}
}

// NewCheckerWithRules creates a checker over a custom rule set.
func NewCheckerWithRules(rules []Rule) *Checker {
	return &Checker{rules: rules}
}

// Run loads the episode and evaluates every rule. A broken episode.yaml is a
// hard failure; a broken shotlist.yaml degrades to warnings.
func (c *Checker) Run(episodeYAML string) Result {
	result := Result{Passed: true}

	ctx, ok := c.buildContext(episodeYAML, &result)
	if !ok {
		return result
	}

	for _, rule := range c.rules {
		result.merge(rule.Check(ctx))
	}
	return result
}

func (c *Checker) buildContext(episodeYAML string, result *Result) (*Context, bool) {
	ep, err := schema.LoadEpisode(episodeYAML)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to load episode: %v", err))
		result.Passed = false
		return nil, false
	}

	episodeDir := filepath.Dir(episodeYAML)
	var sl *schema.ShotList
	shotlistPath := filepath.Join(episodeDir, "shotlist.yaml")
	if _, err := os.Stat(shotlistPath); err == nil {
		sl, err = schema.LoadShotList(shotlistPath)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to load shotlist: %v", err))
			sl = nil
		}
	}

	cn := canon.Load(canon.RepoRootFrom(episodeDir))
	canonChars := make(map[string]bool, len(cn.Characters))
	for id := range cn.Characters {
		canonChars[id] = true
	}

	return &Context{
		Episode:         ep,
		ShotList:        sl,
		EpisodeDir:      episodeDir,
		CanonCharacters: canonChars,
	}, true
}
