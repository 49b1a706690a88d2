package qc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/showrunner/internal/provenance"
)

type reportDoc struct {
	EpisodeID   string        `json:"episode_id"`
	Timestamp   string        `json:"timestamp"`
	Passed      bool          `json:"passed"`
	Summary     reportSummary `json:"summary"`
	Warnings    []string      `json:"warnings"`
	Errors      []string      `json:"errors"`
	RuleResults []RuleResult  `json:"rule_results"`
}

type reportSummary struct {
	TotalWarnings int `json:"total_warnings"`
	TotalErrors   int `json:"total_errors"`
}

// WriteReport stores the machine- and human-readable reports in outputDir and
// returns the JSON path.
func WriteReport(result Result, outputDir, episodeID string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}

	doc := reportDoc{
		EpisodeID: episodeID,
		Timestamp: provenance.NowUTC(),
		Passed:    result.Passed,
		Summary: reportSummary{
			TotalWarnings: len(result.Warnings),
			TotalErrors:   len(result.Errors),
		},
		Warnings:    result.Warnings,
		Errors:      result.Errors,
		RuleResults: result.RuleResults,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	jsonPath := filepath.Join(outputDir, "qc_report.json")
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
		return "", err
	}

	mdPath := filepath.Join(outputDir, "qc_report.md")
	if err := os.WriteFile(mdPath, []byte(markdownReport(result, episodeID)), 0644); err != nil {
		return "", err
	}
	return jsonPath, nil
}

func markdownReport(result Result, episodeID string) string {
	status := "FAILED"
	if result.Passed {
		status = "PASSED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# QC Report: %s\n\n", episodeID)
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)
	fmt.Fprintf(&b, "## Summary\n\n- Errors: %d\n- Warnings: %d\n\n", len(result.Errors), len(result.Warnings))

	if len(result.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Rule Details\n\n")
	for _, rr := range result.RuleResults {
		fmt.Fprintf(&b, "### %s (passed: %v)\n\n", rr.RuleName, rr.Passed)
		for _, e := range rr.Errors {
			fmt.Fprintf(&b, "- error: %s\n", e)
		}
		for _, w := range rr.Warnings {
			fmt.Fprintf(&b, "- warning: %s\n", w)
		}
		if len(rr.Errors) == 0 && len(rr.Warnings) == 0 {
			b.WriteString("- No issues found\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
