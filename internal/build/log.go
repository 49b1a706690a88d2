package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/showrunner/internal/provenance"
	"github.com/ivlev/showrunner/internal/system"
)

// writeBuildLog flushes the run summary to logs/build.log. Written on both
// success and first failure, so a broken build still leaves a record.
func (o *Orchestrator) writeBuildLog(result *BuildResult) {
	status := "FAILED"
	if result.Success {
		status = "SUCCESS"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Build %s\n", status)
	fmt.Fprintf(&b, "Host: %s\n", system.CollectHostStats())
	fmt.Fprintf(&b, "Pipeline: %s\n", provenance.PipelineVersion())
	fmt.Fprintf(&b, "Stages completed: %s\n", strings.Join(result.StagesCompleted, ", "))
	b.WriteString("\nStage Details:\n")
	for _, sr := range result.StageResults {
		status := "✓"
		if !sr.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "  %s %s: %.2fs - %s\n", status, sr.Name, sr.DurationSec, sr.Message)
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	if len(result.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	if result.OutputPath != "" {
		fmt.Fprintf(&b, "\nOutput: %s\n", result.OutputPath)
	}

	os.WriteFile(filepath.Join(o.logsDir, "build.log"), []byte(b.String()), 0644)
}
