package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/remal-github-actions/push-back/internal/orchestrator"
)

func (r *Runner) writeStepSummary(result orchestrator.Result) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_STEP_SUMMARY"))
	if path == "" {
		return nil
	}

	// Try to ensure directory exists, but don't fail if we can't create it
	// (GitHub Actions should have already set this up)
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create summary directory: %v\n", mkErr)
		}
	}

	var builder strings.Builder
	builder.WriteString("## Push-back summary\n\n")
	builder.WriteString(renderResultDetails(result))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step summary: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close step summary file: %v\n", closeErr)
		}
	}()

	if _, err := file.WriteString(builder.String()); err != nil {
		return fmt.Errorf("write step summary: %w", err)
	}

	return nil
}

func (r *Runner) writeGitHubOutputs(result orchestrator.Result) error {
	path := strings.TrimSpace(os.Getenv("GITHUB_OUTPUT"))
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not create outputs directory: %v\n", mkErr)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open github output: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close github output file: %v\n", closeErr)
		}
	}()

	if err := writeOutput(file, "result", string(result.Outcome)); err != nil {
		return err
	}

	if err := writeOutput(file, "commit-sha", result.CommitSHA); err != nil {
		return err
	}

	return nil
}

func renderResultDetails(result orchestrator.Result) string {
	var builder strings.Builder

	switch result.Outcome {
	case orchestrator.OutcomeNothingChanged:
		builder.WriteString("No changes detected, nothing was committed or pushed.\n")
		return builder.String()
	case orchestrator.OutcomeRemoteChanged:
		builder.WriteString(fmt.Sprintf("The remote branch `%s` changed since this workflow started; the push was skipped.\n\n", sanitizeMarkdownCell(result.Branch)))
	case orchestrator.OutcomePushed:
		builder.WriteString(fmt.Sprintf("Pushed commit `%s` to `%s`.\n\n", result.CommitSHA, sanitizeMarkdownCell(result.Branch)))
	}

	if len(result.ChangedFiles) > 0 {
		builder.WriteString("| File |\n")
		builder.WriteString("| --- |\n")
		for _, file := range result.ChangedFiles {
			builder.WriteString(fmt.Sprintf("| %s |\n", sanitizeMarkdownCell(file)))
		}
	}

	return builder.String()
}

func writeOutput(file *os.File, key, value string) error {
	if _, err := fmt.Fprintf(file, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("write output %s: %w", key, err)
	}
	return nil
}

func sanitizeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	value = strings.ReplaceAll(value, "\n", "<br>")
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
