package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remal-github-actions/push-back/internal/git/gittest"
	gh "github.com/remal-github-actions/push-back/internal/github"
)

type smokeFactory struct{}

func (smokeFactory) New(ctx context.Context, token string) (gh.Client, error) {
	return gh.NewNoopClient(), nil
}

func TestRunnerSmoke(t *testing.T) {
	tmp := t.TempDir()
	summaryPath := filepath.Join(tmp, "summary.md")
	outputPath := filepath.Join(tmp, "outputs.txt")

	t.Setenv("GITHUB_STEP_SUMMARY", summaryPath)
	t.Setenv("GITHUB_OUTPUT", outputPath)

	repo := gittest.New()
	repo.Changed = []string{"generated/api.json"}

	cfg := Config{
		GitHubToken:    "token",
		Message:        "chore: push back changes",
		Repository:     "acme/widgets",
		ServerURL:      "https://github.com",
		Actor:          "octocat",
		CommitterName:  "Push Back Bot",
		CommitterEmail: "bot@example.com",
	}

	runner := NewRunnerWithDeps(cfg, nil, smokeFactory{}, repo)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("runner.Run returned error: %v", err)
	}

	outputData, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	outputs := string(outputData)
	if !strings.Contains(outputs, "result=pushed-successfully") {
		t.Fatalf("expected pushed result output, got: %s", outputs)
	}
	if !strings.Contains(outputs, "commit-sha=sha-1") {
		t.Fatalf("expected commit-sha output, got: %s", outputs)
	}

	summaryData, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	summary := string(summaryData)
	if !strings.Contains(summary, "Push-back summary") {
		t.Fatalf("expected summary heading, got: %s", summary)
	}
	if !strings.Contains(summary, "generated/api.json") {
		t.Fatalf("expected summary to list the changed file, got: %s", summary)
	}

	if len(repo.PushRecords) != 1 {
		t.Fatalf("expected exactly one push, got %d", len(repo.PushRecords))
	}
	if repo.HasRemote("push-back-temp") {
		t.Fatalf("expected ephemeral remote to be removed")
	}
}

func TestRunnerSmokeNothingChanged(t *testing.T) {
	tmp := t.TempDir()
	outputPath := filepath.Join(tmp, "outputs.txt")

	t.Setenv("GITHUB_STEP_SUMMARY", "")
	t.Setenv("GITHUB_OUTPUT", outputPath)

	repo := gittest.New()

	cfg := Config{
		GitHubToken:    "token",
		Message:        "chore: push back changes",
		Repository:     "acme/widgets",
		ServerURL:      "https://github.com",
		CommitterName:  "Push Back Bot",
		CommitterEmail: "bot@example.com",
	}

	runner := NewRunnerWithDeps(cfg, nil, smokeFactory{}, repo)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("runner.Run returned error: %v", err)
	}

	outputData, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read outputs: %v", err)
	}
	if !strings.Contains(string(outputData), "result=nothing-changed") {
		t.Fatalf("expected nothing-changed result, got: %s", outputData)
	}
	if len(repo.CommitMsgs) != 0 {
		t.Fatalf("expected no commit, got %v", repo.CommitMsgs)
	}
}
