package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/remal-github-actions/push-back/internal/git"
	gh "github.com/remal-github-actions/push-back/internal/github"
	"github.com/remal-github-actions/push-back/internal/identity"
	"github.com/remal-github-actions/push-back/internal/orchestrator"
	"github.com/remal-github-actions/push-back/internal/publish"
	"github.com/remal-github-actions/push-back/internal/remote"
)

// Runner glues together the orchestrator and supporting services to execute the
// push-back flow.
type Runner struct {
	cfg       Config
	log       *slog.Logger
	ghFactory gh.Factory
	repo      git.Repository // only set for testing via NewRunnerWithDeps
}

// NewRunner constructs a Runner with the supplied configuration.
func NewRunner(cfg Config) (*Runner, error) {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		log:       logger,
		ghFactory: gh.NewRESTFactory(cfg.APIBaseURL),
	}, nil
}

// NewRunnerWithDeps constructs a Runner with injected dependencies for testing.
func NewRunnerWithDeps(cfg Config, log *slog.Logger, ghFactory gh.Factory, repo git.Repository) *Runner {
	return &Runner{cfg: cfg, log: log, ghFactory: ghFactory, repo: repo}
}

// Run executes the application using the provided context.
func (r *Runner) Run(ctx context.Context) error {
	if r.log != nil {
		r.log.Info("starting push-back run",
			"repository", r.cfg.Repository,
			"target_branch", r.cfg.TargetBranch,
			"force_push", r.cfg.ForcePush)
	}

	ghClient, err := r.ghFactory.New(ctx, r.cfg.GitHubToken)
	if err != nil {
		return fmt.Errorf("initialize github client: %w", err)
	}

	repo := r.repo
	if repo == nil {
		shell := git.NewShellRepository(r.cfg.Workspace)
		shell.Log = r.log
		shell.PushTimeout = 2 * time.Minute
		shell.AddSecret(r.cfg.GitHubToken)
		repo = shell
	}

	resolver := &identity.Resolver{
		GitHub:     ghClient,
		Actor:      r.cfg.Actor,
		Owner:      r.cfg.Owner(),
		ServerHost: serverHost(r.cfg.ServerURL),
		Log:        r.log,
	}

	remoteMgr := remote.NewManager(repo, r.log)
	if sink, ok := repo.(interface{ AddSecret(string) }); ok {
		remoteMgr.RegisterSecret = sink.AddSecret
	}

	orchCfg := orchestrator.Config{
		Token:        r.cfg.GitHubToken,
		ServerURL:    r.cfg.ServerURL,
		Repository:   r.cfg.Repository,
		Message:      r.cfg.Message,
		Files:        r.cfg.Files,
		TargetBranch: r.cfg.TargetBranch,
		ForcePush:    r.cfg.ForcePush,
		Committer: identity.Identity{
			Name:  r.cfg.CommitterName,
			Email: r.cfg.CommitterEmail,
		},
	}

	orch := orchestrator.New(
		orchCfg,
		repo,
		resolver,
		identity.NewManager(repo, r.log),
		remoteMgr,
		publish.New(repo, r.log),
		r.log,
	)

	result, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("push back: %w", err)
	}

	if r.log != nil {
		r.log.Info("push-back run finished", "result", result.Outcome, "branch", result.Branch, "commit", result.CommitSHA)
	}

	if err := r.writeGitHubOutputs(result); err != nil && r.log != nil {
		r.log.Warn("failed to write action outputs", "error", err)
	}

	if err := r.writeStepSummary(result); err != nil && r.log != nil {
		r.log.Warn("failed to write step summary", "error", err)
	}

	return nil
}

func serverHost(serverURL string) string {
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Host == "" {
		return "github.com"
	}
	return parsed.Host
}
