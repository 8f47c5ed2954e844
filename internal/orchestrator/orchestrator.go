package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remal-github-actions/push-back/internal/git"
	"github.com/remal-github-actions/push-back/internal/identity"
	"github.com/remal-github-actions/push-back/internal/publish"
	"github.com/remal-github-actions/push-back/internal/remote"
)

// Outcome is the externally observable result of one push-back run.
type Outcome string

const (
	OutcomeNothingChanged Outcome = "nothing-changed"
	OutcomeRemoteChanged  Outcome = "remote-changed"
	OutcomePushed         Outcome = "pushed-successfully"
)

// Result captures the outcome of a single orchestrator run.
type Result struct {
	Outcome Outcome

	// CommitSHA is the new local HEAD when a commit was made, empty otherwise.
	CommitSHA string

	// Branch is the resolved push destination.
	Branch string

	// ChangedFiles lists the paths the run committed.
	ChangedFiles []string
}

// Orchestrator sequences change detection, committing, ephemeral remote setup, and the
// guarded push under a cleanup discipline that always restores the repository config.
type Orchestrator struct {
	cfg       Config
	repo      git.Repository
	resolver  *identity.Resolver
	committer *identity.Manager
	remote    *remote.Manager
	publisher *publish.Publisher
	log       *slog.Logger
}

// New returns a configured Orchestrator instance.
func New(cfg Config, repo git.Repository, resolver *identity.Resolver, committer *identity.Manager, remoteMgr *remote.Manager, publisher *publish.Publisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		repo:      repo,
		resolver:  resolver,
		committer: committer,
		remote:    remoteMgr,
		publisher: publisher,
		log:       logger,
	}
}

// Run executes the push-back sequence. Every step after the first config mutation runs
// inside a cleanup scope that removes the ephemeral remote and restores the committer
// config exactly once, even when an intermediate step fails. Cleanup failures are
// logged and never mask the original error.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	branch := o.cfg.TargetBranch
	if branch == "" {
		current, err := o.repo.CurrentBranch(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("resolve target branch: %w", err)
		}
		branch = current
	}

	changed, err := o.repo.ChangedFiles(ctx, o.cfg.Files)
	if err != nil {
		return Result{}, fmt.Errorf("detect changes: %w", err)
	}
	if len(changed) == 0 {
		if o.log != nil {
			o.log.Info("working tree has no changes in scope, nothing to push")
		}
		return Result{Outcome: OutcomeNothingChanged, Branch: branch}, nil
	}

	if o.log != nil {
		o.log.Info("detected changes", "branch", branch, "files", len(changed))
	}

	result, err := o.commitAndPublish(ctx, branch, changed)
	if err != nil {
		return Result{}, err
	}
	result.Branch = branch
	result.ChangedFiles = changed
	return result, nil
}

// commitAndPublish covers the mutating portion of the run. Its deferred cleanup is the
// single place the ephemeral remote is destroyed and the committer config restored.
func (o *Orchestrator) commitAndPublish(ctx context.Context, branch string, changed []string) (result Result, err error) {
	resolved, err := o.resolver.Resolve(ctx, o.repo, o.cfg.Committer)
	if err != nil {
		return Result{}, fmt.Errorf("resolve committer identity: %w", err)
	}

	defer func() {
		if destroyErr := o.remote.Destroy(ctx); destroyErr != nil && o.log != nil {
			o.log.Warn("failed to remove ephemeral remote", "error", destroyErr)
		}
		if restoreErr := o.committer.Restore(ctx); restoreErr != nil && o.log != nil {
			o.log.Warn("failed to restore committer config", "error", restoreErr)
		}
	}()

	if err := o.committer.Apply(ctx, resolved); err != nil {
		return Result{}, fmt.Errorf("apply committer identity: %w", err)
	}

	if err := o.repo.Stage(ctx, o.cfg.Files); err != nil {
		return Result{}, fmt.Errorf("stage changes: %w", err)
	}
	if err := o.repo.Commit(ctx, o.cfg.Message); err != nil {
		return Result{}, fmt.Errorf("commit changes: %w", err)
	}

	headSHA, err := o.repo.HeadSHA(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read committed HEAD: %w", err)
	}
	if o.log != nil {
		o.log.Info("committed changes", "sha", headSHA, "message", o.cfg.Message)
	}

	desc, err := o.remote.Create(ctx, o.cfg.Token, o.cfg.ServerURL, o.cfg.Repository)
	if err != nil {
		return Result{}, fmt.Errorf("create ephemeral remote: %w", err)
	}

	pushOutcome, err := o.publisher.Publish(ctx, desc.Name, branch, headSHA, o.cfg.ForcePush)
	if err != nil {
		return Result{}, fmt.Errorf("publish: %w", err)
	}

	switch pushOutcome {
	case publish.OutcomeRemoteChanged:
		return Result{Outcome: OutcomeRemoteChanged, CommitSHA: headSHA}, nil
	default:
		return Result{Outcome: OutcomePushed, CommitSHA: headSHA}, nil
	}
}
