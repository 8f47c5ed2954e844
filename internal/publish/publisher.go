package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remal-github-actions/push-back/internal/git"
)

// Outcome describes the terminal state of one push attempt.
type Outcome string

const (
	// OutcomePushed means the remote ref was updated to the local HEAD.
	OutcomePushed Outcome = "pushed"
	// OutcomeRemoteChanged means the remote branch tip diverged from the local HEAD
	// and the push was abandoned.
	OutcomeRemoteChanged Outcome = "remote-changed"
)

// Publisher guards a push with an optimistic-concurrency check against the remote
// branch tip. The tip lookup and the push are two separate network operations; a writer
// updating the branch in between is not detected here, and the transport's own
// ref-update rejection is the remaining safety net. Rejected pushes are not retried.
type Publisher struct {
	repo git.Repository
	log  *slog.Logger
}

// New returns a Publisher operating on repo.
func New(repo git.Repository, log *slog.Logger) *Publisher {
	return &Publisher{repo: repo, log: log}
}

// Publish pushes localHead to branch on the named remote. With force set, the push
// overrides remote history unconditionally. Otherwise the remote tip is compared to
// localHead first: a diverged tip aborts with OutcomeRemoteChanged, while a matching or
// absent tip proceeds with a plain push.
func (p *Publisher) Publish(ctx context.Context, remoteName, branch, localHead string, force bool) (Outcome, error) {
	if force {
		if err := p.repo.Push(ctx, remoteName, branch, true); err != nil {
			return "", fmt.Errorf("force push: %w", err)
		}
		if p.log != nil {
			p.log.Info("force-pushed branch", "branch", branch, "sha", localHead)
		}
		return OutcomePushed, nil
	}

	tip, exists, err := p.repo.RemoteBranchSHA(ctx, remoteName, branch)
	if err != nil {
		return "", fmt.Errorf("query remote tip: %w", err)
	}

	if exists && tip != localHead {
		if p.log != nil {
			p.log.Info("remote branch changed since commit, skipping push", "branch", branch, "local_sha", localHead, "remote_sha", tip)
		}
		return OutcomeRemoteChanged, nil
	}

	if err := p.repo.Push(ctx, remoteName, branch, false); err != nil {
		return "", fmt.Errorf("push: %w", err)
	}
	if p.log != nil {
		p.log.Info("pushed branch", "branch", branch, "sha", localHead)
	}
	return OutcomePushed, nil
}
