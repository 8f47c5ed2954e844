package orchestrator

import "github.com/remal-github-actions/push-back/internal/identity"

// Config captures the runtime controls the orchestrator needs.
type Config struct {
	// Token is the bearer credential used for push authentication.
	Token string

	// ServerURL is the base URL of the git server hosting the repository.
	ServerURL string

	// Repository is the owner/name pair of the repository to push back to.
	Repository string

	// Message is the commit message for the push-back commit.
	Message string

	// Files restricts the change scope to these path patterns. Empty means all
	// tracked changes.
	Files []string

	// TargetBranch is the push destination. Empty means the current branch.
	TargetBranch string

	// ForcePush overrides remote history instead of applying the concurrency guard.
	ForcePush bool

	// Committer holds the explicit committer overrides, if any.
	Committer identity.Identity
}
