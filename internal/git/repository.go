package git

import (
	"context"
	"errors"
)

// Repository exposes the git primitives required by the push-back flow. Implementations
// may shell out to the system git binary; tests substitute in-memory fakes.
type Repository interface {
	// ChangedFiles reports paths with uncommitted changes, restricted to the given
	// scope patterns. An empty scope means the full working tree.
	ChangedFiles(ctx context.Context, scope []string) ([]string, error)

	// Stage adds the paths matching scope to the index, or everything when scope is empty.
	Stage(ctx context.Context, scope []string) error

	// Commit records the staged changes with the given message.
	Commit(ctx context.Context, message string) error

	// HeadSHA returns the full SHA of the current HEAD.
	HeadSHA(ctx context.Context) (string, error)

	// CurrentBranch returns the abbreviated name of the checked-out branch, or
	// ErrDetachedHead when HEAD does not point at a branch.
	CurrentBranch(ctx context.Context) (string, error)

	// ConfigGet reads a config key. The boolean reports whether the key exists;
	// an absent key is not an error.
	ConfigGet(ctx context.Context, key string) (string, bool, error)

	// ConfigSet writes a config key, replacing any existing value.
	ConfigSet(ctx context.Context, key, value string) error

	// ConfigUnset removes a config key. Removing an absent key succeeds.
	ConfigUnset(ctx context.Context, key string) error

	// Remotes lists the names of the configured remotes.
	Remotes(ctx context.Context) ([]string, error)

	// AddRemote registers a new remote.
	AddRemote(ctx context.Context, name, url string) error

	// RemoveRemote deletes a remote by name.
	RemoveRemote(ctx context.Context, name string) error

	// RemoteBranchSHA looks up the tip SHA of branch on remote. The boolean reports
	// whether the branch exists there.
	RemoteBranchSHA(ctx context.Context, remote, branch string) (string, bool, error)

	// Push updates refs/heads/<branch> on remote to the local HEAD. When force is set
	// the remote history is overwritten.
	Push(ctx context.Context, remote, branch string, force bool) error
}

// ErrDetachedHead indicates HEAD does not point at a branch, so no push destination
// can be inferred.
var ErrDetachedHead = errors.New("git: HEAD is detached")
