package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remal-github-actions/push-back/internal/git"
)

// Manager applies a committer identity to the repository config and restores the prior
// state afterwards. The manager owns the snapshot of the keys it overwrites and is the
// only component that restores them.
type Manager struct {
	repo     git.Repository
	log      *slog.Logger
	snapshot git.ConfigSnapshot
}

// NewManager returns a Manager operating on repo.
func NewManager(repo git.Repository, log *slog.Logger) *Manager {
	return &Manager{repo: repo, log: log}
}

// Apply writes user.name and user.email, capturing their prior values first.
func (m *Manager) Apply(ctx context.Context, id Identity) error {
	if id.Name == "" || id.Email == "" {
		return fmt.Errorf("committer identity requires both name and email")
	}

	for key, value := range map[string]string{
		"user.name":  id.Name,
		"user.email": id.Email,
	} {
		if err := m.snapshot.Capture(ctx, m.repo, key); err != nil {
			return err
		}
		if err := m.repo.ConfigSet(ctx, key, value); err != nil {
			return fmt.Errorf("apply %s: %w", key, err)
		}
	}

	if m.log != nil {
		m.log.Debug("applied committer identity", "name", id.Name, "email", id.Email)
	}
	return nil
}

// Restore puts every captured key back to its pre-run value. Safe to call when Apply
// never ran or only partially succeeded.
func (m *Manager) Restore(ctx context.Context) error {
	return m.snapshot.Restore(ctx, m.repo)
}
