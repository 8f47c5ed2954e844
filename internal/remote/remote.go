package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/remal-github-actions/push-back/internal/git"
)

// Name is the reserved name of the ephemeral remote. Its absence before the run is a
// precondition; a collision is a configuration error, never silently renamed.
const Name = "push-back-temp"

// ErrRemoteCollision indicates a remote with the reserved name already exists.
var ErrRemoteCollision = errors.New("remote: reserved remote name already exists")

// Descriptor identifies the ephemeral remote created for a single run.
type Descriptor struct {
	Name          string
	URL           string
	AuthConfigKey string
}

// Manager creates a uniquely named remote with an embedded bearer-token auth header and
// guarantees its removal. The manager owns the snapshot of the auth header config key.
type Manager struct {
	repo git.Repository
	log  *slog.Logger

	// RegisterSecret, when set, is called with every credential-bearing value so the
	// git layer can mask it in logs and error output.
	RegisterSecret func(value string)

	snapshot git.ConfigSnapshot
	created  bool
}

// NewManager returns a Manager operating on repo.
func NewManager(repo git.Repository, log *slog.Logger) *Manager {
	return &Manager{repo: repo, log: log}
}

// Create registers the ephemeral remote pointing at repoFullName on the given server,
// authenticated through a host-scoped extraheader config entry. The prior value of the
// header key is snapshotted before it is overwritten.
func (m *Manager) Create(ctx context.Context, token, serverURL, repoFullName string) (Descriptor, error) {
	if token == "" {
		return Descriptor{}, fmt.Errorf("token is required")
	}
	if repoFullName == "" {
		return Descriptor{}, fmt.Errorf("repository full name is required")
	}

	remotes, err := m.repo.Remotes(ctx)
	if err != nil {
		return Descriptor{}, fmt.Errorf("list remotes: %w", err)
	}
	for _, name := range remotes {
		if name == Name {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrRemoteCollision, Name)
		}
	}

	base, err := normalizeServerURL(serverURL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("parse server url: %w", err)
	}

	header := "basic " + base64.StdEncoding.EncodeToString([]byte("x-access-token:"+token))
	if m.RegisterSecret != nil {
		m.RegisterSecret(token)
		m.RegisterSecret(header)
	}

	desc := Descriptor{
		Name:          Name,
		URL:           base + repoFullName + ".git",
		AuthConfigKey: fmt.Sprintf("http.%s.extraheader", base),
	}

	if err := m.snapshot.Capture(ctx, m.repo, desc.AuthConfigKey); err != nil {
		return Descriptor{}, err
	}
	if err := m.repo.ConfigSet(ctx, desc.AuthConfigKey, "Authorization: "+header); err != nil {
		return Descriptor{}, fmt.Errorf("set auth header: %w", err)
	}

	if err := m.repo.AddRemote(ctx, desc.Name, desc.URL); err != nil {
		return Descriptor{}, fmt.Errorf("add remote %s: %w", desc.Name, err)
	}
	m.created = true

	if m.log != nil {
		m.log.Debug("created ephemeral remote", "name", desc.Name, "auth_key", desc.AuthConfigKey)
	}
	return desc, nil
}

// Destroy removes the ephemeral remote and restores the auth header config key. It is a
// no-op for a remote that was never created and tolerates one that is already gone, so
// it can run unconditionally in the cleanup phase.
func (m *Manager) Destroy(ctx context.Context) error {
	var errs []error

	if m.created {
		if err := m.repo.RemoveRemote(ctx, Name); err != nil && !isMissingRemote(err) {
			errs = append(errs, fmt.Errorf("remove remote %s: %w", Name, err))
		}
		m.created = false
	}

	if err := m.snapshot.Restore(ctx, m.repo); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func normalizeServerURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		return "", fmt.Errorf("url must include scheme (e.g. https://)")
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("url must include host")
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}

func isMissingRemote(err error) bool {
	var gitErr *git.GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return strings.Contains(gitErr.Output, "No such remote")
}
