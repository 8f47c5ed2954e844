package gh

import (
	"context"
	"errors"
)

// User holds the profile fields consulted when synthesizing a committer identity.
type User struct {
	Login string
	Name  string
	Email string
}

// Client exposes the GitHub operations required by the push-back identity resolver.
type Client interface {
	GetUser(ctx context.Context, login string) (User, error)
}

// Factory builds concrete GitHub clients (e.g., REST-backed) for the runner.
type Factory interface {
	New(ctx context.Context, token string) (Client, error)
}

// ErrUserNotFound indicates the requested login does not exist.
var ErrUserNotFound = errors.New("github: user not found")
