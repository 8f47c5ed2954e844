package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remal-github-actions/push-back/internal/git"
	gh "github.com/remal-github-actions/push-back/internal/github"
)

// Identity is the committer name/email recorded on the push-back commit.
type Identity struct {
	Name  string
	Email string
}

// Resolver decides which committer identity a run uses. Precedence per field, first
// non-empty wins: explicit input, pre-existing repository config, platform actor
// profile, synthesized no-reply fallback.
type Resolver struct {
	// GitHub is consulted to enrich the actor fallback with the user's profile
	// name and public email. Lookups are best effort.
	GitHub gh.Client

	// Actor is the login that triggered the run. When empty, Owner is used instead.
	Actor string

	// Owner is the repository owner login.
	Owner string

	// ServerHost is the host used for synthesized no-reply email addresses
	// ({login}@users.noreply.{host}).
	ServerHost string

	Log *slog.Logger
}

// Resolve computes the identity for this run. The repository's existing user.name and
// user.email are read but never modified here.
func (r *Resolver) Resolve(ctx context.Context, repo git.Repository, explicit Identity) (Identity, error) {
	resolved := explicit

	if resolved.Name == "" {
		name, _, err := repo.ConfigGet(ctx, "user.name")
		if err != nil {
			return Identity{}, fmt.Errorf("read configured user.name: %w", err)
		}
		resolved.Name = name
	}
	if resolved.Email == "" {
		email, _, err := repo.ConfigGet(ctx, "user.email")
		if err != nil {
			return Identity{}, fmt.Errorf("read configured user.email: %w", err)
		}
		resolved.Email = email
	}

	if resolved.Name != "" && resolved.Email != "" {
		return resolved, nil
	}

	login := r.Actor
	if login == "" {
		login = r.Owner
	}
	if login == "" {
		return Identity{}, fmt.Errorf("committer identity could not be resolved: no explicit input, repository config, or actor")
	}

	user := r.lookupUser(ctx, login)

	if resolved.Name == "" {
		resolved.Name = user.Name
		if resolved.Name == "" {
			resolved.Name = login
		}
	}
	if resolved.Email == "" {
		resolved.Email = user.Email
		if resolved.Email == "" {
			resolved.Email = fmt.Sprintf("%s@users.noreply.%s", login, r.ServerHost)
		}
	}

	return resolved, nil
}

func (r *Resolver) lookupUser(ctx context.Context, login string) gh.User {
	if r.GitHub == nil {
		return gh.User{}
	}
	user, err := r.GitHub.GetUser(ctx, login)
	if err != nil {
		if r.Log != nil {
			r.Log.Debug("actor profile lookup failed, using synthesized identity", "login", login, "error", err)
		}
		return gh.User{}
	}
	return user
}
