// Package gittest provides an in-memory Repository implementation for tests that need
// to observe git interactions without a real working tree.
package gittest

import (
	"context"
	"errors"
	"fmt"

	"github.com/remal-github-actions/push-back/internal/git"
)

// PushRecord captures one Push invocation.
type PushRecord struct {
	Remote string
	Branch string
	Force  bool
}

// FakeRepository implements git.Repository against in-memory state. The zero value is
// not usable; construct instances with New.
type FakeRepository struct {
	// Changed is what ChangedFiles reports, regardless of scope.
	Changed []string

	// Config holds the current config keys.
	Config map[string]string

	// RemoteList holds the configured remote names.
	RemoteList []string

	// Tips maps branch name to its remote tip SHA.
	Tips map[string]string

	// Head is the current HEAD SHA. Commit advances it deterministically.
	Head string

	// Branch is the checked-out branch; Detached makes CurrentBranch fail.
	Branch   string
	Detached bool

	// Recorded interactions.
	StagedScopes [][]string
	CommitMsgs   []string
	PushRecords  []PushRecord

	// Injected failures.
	FailCommit    error
	FailAddRemote error
	FailTip       error
	FailPush      error
	FailConfigSet error
}

// New returns a FakeRepository on branch main with a baseline HEAD.
func New() *FakeRepository {
	return &FakeRepository{
		Config: make(map[string]string),
		Tips:   make(map[string]string),
		Head:   "sha-0",
		Branch: "main",
	}
}

func (f *FakeRepository) ChangedFiles(ctx context.Context, scope []string) ([]string, error) {
	return append([]string(nil), f.Changed...), nil
}

func (f *FakeRepository) Stage(ctx context.Context, scope []string) error {
	f.StagedScopes = append(f.StagedScopes, append([]string(nil), scope...))
	return nil
}

func (f *FakeRepository) Commit(ctx context.Context, message string) error {
	if f.FailCommit != nil {
		return f.FailCommit
	}
	f.CommitMsgs = append(f.CommitMsgs, message)
	f.Head = fmt.Sprintf("sha-%d", len(f.CommitMsgs))
	return nil
}

func (f *FakeRepository) HeadSHA(ctx context.Context) (string, error) {
	return f.Head, nil
}

func (f *FakeRepository) CurrentBranch(ctx context.Context) (string, error) {
	if f.Detached {
		return "", git.ErrDetachedHead
	}
	return f.Branch, nil
}

func (f *FakeRepository) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	value, ok := f.Config[key]
	return value, ok, nil
}

func (f *FakeRepository) ConfigSet(ctx context.Context, key, value string) error {
	if f.FailConfigSet != nil {
		return f.FailConfigSet
	}
	f.Config[key] = value
	return nil
}

func (f *FakeRepository) ConfigUnset(ctx context.Context, key string) error {
	delete(f.Config, key)
	return nil
}

func (f *FakeRepository) Remotes(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.RemoteList...), nil
}

func (f *FakeRepository) AddRemote(ctx context.Context, name, url string) error {
	if f.FailAddRemote != nil {
		return f.FailAddRemote
	}
	f.RemoteList = append(f.RemoteList, name)
	return nil
}

func (f *FakeRepository) RemoveRemote(ctx context.Context, name string) error {
	for i, existing := range f.RemoteList {
		if existing == name {
			f.RemoteList = append(f.RemoteList[:i], f.RemoteList[i+1:]...)
			return nil
		}
	}
	return &git.GitError{
		Args:   []string{"remote", "remove", name},
		Output: fmt.Sprintf("error: No such remote: '%s'", name),
		Err:    errors.New("exit status 2"),
	}
}

func (f *FakeRepository) RemoteBranchSHA(ctx context.Context, remote, branch string) (string, bool, error) {
	if f.FailTip != nil {
		return "", false, f.FailTip
	}
	tip, ok := f.Tips[branch]
	return tip, ok, nil
}

func (f *FakeRepository) Push(ctx context.Context, remote, branch string, force bool) error {
	if f.FailPush != nil {
		return f.FailPush
	}
	f.PushRecords = append(f.PushRecords, PushRecord{Remote: remote, Branch: branch, Force: force})
	f.Tips[branch] = f.Head
	return nil
}

// HasRemote reports whether name is currently in the remote list.
func (f *FakeRepository) HasRemote(name string) bool {
	for _, existing := range f.RemoteList {
		if existing == name {
			return true
		}
	}
	return false
}
