package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ShellRepository shells out to the system git binary against a single working tree.
type ShellRepository struct {
	// Git is the git binary to execute. Defaults to "git" when empty.
	Git string

	// Dir is the working tree the repository operates on.
	Dir string

	// PushTimeout bounds push commands that would otherwise inherit an unbounded
	// context. When zero, a default of 2 minutes is used. Only pushes are bounded;
	// local commands run to completion.
	PushTimeout time.Duration

	// Log, when set, receives a debug record for every git invocation.
	Log *slog.Logger

	secrets []string
}

// NewShellRepository returns a Repository backed by system git commands in dir.
func NewShellRepository(dir string) *ShellRepository {
	return &ShellRepository{Dir: dir}
}

// AddSecret registers a value to be replaced with *** in command output, error
// messages, and debug logs. Values already registered are ignored.
func (r *ShellRepository) AddSecret(value string) {
	if value == "" {
		return
	}
	for _, s := range r.secrets {
		if s == value {
			return
		}
	}
	r.secrets = append(r.secrets, value)
}

func (r *ShellRepository) ChangedFiles(ctx context.Context, scope []string) ([]string, error) {
	args := []string{"status", "--porcelain", "--untracked-files=all"}
	if len(scope) > 0 {
		args = append(args, "--")
		args = append(args, scope...)
	}
	out, err := r.capture(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		// Renames are reported as "old -> new"; the new path is the changed one.
		if idx := strings.LastIndex(path, " -> "); idx >= 0 {
			path = path[idx+len(" -> "):]
		}
		if strings.HasPrefix(path, `"`) {
			if unquoted, err := strconv.Unquote(path); err == nil {
				path = unquoted
			}
		}
		files = append(files, path)
	}
	return files, nil
}

func (r *ShellRepository) Stage(ctx context.Context, scope []string) error {
	args := []string{"add"}
	if len(scope) == 0 {
		args = append(args, "--all")
	} else {
		args = append(args, "--")
		args = append(args, scope...)
	}
	if err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

func (r *ShellRepository) Commit(ctx context.Context, message string) error {
	if err := r.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

func (r *ShellRepository) HeadSHA(ctx context.Context) (string, error) {
	out, err := r.capture(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *ShellRepository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.capture(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse --abbrev-ref HEAD: %w", err)
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

func (r *ShellRepository) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	out, code, err := r.captureExit(ctx, "config", "--get", key)
	if err != nil {
		// git config --get exits 1 when the key is not set.
		if code == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git config --get %s: %w", key, err)
	}
	return strings.TrimSuffix(out, "\n"), true, nil
}

func (r *ShellRepository) ConfigSet(ctx context.Context, key, value string) error {
	if err := r.run(ctx, "config", key, value); err != nil {
		return fmt.Errorf("git config %s: %w", key, err)
	}
	return nil
}

func (r *ShellRepository) ConfigUnset(ctx context.Context, key string) error {
	_, code, err := r.captureExit(ctx, "config", "--unset-all", key)
	if err != nil {
		// Exit code 5 means the key was not set; unsetting an absent key must be
		// a no-op so that snapshot restoration stays idempotent.
		if code == 5 {
			return nil
		}
		return fmt.Errorf("git config --unset-all %s: %w", key, err)
	}
	return nil
}

func (r *ShellRepository) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.capture(ctx, "remote")
	if err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *ShellRepository) AddRemote(ctx context.Context, name, url string) error {
	if err := r.run(ctx, "remote", "add", name, url); err != nil {
		return fmt.Errorf("git remote add %s: %w", name, err)
	}
	return nil
}

func (r *ShellRepository) RemoveRemote(ctx context.Context, name string) error {
	if err := r.run(ctx, "remote", "remove", name); err != nil {
		return fmt.Errorf("git remote remove %s: %w", name, err)
	}
	return nil
}

func (r *ShellRepository) RemoteBranchSHA(ctx context.Context, remote, branch string) (string, bool, error) {
	out, err := r.capture(ctx, "ls-remote", "--heads", remote, "refs/heads/"+branch)
	if err != nil {
		return "", false, fmt.Errorf("git ls-remote %s %s: %w", remote, branch, err)
	}
	line := strings.TrimSpace(out)
	if line == "" {
		return "", false, nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false, nil
	}
	return fields[0], true, nil
}

func (r *ShellRepository) Push(ctx context.Context, remote, branch string, force bool) error {
	pushCtx, cancel := r.applyPushTimeout(ctx)
	defer cancel()

	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, "HEAD:refs/heads/"+branch)
	if err := r.run(pushCtx, args...); err != nil {
		return fmt.Errorf("git push %s %s: %w", remote, branch, err)
	}
	return nil
}

func (r *ShellRepository) applyPushTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && !deadline.IsZero() {
		return ctx, func() {}
	}
	timeout := r.PushTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *ShellRepository) gitBinary() string {
	if r.Git == "" {
		return "git"
	}
	return r.Git
}

func (r *ShellRepository) run(ctx context.Context, args ...string) error {
	_, _, err := r.captureExit(ctx, args...)
	return err
}

func (r *ShellRepository) capture(ctx context.Context, args ...string) (string, error) {
	out, _, err := r.captureExit(ctx, args...)
	return out, err
}

func (r *ShellRepository) captureExit(ctx context.Context, args ...string) (string, int, error) {
	full := args
	if r.Dir != "" {
		full = append([]string{"-C", r.Dir}, args...)
	}

	if r.Log != nil {
		r.Log.Debug("running git", "args", strings.Join(r.redactArgs(full), " "))
	}

	cmd := exec.CommandContext(ctx, r.gitBinary(), full...)
	setProcessGroup(cmd)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return "", -1, &GitError{Args: r.redactArgs(full), Output: r.redact(output.String()), Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		terminateProcessGroup(cmd)
		<-done
		return "", -1, ctx.Err()
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", -1, ctxErr
			}
			return output.String(), cmd.ProcessState.ExitCode(), &GitError{
				Args:   r.redactArgs(full),
				Output: r.redact(output.String()),
				Err:    err,
			}
		}
	}

	return output.String(), 0, nil
}

func (r *ShellRepository) redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "***")
	}
	return s
}

func (r *ShellRepository) redactArgs(args []string) []string {
	redacted := make([]string, len(args))
	for i, arg := range args {
		redacted[i] = r.redact(arg)
	}
	return redacted
}

// GitError wraps failures when invoking the git binary. Args and Output have
// registered secrets already masked.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("git %s: %v\n%s", strings.Join(e.Args, " "), e.Err, e.Output)
}

func (e *GitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
