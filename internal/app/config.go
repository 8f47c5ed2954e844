package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
	defaultServerURL = "https://github.com"
)

// Config captures runtime options sourced from GitHub Action inputs or environment variables.
type Config struct {
	GitHubToken    string
	Message        string
	Files          []string
	CommitterName  string
	CommitterEmail string
	ForcePush      bool
	TargetBranch   string

	Repository string
	ServerURL  string
	APIBaseURL string
	Actor      string
	Workspace  string

	LogLevel  string
	LogFormat string
}

// Owner returns the repository owner portion of the owner/name pair.
func (c Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

// LoadConfig reads action inputs from the environment, applies defaults, and performs
// validation. Validation failures happen before any repository mutation.
func LoadConfig() (Config, error) {
	cfg := Config{
		Message:        strings.TrimSpace(os.Getenv("INPUT_MESSAGE")),
		CommitterName:  strings.TrimSpace(os.Getenv("INPUT_COMMITTER_NAME")),
		CommitterEmail: strings.TrimSpace(os.Getenv("INPUT_COMMITTER_EMAIL")),
		TargetBranch:   strings.TrimSpace(os.Getenv("INPUT_TARGET_BRANCH")),
		LogLevel:       strings.ToLower(strings.TrimSpace(envOrDefault("INPUT_LOG_LEVEL", defaultLogLevel))),
		LogFormat:      strings.ToLower(strings.TrimSpace(envOrDefault("INPUT_LOG_FORMAT", defaultLogFormat))),

		Repository: strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")),
		ServerURL:  strings.TrimSpace(envOrDefault("GITHUB_SERVER_URL", defaultServerURL)),
		APIBaseURL: strings.TrimSpace(os.Getenv("GITHUB_API_URL")),
		Actor:      strings.TrimSpace(os.Getenv("GITHUB_ACTOR")),
		Workspace:  strings.TrimSpace(envOrDefault("GITHUB_WORKSPACE", ".")),
	}

	cfg.GitHubToken = strings.TrimSpace(os.Getenv("INPUT_GITHUB_TOKEN"))
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	if rawFiles := os.Getenv("INPUT_FILES"); strings.TrimSpace(rawFiles) != "" {
		cfg.Files = parseFileList(rawFiles)
	}

	if rawForce := strings.TrimSpace(os.Getenv("INPUT_FORCE_PUSH")); rawForce != "" {
		force, err := strconv.ParseBool(rawForce)
		if err != nil {
			return Config{}, fmt.Errorf("parse INPUT_FORCE_PUSH: %w", err)
		}
		cfg.ForcePush = force
	}

	if cfg.GitHubToken == "" {
		return Config{}, fmt.Errorf("github token is required (set INPUT_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	if cfg.Message == "" {
		return Config{}, fmt.Errorf("commit message is required (set INPUT_MESSAGE)")
	}

	if cfg.Repository == "" || !strings.Contains(cfg.Repository, "/") {
		return Config{}, fmt.Errorf("GITHUB_REPOSITORY must be set to the owner/name of the repository")
	}

	supportedFormats := map[string]struct{}{"text": {}, "json": {}}
	if _, ok := supportedFormats[cfg.LogFormat]; !ok {
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	// RUNNER_DEBUG is how the Actions runner signals step debug logging.
	if strings.TrimSpace(os.Getenv("RUNNER_DEBUG")) == "1" {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseFileList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	files := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			files = append(files, trimmed)
		}
	}

	return files
}
