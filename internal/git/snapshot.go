package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ConfigSnapshot records the prior value of every config key this run overwrites, so the
// repository config can be put back exactly as it was. Keys that had no prior value are
// recorded as absent and unset on restore rather than rewritten as empty strings.
type ConfigSnapshot struct {
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	value   string
	existed bool
}

// Capture reads and records the current value of key. The first capture of a key wins;
// later calls for the same key are no-ops so the snapshot always holds the pre-run state.
// Capture must be called strictly before the key is overwritten.
func (s *ConfigSnapshot) Capture(ctx context.Context, repo Repository, key string) error {
	if s.entries == nil {
		s.entries = make(map[string]snapshotEntry)
	}
	if _, ok := s.entries[key]; ok {
		return nil
	}
	value, existed, err := repo.ConfigGet(ctx, key)
	if err != nil {
		return fmt.Errorf("capture config %s: %w", key, err)
	}
	s.entries[key] = snapshotEntry{value: value, existed: existed}
	return nil
}

// Restore writes every captured key back to its pre-run state: prior values verbatim,
// absent keys unset. Keys are processed in sorted order for determinism. Restoration is
// idempotent and keeps going past individual failures, returning them joined.
func (s *ConfigSnapshot) Restore(ctx context.Context, repo Repository) error {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		entry := s.entries[key]
		var err error
		if entry.existed {
			err = repo.ConfigSet(ctx, key, entry.value)
		} else {
			err = repo.ConfigUnset(ctx, key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore config %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Len reports how many keys the snapshot holds.
func (s *ConfigSnapshot) Len() int {
	return len(s.entries)
}
