// Package backup snapshots the ledger database and rotates old copies.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "cotisations_backup_"
	fileSuffix = ".db"
	timeLayout = "20060102_150405"

	// DefaultKeep is how many backups are kept when keep is not positive.
	DefaultKeep = 10
)

// Snapshotter writes a consistent copy of a database to path.
type Snapshotter interface {
	Backup(ctx context.Context, path string) error
}

// Run writes a new backup into dir, then deletes all but the keep most recent.
// It returns the path of the new backup.
func Run(ctx context.Context, store Snapshotter, dir string, keep int) (string, error) {
	return run(ctx, store, dir, keep, time.Now())
}

func run(ctx context.Context, store Snapshotter, dir string, keep int, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := store.Backup(ctx, path); err != nil {
		return "", err
	}
	slog.Info("Backup created", "path", path)

	removed, err := Rotate(dir, keep)
	if err != nil {
		return path, err
	}
	for _, old := range removed {
		slog.Info("Old backup removed", "path", old)
	}
	return path, nil
}

// FileName returns the backup file name for t, e.g. cotisations_backup_20250915_103000.db.
func FileName(t time.Time) string {
	return filePrefix + t.Format(timeLayout) + fileSuffix
}

// List returns the backups in dir, most recent first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := time.Parse(timeLayout, stamp); err != nil {
			continue
		}
		names = append(names, name)
	}

	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Rotate deletes all but the keep most recent backups in dir and returns the
// deleted paths. Files that do not look like backups are never touched.
func Rotate(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}

	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) <= keep {
		return nil, nil
	}

	var removed []string
	for _, p := range paths[keep:] {
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("failed to remove old backup: %w", err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}
