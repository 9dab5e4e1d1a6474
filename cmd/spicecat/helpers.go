package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/config"
	"github.com/Veraticus/spicecat/internal/storage"
)

// openStore opens the configured database and brings its schema up to date.
func openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	path := config.DatabasePath()
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, common.NewUserError("Cannot open database "+path, "set database.path or SPICECAT_DATABASE_PATH to a writable location", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// newEngine builds an engine over store using the configured rules.
func newEngine(store *storage.SQLiteStorage) (*classify.Engine, error) {
	rules, err := config.LoadRules()
	if err != nil {
		return nil, common.NewUserError("Cannot load classification rules", "fix the file named by rules.path, or unset it to use the built-in rules", err)
	}
	cfg, err := config.LoadEngineConfig()
	if err != nil {
		return nil, err
	}
	return classify.NewWithConfig(rules, store, store, cfg), nil
}

// openInput opens path for reading; "-" or an empty path means stdin.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		pattern = config.ExpandPath(pattern)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
