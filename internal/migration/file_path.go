package migration

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

const modulePath = "github.com/elskow/fintrack"

// getMigrationsDir returns the absolute path to the migrations directory.
// APP_MIGRATIONS_DIR wins; otherwise the directory next to our go.mod is used.
func getMigrationsDir() (string, error) {
	if dir := os.Getenv("APP_MIGRATIONS_DIR"); dir != "" {
		return filepath.Abs(dir)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	root, err := findModuleRoot(wd)
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	return filepath.Join(root, "migrations"), nil
}

// findModuleRoot walks up from dir to the directory holding our go.mod.
// go.mod files of other modules are skipped.
func findModuleRoot(dir string) (string, error) {
	for {
		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil && modfile.ModulePath(content) == modulePath {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod for %s not found", modulePath)
		}
		dir = parent
	}
}
