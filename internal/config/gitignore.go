package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const gitignoreName = ".gitignore"

// Config is tracked; caches, run archives, metrics and logs are not.
const gitignoreContent = `# medcarbon project-local data (auto-generated)
cache/
*.db
*.db-journal
*.prom
*.log
`

// GitignoreContent returns the .gitignore written into project directories.
func GitignoreContent() string {
	return gitignoreContent
}

// EnsureGitignore writes dir/.gitignore unless one is already there, creating
// dir as needed. created reports whether the file was written.
func EnsureGitignore(dir string) (created bool, err error) {
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("creating project directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, gitignoreName)
	//nolint:gosec // .gitignore is meant to be world-readable.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}

	_, err = f.WriteString(gitignoreContent)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
