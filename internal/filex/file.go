// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrivateDirPerm keeps session data readable by its owner only.
const PrivateDirPerm os.FileMode = 0o700

// EnsurePrivateDir creates dir if needed and returns its absolute path.
// Relative paths are taken from the working directory. An existing
// directory keeps its permissions.
func EnsurePrivateDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, PrivateDirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
