// Package fsio writes output artifacts through a temporary path so a
// half-written file is never visible under its final name.
package fsio

import (
	"fmt"
	"os"
)

// WriteStaged writes data to a temporary sibling of path and renames it
// into place. On any failure the temporary file is removed best-effort and
// path is left untouched.
func WriteStaged(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
