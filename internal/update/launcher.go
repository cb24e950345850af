package update

import (
	"fmt"
	"os"
	"path/filepath"
)

// Launcher hides the platform process and file mechanics of an update
type Launcher interface {
	// Launch runs path in place of the current process. It may not return
	// on success.
	Launch(path string) error
	// ReplaceFile swaps target's contents for data
	ReplaceFile(target string, data []byte) error
}

// OSLauncher is the Launcher for the host platform
type OSLauncher struct{}

// ReplaceFile writes data next to target and renames it into place
func (OSLauncher) ReplaceFile(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close staging file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o755); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod staging file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
