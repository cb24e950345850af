//go:build !windows

package update

import (
	"fmt"
	"os"
	"syscall"
)

// Launch replaces the current process image with path. The terminal, pid and
// arguments carry over, so the new image can keep prompting on the same
// stdin. It only returns on failure.
func (OSLauncher) Launch(path string) error {
	argv := append([]string{path}, os.Args[1:]...)
	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
