//go:build windows

package update

import (
	"fmt"
	"os/exec"
)

// Launch opens path in a new console window. The caller exits afterwards.
func (OSLauncher) Launch(path string) error {
	cmd := exec.Command("cmd", "/C", "start", "", path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}
	return cmd.Process.Release()
}
