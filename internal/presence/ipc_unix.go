//go:build !windows

package presence

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
)

// socketDirs lists where Discord places its IPC sockets, in lookup order
func socketDirs() []string {
	var dirs []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return append(dirs, "/tmp")
}

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	var d net.Dialer
	for _, dir := range socketDirs() {
		for i := 0; i < 10; i++ {
			path := filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i))
			conn, err := d.DialContext(ctx, "unix", path)
			if err == nil {
				return conn, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}
	return nil, ErrNoSocket
}
