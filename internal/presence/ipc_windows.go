//go:build windows

package presence

import (
	"context"
	"fmt"
	"io"
	"os"
)

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	for i := 0; i < 10; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pipe, err := os.OpenFile(fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i), os.O_RDWR, 0)
		if err == nil {
			return pipe, nil
		}
	}
	return nil, ErrNoSocket
}
