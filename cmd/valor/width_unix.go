//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// detectTerminalWidth returns 0 when the width is unknown, which leaves
// table rows unwrapped.
func detectTerminalWidth() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
		if err == nil && ws != nil && ws.Col > 0 {
			return int(ws.Col)
		}
	}
	return envWidth()
}
