//go:build linux || darwin

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTerminal reports whether the file descriptor is attached to a terminal.
func isTerminal(fd uintptr) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	_, err := unix.IoctlGetTermios(int(fd), ioctlReadTermios)
	return err == nil
}
