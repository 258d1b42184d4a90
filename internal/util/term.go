package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// DefaultTerminalWidth is used when the terminal width cannot be
// determined (not a tty, or the ioctl fails).
const DefaultTerminalWidth = 80

// TerminalWidth returns the current width of the given file's
// terminal, or DefaultTerminalWidth if it cannot be determined.
func TerminalWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return DefaultTerminalWidth
	}
	return int(ws.Col)
}
