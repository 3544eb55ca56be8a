//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd
// +build linux darwin dragonfly freebsd netbsd openbsd

package terminal

import (
	"golang.org/x/sys/unix"
)

// MakeCbreak puts the terminal connected to the given file descriptor into
// cbreak mode and returns the previous state of the terminal so that it can
// be restored. Line buffering and echo are turned off, but keystrokes like
// abort are still processed by the terminal.
func MakeCbreak(fd int) (*State, error) {
	old, err := GetState(fd)
	if err != nil {
		return nil, err
	}

	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, err
	}

	termios.Lflag &^= unix.ECHO | unix.ICANON
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, termios); err != nil {
		return nil, err
	}

	return old, nil
}
