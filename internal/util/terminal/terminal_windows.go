//go:build windows
// +build windows

package terminal

import (
	"golang.org/x/sys/windows"
)

// MakeCbreak turns off line input and echo on the console and returns the
// previous state so that it can be restored.
func MakeCbreak(fd int) (*State, error) {
	old, err := GetState(fd)
	if err != nil {
		return nil, err
	}
	var mode uint32
	if err := windows.GetConsoleMode(windows.Handle(fd), &mode); err != nil {
		return nil, err
	}
	mode &^= (windows.ENABLE_ECHO_INPUT | windows.ENABLE_LINE_INPUT)
	if err := windows.SetConsoleMode(windows.Handle(fd), mode); err != nil {
		return nil, err
	}
	return old, nil
}
