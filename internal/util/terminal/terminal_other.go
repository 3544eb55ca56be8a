//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd && !windows
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd,!windows

package terminal

import (
	"errors"
	"runtime"
)

func MakeCbreak(fd int) (*State, error) {
	return nil, errors.New("cbreak mode not supported on " + runtime.GOOS)
}
