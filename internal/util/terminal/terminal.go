// Package terminal switches the controlling terminal into a mode where
// single keystrokes can be read, so a keyboard can stand in for the
// buttons on development machines.
package terminal

import (
	"golang.org/x/term"
)

type State term.State

func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

func GetState(fd int) (*State, error) {
	state, err := term.GetState(fd)
	return (*State)(state), err
}

func Restore(fd int, state *State) error {
	return term.Restore(fd, (*term.State)(state))
}
