// Package shop contains the domain types shared by the button controller:
// the reported shop status, the actions bound to the buttons and the JSON
// payloads understood by the remote webhooks.
package shop

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status is the shop status reported to the status webhook.
type Status string

const (
	StatusClosed   Status = "Closed"
	StatusSoftOpen Status = "Soft Open"
	StatusOpen     Status = "Open"
)

// Action is what a single button does.
type Action string

const (
	ActionClose        Action = "close"
	ActionSoftOpen     Action = "softopen"
	ActionOpen         Action = "open"
	ActionClearCheckin Action = "clear-checkin"
)

// Actions lists all actions in button order.
var Actions = []Action{ActionClose, ActionSoftOpen, ActionOpen, ActionClearCheckin}

// ParseAction converts a user supplied name into an Action. Matching ignores
// case and surrounding whitespace.
func ParseAction(name string) (Action, error) {
	normalized := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, action := range Actions {
		if normalized == action {
			return action, nil
		}
	}
	return "", fmt.Errorf("unknown action '%s'", name)
}

// Status returns the shop status reported by the action. ok is false for
// actions that do not change the status.
func (a Action) Status() (status Status, ok bool) {
	switch a {
	case ActionClose:
		return StatusClosed, true
	case ActionSoftOpen:
		return StatusSoftOpen, true
	case ActionOpen:
		return StatusOpen, true
	default:
		return "", false
	}
}

func (a Action) String() string {
	return string(a)
}

// StatusPayload is the body expected by the status webhook.
type StatusPayload struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// CheckinPayload is the body expected by the clear-checkin webhook.
type CheckinPayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// State keeps track of what was last reported successfully.
type State struct {
	mutex          sync.RWMutex
	status         Status
	statusAt       time.Time
	checkinClearAt time.Time
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Status         Status    `json:"status,omitempty"`
	StatusAt       time.Time `json:"statusAt,omitempty"`
	CheckinClearAt time.Time `json:"checkinClearAt,omitempty"`
}

// Apply records the successful execution of action at the given time.
func (s *State) Apply(action Action, at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if status, ok := action.Status(); ok {
		s.status = status
		s.statusAt = at
		return
	}
	if action == ActionClearCheckin {
		s.checkinClearAt = at
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Snapshot{
		Status:         s.status,
		StatusAt:       s.statusAt,
		CheckinClearAt: s.checkinClearAt,
	}
}
