// Package buttons turns presses of the physical buttons (or of their
// keyboard stand-ins) into shop actions.
package buttons

import (
	"context"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "buttons"})

// Source tells where an event came from.
type Source string

const (
	SourceButton   Source = "button"
	SourceKeyboard Source = "keyboard"
	SourceRemote   Source = "remote"
	SourceAPI      Source = "api"
)

// Event is a single press.
type Event struct {
	Action shop.Action
	Source Source
	At     time.Time
}

// Reader produces events until ctx is done or the input is exhausted.
// Run must not close events.
type Reader interface {
	Run(ctx context.Context, events chan<- Event) error
}

// PollInterval is the interval at which the pins are sampled.
const PollInterval = 10 * time.Millisecond

// NewReader returns the reader for this platform: GPIO pins on a
// Raspberry Pi, the keyboard everywhere else.
func NewReader(buttons []config.ButtonConfiguration, debounce time.Duration) Reader {
	return newPlatformReader(buttons, debounce)
}

// send delivers event unless ctx is done first.
func send(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
