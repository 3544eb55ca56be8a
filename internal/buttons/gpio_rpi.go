//go:build linux && arm
// +build linux,arm

package buttons

import (
	"context"
	"fmt"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/stianeikeland/go-rpio/v4"
)

type gpioReader struct {
	buttons  []config.ButtonConfiguration
	debounce time.Duration
}

func newPlatformReader(buttons []config.ButtonConfiguration, debounce time.Duration) Reader {
	return &gpioReader{buttons: buttons, debounce: debounce}
}

// Run opens the GPIO memory range, configures every button pin as an input
// with pull-up and polls them until ctx is done.
func (r *gpioReader) Run(ctx context.Context, events chan<- Event) error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("open gpio: %w", err)
	}
	defer func() {
		if err := rpio.Close(); err != nil {
			log.Warnln("Failed to close rpio:", err)
		}
	}()

	for _, button := range r.buttons {
		pin := rpio.Pin(button.Pin)
		pin.Input()
		pin.PullUp()
	}
	log.WithField("buttons", len(r.buttons)).Info("Watching GPIO buttons")

	p := newPoller(r.buttons, r.debounce, func(pin int) bool {
		return rpio.Pin(pin).Read() == rpio.Low
	})
	return p.run(ctx, events)
}
