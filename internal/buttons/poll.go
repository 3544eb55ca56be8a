package buttons

import (
	"context"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/sirupsen/logrus"
)

type polledButton struct {
	action    shop.Action
	pin       int
	debouncer *Debouncer
}

// poller samples a set of active-low pins and emits debounced presses.
type poller struct {
	buttons  []polledButton
	interval time.Duration
	// isLow reads the current level of a pin.
	isLow func(pin int) bool
	now   func() time.Time
}

func newPoller(buttons []config.ButtonConfiguration, debounce time.Duration, isLow func(pin int) bool) *poller {
	p := &poller{
		interval: PollInterval,
		isLow:    isLow,
		now:      time.Now,
	}
	for _, button := range buttons {
		p.buttons = append(p.buttons, polledButton{
			action:    button.Action,
			pin:       button.Pin,
			debouncer: NewDebouncer(debounce),
		})
	}
	return p
}

func (p *poller) run(ctx context.Context, events chan<- Event) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if !p.sample(ctx, events) {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sample reads every pin once. It returns false if ctx ended while an
// event was being delivered.
func (p *poller) sample(ctx context.Context, events chan<- Event) bool {
	now := p.now()
	for _, button := range p.buttons {
		if !button.debouncer.Update(p.isLow(button.pin), now) {
			continue
		}
		log.WithFields(logrus.Fields{"action": button.action, "pin": button.pin}).Debug("Button pressed")
		if !send(ctx, events, Event{Action: button.action, Source: SourceButton, At: now}) {
			return false
		}
	}
	return true
}
