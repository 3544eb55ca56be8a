// Package controller ties the buttons to the webhooks. Presses from every
// source end up in one queue and are dispatched strictly in order.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/buttons"
	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/metrics"
	"github.com/iot-bp-project-2018/shop-buttons/internal/mqttclient"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/iot-bp-project-2018/shop-buttons/internal/webhook"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "controller"})

// QueueSize is the number of presses that may wait behind the one in flight.
const QueueSize = 16

// Poster delivers a request body to a webhook.
type Poster interface {
	Post(ctx context.Context, url string, body []byte) (webhook.Result, error)
}

// Options holds the optional collaborators of a Controller.
type Options struct {
	// PubSub receives announcements and delivers remote presses.
	PubSub mqttclient.PubSubClient
	// Topic is the prefix of all MQTT channels.
	Topic    string
	Recorder metrics.Recorder
}

type Controller struct {
	config  *config.Configuration
	poster  Poster
	options Options
	state   shop.State
	events  chan buttons.Event
	now     func() time.Time

	// waiterMutex protects waiters.
	waiterMutex sync.Mutex
	waiters     map[shop.Action][]chan struct{}
}

func New(cfg *config.Configuration, poster Poster, options Options) *Controller {
	return &Controller{
		config:  cfg,
		poster:  poster,
		options: options,
		events:  make(chan buttons.Event, QueueSize),
		now:     time.Now,
		waiters: make(map[shop.Action][]chan struct{}),
	}
}

// State returns the last successfully reported state.
func (c *Controller) State() shop.Snapshot {
	return c.state.Snapshot()
}

// Submit queues a press without blocking. It returns false if the press was
// consumed by WaitForPress or dropped because the queue is full.
func (c *Controller) Submit(event buttons.Event) bool {
	if event.At.IsZero() {
		event.At = c.now()
	}
	entry := log.WithFields(logrus.Fields{"action": event.Action, "source": event.Source})

	if c.notifyWaiters(event) {
		entry.Info("Press consumed by pairing")
		return false
	}

	select {
	case c.events <- event:
		entry.Debug("Press queued")
		return true
	default:
		entry.Warn("Press queue full, dropping press")
		c.record(metrics.Sample{Action: event.Action, Result: metrics.ResultDropped, At: event.At})
		return false
	}
}

// RunReader feeds the events of reader into the queue until the reader
// returns.
func (c *Controller) RunReader(ctx context.Context, reader buttons.Reader) error {
	events := make(chan buttons.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			c.Submit(event)
		}
	}()
	err := reader.Run(ctx, events)
	close(events)
	<-done
	return err
}

// Run dispatches queued presses until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	if c.options.PubSub != nil {
		channel := c.channel("press")
		c.options.PubSub.Subscribe(channel, c.onRemotePress)
		defer c.options.PubSub.Unsubscribe(channel)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-c.events:
			// Errors are logged and recorded by Dispatch.
			c.Dispatch(ctx, event)
		}
	}
}

// Dispatch executes a single press right away.
func (c *Controller) Dispatch(ctx context.Context, event buttons.Event) (webhook.Result, error) {
	entry := log.WithFields(logrus.Fields{"action": event.Action, "source": event.Source})

	url, err := c.config.URL(event.Action)
	if err != nil {
		entry.WithFields(logrus.Fields{"err": err}).Warn("Cannot dispatch press")
		return webhook.Result{}, err
	}
	body, err := c.config.Body(event.Action)
	if err != nil {
		entry.WithFields(logrus.Fields{"err": err}).Warn("Cannot render webhook body")
		return webhook.Result{}, err
	}

	result, err := c.poster.Post(ctx, url, body)
	sample := metrics.Sample{Action: event.Action, Result: metrics.ResultOK, Duration: result.Duration, At: event.At}
	if err != nil {
		sample.Result = metrics.ResultFailed
		c.record(sample)
		entry.WithFields(logrus.Fields{"err": err}).Error("Webhook failed")
		return result, fmt.Errorf("%s: %w", event.Action, err)
	}
	c.record(sample)

	completed := c.now()
	c.state.Apply(event.Action, completed)
	c.announce(event.Action, completed)
	entry.WithFields(logrus.Fields{"attempts": result.Attempts, "duration": result.Duration}).Info("Press delivered")
	return result, nil
}

// WaitForPress blocks until the button bound to action is physically pressed
// or ctx is done. The press is consumed and not dispatched.
func (c *Controller) WaitForPress(ctx context.Context, action shop.Action) bool {
	pressed := make(chan struct{}, 1)

	c.waiterMutex.Lock()
	c.waiters[action] = append(c.waiters[action], pressed)
	c.waiterMutex.Unlock()

	defer c.removeWaiter(action, pressed)

	select {
	case <-pressed:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) notifyWaiters(event buttons.Event) bool {
	// Remote and API presses must not complete a pairing.
	if event.Source != buttons.SourceButton && event.Source != buttons.SourceKeyboard {
		return false
	}

	c.waiterMutex.Lock()
	defer c.waiterMutex.Unlock()

	waiting := c.waiters[event.Action]
	if len(waiting) == 0 {
		return false
	}
	for _, pressed := range waiting {
		select {
		case pressed <- struct{}{}:
		default:
		}
	}
	delete(c.waiters, event.Action)
	return true
}

func (c *Controller) removeWaiter(action shop.Action, pressed chan struct{}) {
	c.waiterMutex.Lock()
	defer c.waiterMutex.Unlock()

	waiting := c.waiters[action]
	for i := range waiting {
		if waiting[i] == pressed {
			waiting = append(waiting[:i], waiting[i+1:]...)
			break
		}
	}
	if len(waiting) == 0 {
		delete(c.waiters, action)
	} else {
		c.waiters[action] = waiting
	}
}

func (c *Controller) record(sample metrics.Sample) {
	if c.options.Recorder != nil {
		c.options.Recorder.Record(sample)
	}
}
