package pubsubwrapper

import (
	"testing"

	"github.com/iot-bp-project-2018/shop-buttons/internal/mqttclient"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type loopback struct {
	published []string
	callbacks map[string]mqttclient.Callback
}

func (l *loopback) Disconnect() {}

func (l *loopback) Subscribe(channel string, callback mqttclient.Callback) {
	l.callbacks[channel] = callback
}

func (l *loopback) Unsubscribe(channel string) {
	delete(l.callbacks, channel)
}

func (l *loopback) Publish(channel string, retained bool, data []byte) {
	l.published = append(l.published, channel)
	if callback, ok := l.callbacks[channel]; ok {
		callback(channel, data)
	}
}

func TestWrapPassesThrough(t *testing.T) {
	inner := &loopback{callbacks: make(map[string]mqttclient.Callback)}
	ps := Wrap(inner, nil, nil)

	var received string
	ps.Subscribe("a/press", func(channel string, data []byte) { received = string(data) })
	ps.Publish("a/press", false, []byte("open"))

	assert.Equal(t, "open", received)
	assert.Equal(t, []string{"a/press"}, inner.published)

	ps.Unsubscribe("a/press")
	assert.Empty(t, inner.callbacks)
}

func TestWrapDryRunOnlyLogs(t *testing.T) {
	inner := &loopback{callbacks: make(map[string]mqttclient.Callback)}
	logger, hook := test.NewNullLogger()
	ps := WrapDryRun(inner, logger)

	ps.Publish("a/status", true, []byte(`{"status":"Open"}`))

	assert.Empty(t, inner.published)
	if assert.Len(t, hook.AllEntries(), 1) {
		entry := hook.LastEntry()
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, "a/status", entry.Data["channel"])
		assert.Equal(t, true, entry.Data["retained"])
	}
}
