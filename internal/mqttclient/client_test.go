package mqttclient

import (
	"sync"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records subscriptions. Methods not overridden panic.
type fakeClient struct {
	mqtt.Client

	mutex        sync.Mutex
	subscribed   []string
	unsubscribed []string
	handlers     map[string]mqtt.MessageHandler
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.subscribed = append(f.subscribed, topic)
	if f.handlers == nil {
		f.handlers = make(map[string]mqtt.MessageHandler)
	}
	f.handlers[topic] = callback
	return nil
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return nil
}

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return m.retained }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func nop(channel string, data []byte) {}

func TestSubscriptionsAreRestoredOnConnect(t *testing.T) {
	fake := &fakeClient{}
	c := &mqttClient{client: fake}

	c.Subscribe("shop/press", nop)
	assert.Empty(t, fake.subscribed)

	c.onConnect()
	assert.Equal(t, []string{"shop/press"}, fake.subscribed)

	c.Subscribe("shop/other", nop)
	assert.Equal(t, []string{"shop/press", "shop/other"}, fake.subscribed)

	c.Unsubscribe("shop/press")
	assert.Equal(t, []string{"shop/press"}, fake.unsubscribed)
	require.Len(t, c.subscriptions, 1)
	assert.Equal(t, "shop/other", c.subscriptions[0].channel)

	c.mutex.Lock()
	c.connected = false
	c.mutex.Unlock()
	fake.subscribed = nil

	c.onConnect()
	assert.Equal(t, []string{"shop/other"}, fake.subscribed)
}

func TestUnsubscribeWhileDisconnected(t *testing.T) {
	fake := &fakeClient{}
	c := &mqttClient{client: fake}

	c.Subscribe("shop/press", nop)
	c.Subscribe("shop/press", nop)
	c.Unsubscribe("shop/press")

	assert.Empty(t, c.subscriptions)
	assert.Empty(t, fake.unsubscribed)

	c.onConnect()
	assert.Empty(t, fake.subscribed)
}

func TestRetainedMessagesAreIgnored(t *testing.T) {
	fake := &fakeClient{}
	c := &mqttClient{client: fake}

	var received []string
	c.Subscribe("shop/press", func(channel string, data []byte) {
		received = append(received, string(data))
	})
	c.onConnect()
	handler := fake.handlers["shop/press"]
	require.NotNil(t, handler)

	handler(nil, fakeMessage{topic: "shop/press", payload: []byte("open"), retained: true})
	handler(nil, fakeMessage{topic: "shop/press", payload: []byte("close")})

	assert.Equal(t, []string{"close"}, received)
}
