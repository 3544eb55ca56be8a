// Package pubsubwrapper intercepts the traffic of a PubSubClient.
package pubsubwrapper

import (
	"github.com/iot-bp-project-2018/shop-buttons/internal/mqttclient"
	"github.com/sirupsen/logrus"
)

type ReceiveCallback func(channel string, data []byte, callback mqttclient.Callback)
type PublishCallback func(channel string, retained bool, data []byte, ps mqttclient.PubSubClient)

type Wrapper struct {
	ps        mqttclient.PubSubClient
	onReceive ReceiveCallback
	onPublish PublishCallback
}

// Wrap returns a client which routes incoming messages through onReceive and
// outgoing ones through onPublish. A nil hook passes messages through.
func Wrap(ps mqttclient.PubSubClient, onReceive ReceiveCallback, onPublish PublishCallback) mqttclient.PubSubClient {
	if onReceive == nil {
		onReceive = func(channel string, data []byte, callback mqttclient.Callback) {
			callback(channel, data)
		}
	}
	if onPublish == nil {
		onPublish = func(channel string, retained bool, data []byte, ps mqttclient.PubSubClient) {
			ps.Publish(channel, retained, data)
		}
	}
	return &Wrapper{
		ps:        ps,
		onReceive: onReceive,
		onPublish: onPublish,
	}
}

// WrapDryRun keeps subscriptions working but only logs what would have been
// published.
func WrapDryRun(ps mqttclient.PubSubClient, log logrus.FieldLogger) mqttclient.PubSubClient {
	return Wrap(ps, nil, func(channel string, retained bool, data []byte, _ mqttclient.PubSubClient) {
		log.WithFields(logrus.Fields{"channel": channel, "retained": retained, "data": string(data)}).Info("Dry run, not publishing")
	})
}

func (w *Wrapper) Disconnect() {
	w.ps.Disconnect()
}

func (w *Wrapper) Subscribe(channel string, callback mqttclient.Callback) {
	w.ps.Subscribe(channel, func(channel string, data []byte) {
		w.onReceive(channel, data, callback)
	})
}

func (w *Wrapper) Unsubscribe(channel string) {
	w.ps.Unsubscribe(channel)
}

func (w *Wrapper) Publish(channel string, retained bool, data []byte) {
	w.onPublish(channel, retained, data, w.ps)
}
