// Package mqttclient provides an MQTT-based implementation of PubSubClient
// used to announce status changes and receive remote presses.
package mqttclient

import (
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "mqttclient"})

// PubSubClient provides an interface to a publish/subscribe system.
type PubSubClient interface {
	// Disconnect closes the connection with the pub/sub server.
	Disconnect()
	// Subscribe registers the callback function with the given channel. When a
	// message is published on the channel, the callback function will be
	// called from a new goroutine. Subscriptions survive reconnects.
	// Retained messages are not delivered, so a resubscription does not
	// replay old messages. Callback should not be nil.
	Subscribe(channel string, callback Callback)
	// Unsubscribe unregisters all callbacks that were registered to the given
	// channel.
	Unsubscribe(channel string)
	// Publish sends a message to a channel. A retained message is handed to
	// later subscribers as well. Message delivery is not guaranteed.
	Publish(channel string, retained bool, data []byte)
}

// Callback is a callback function to handle an incoming message on a
// channel.
type Callback func(channel string, data []byte)

type subscription struct {
	channel  string
	callback Callback
}

type mqttClient struct {
	client mqtt.Client

	// mutex protects subscriptions and connected.
	mutex         sync.Mutex
	subscriptions []subscription
	connected     bool
}

// NewMQTTClientWithServer configures a new MQTT client using the specified
// server and a client ID generated from the hostname.
func NewMQTTClientWithServer(server string) PubSubClient {
	options := mqtt.NewClientOptions()
	options.AddBroker(server)
	options.SetClientID(getClientID())
	options.SetConnectTimeout(1 * time.Second)
	// Reconnects are handled by onConnectionLost.
	options.SetAutoReconnect(false)
	return NewMQTTClientWithOptions(options)
}

func getClientID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("shopbuttons-%s%d", hostname, time.Now().Unix())
}

// NewMQTTClientWithOptions configures a new MQTT client using the provided
// options. Connecting happens in the background.
func NewMQTTClientWithOptions(options *mqtt.ClientOptions) PubSubClient {
	c := new(mqttClient)

	if options.OnConnect != nil {
		customOnConnect := options.OnConnect
		options.OnConnect = func(client mqtt.Client) {
			go customOnConnect(client)
			c.onConnect()
		}
	} else {
		options.OnConnect = func(client mqtt.Client) {
			c.onConnect()
		}
	}

	if options.OnConnectionLost != nil {
		customOnConnectionLost := options.OnConnectionLost
		options.OnConnectionLost = func(client mqtt.Client, err error) {
			go customOnConnectionLost(client, err)
			c.onConnectionLost(err)
		}
	} else {
		options.OnConnectionLost = func(client mqtt.Client, err error) {
			c.onConnectionLost(err)
		}
	}

	c.client = mqtt.NewClient(options)
	go c.connect()
	return c
}

func (c *mqttClient) Disconnect() {
	c.client.Disconnect(250) // ms
}

func (c *mqttClient) Subscribe(channel string, callback Callback) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	sub := subscription{channel: channel, callback: callback}
	c.subscriptions = append(c.subscriptions, sub)

	if c.connected {
		c.subscribeTo(sub)
	}
}

func (c *mqttClient) Unsubscribe(channel string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i := 0; i < len(c.subscriptions); i++ {
		if channel == c.subscriptions[i].channel {
			c.subscriptions[i] = c.subscriptions[len(c.subscriptions)-1]
			c.subscriptions = c.subscriptions[:len(c.subscriptions)-1]
			i--
		}
	}

	if c.connected {
		c.client.Unsubscribe(channel)
	}
}

func (c *mqttClient) Publish(channel string, retained bool, data []byte) {
	token := c.client.Publish(channel, 1, retained, data)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.WithFields(logrus.Fields{"channel": channel, "err": token.Error()}).Warn("Publish failed")
		}
	}()
}

func (c *mqttClient) connect() {
	for {
		reader := c.client.OptionsReader()
		log.WithFields(logrus.Fields{"clientID": reader.ClientID()}).Debug("Trying to connect")
		token := c.client.Connect()
		if token.Wait() && token.Error() == nil {
			log.Println("Connection acquired")
			return
		}
		log.Warnln("Connect error:", token.Error())
		time.Sleep(10 * time.Second)
	}
}

func (c *mqttClient) onConnect() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, sub := range c.subscriptions {
		c.subscribeTo(sub)
	}

	c.connected = true
}

func (c *mqttClient) subscribeTo(sub subscription) {
	// Ignores the returned token for now...
	c.client.Subscribe(sub.channel, 1, sub.handler)
}

func (sub subscription) handler(client mqtt.Client, message mqtt.Message) {
	if message.Retained() {
		log.WithFields(logrus.Fields{"channel": message.Topic()}).Debug("Ignoring retained message")
		return
	}
	sub.callback(message.Topic(), message.Payload())
}

func (c *mqttClient) onConnectionLost(err error) {
	c.mutex.Lock()
	c.connected = false
	c.mutex.Unlock()

	log.Println("Connection lost:", err)
	time.Sleep(10 * time.Second)
	c.connect()
}
