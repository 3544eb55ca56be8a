package controller

import (
	"encoding/json"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/buttons"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/sirupsen/logrus"
)

type statusAnnouncement struct {
	Status shop.Status `json:"status"`
	At     time.Time   `json:"at"`
}

type checkinAnnouncement struct {
	At time.Time `json:"at"`
}

func (c *Controller) channel(name string) string {
	return c.options.Topic + "/" + name
}

// announce publishes the outcome of a delivered press. Status announcements
// are retained so that late subscribers see the current status.
func (c *Controller) announce(action shop.Action, at time.Time) {
	if c.options.PubSub == nil {
		return
	}

	var channel string
	var retained bool
	var payload interface{}
	if status, ok := action.Status(); ok {
		channel, retained, payload = c.channel("status"), true, statusAnnouncement{Status: status, At: at}
	} else {
		channel, payload = c.channel("checkin"), checkinAnnouncement{At: at}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithFields(logrus.Fields{"err": err}).Warn("Failed to marshal announcement")
		return
	}
	c.options.PubSub.Publish(channel, retained, data)
}

// onRemotePress handles an action name published on the press channel.
func (c *Controller) onRemotePress(_ string, data []byte) {
	action, err := shop.ParseAction(string(data))
	if err != nil {
		log.WithFields(logrus.Fields{"err": err}).Warn("Ignoring invalid remote press")
		return
	}
	c.Submit(buttons.Event{Action: action, Source: buttons.SourceRemote})
}
