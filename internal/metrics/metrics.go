// Package metrics records the outcome of every button press.
package metrics

import (
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{"package": "metrics"})

// Result values of a Sample.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Sample describes one dispatched press.
type Sample struct {
	Action   shop.Action
	Result   string
	Duration time.Duration
	At       time.Time
}

// Recorder stores samples. Record must not block for long.
type Recorder interface {
	Record(sample Sample)
}

// Multi fans samples out to several recorders. Nil entries are skipped.
type Multi []Recorder

func (m Multi) Record(sample Sample) {
	for _, recorder := range m {
		if recorder != nil {
			recorder.Record(sample)
		}
	}
}
