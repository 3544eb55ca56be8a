package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/sirupsen/logrus"
)

const measurementName = "button_press"

// influxBacklog is the number of samples waiting to be written before new
// samples are discarded.
const influxBacklog = 64

// ErrBucketTooSmall is returned by Presses for buckets under one second.
var ErrBucketTooSmall = errors.New("bucket must be at least 1s")

// Influx writes a point per sample into an InfluxDB 1.x database. Writes
// happen in the background so Record never waits for the database.
type Influx struct {
	client   client.Client
	database string

	samples   chan Sample
	done      chan struct{}
	closeOnce sync.Once
}

func NewInflux(cfg *config.InfluxConfiguration) (*Influx, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("influx: %w", err)
	}
	i := &Influx{
		client:   c,
		database: cfg.Database,
		samples:  make(chan Sample, influxBacklog),
		done:     make(chan struct{}),
	}
	go i.writer()
	return i, nil
}

// Record queues the sample for writing. If the backlog is full the sample
// is discarded.
func (i *Influx) Record(sample Sample) {
	select {
	case i.samples <- sample:
	default:
		log.WithFields(logrus.Fields{"action": sample.Action, "result": sample.Result}).Warn("Influx backlog full, sample discarded")
	}
}

func (i *Influx) writer() {
	defer close(i.done)
	for sample := range i.samples {
		i.write(sample)
	}
}

func (i *Influx) write(sample Sample) {
	bp, err := i.batch(sample)
	if err != nil {
		log.WithFields(logrus.Fields{"err": err}).Warn("Failed to build influx point")
		return
	}
	if err := i.client.Write(bp); err != nil {
		log.WithFields(logrus.Fields{"err": err}).Warn("Failed to write influx point")
	}
}

func (i *Influx) batch(sample Sample) (client.BatchPoints, error) {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  i.database,
		Precision: "ms",
	})
	if err != nil {
		return nil, err
	}
	tags := map[string]string{"action": sample.Action.String(), "result": sample.Result}
	fields := map[string]interface{}{"latency_ms": float64(sample.Duration) / float64(time.Millisecond)}
	pt, err := client.NewPoint(measurementName, tags, fields, sample.At)
	if err != nil {
		return nil, err
	}
	bp.AddPoint(pt)
	return bp, nil
}

// Presses returns the number of successful presses of action per bucket of
// the given size between from and to.
func (i *Influx) Presses(action shop.Action, from, to time.Time, bucket time.Duration) ([][]interface{}, error) {
	if bucket < time.Second {
		return nil, ErrBucketTooSmall
	}
	cmd := fmt.Sprintf("SELECT count(latency_ms) FROM %s WHERE time >= %d AND time < %d AND action = '%s' AND result = '%s' GROUP BY time(%ds)",
		measurementName, from.UnixNano(), to.UnixNano(), action, ResultOK, int(bucket/time.Second))
	resp, err := i.client.Query(client.NewQuery(cmd, i.database, "ms"))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	if resp.Error() != nil {
		return nil, fmt.Errorf("influx query: %w", resp.Error())
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Series) == 0 {
		return nil, nil
	}
	return resp.Results[0].Series[0].Values, nil
}

// Close writes the queued samples and closes the connection. Record must
// not be called afterwards.
func (i *Influx) Close() error {
	var err error
	i.closeOnce.Do(func() {
		close(i.samples)
		<-i.done
		err = i.client.Close()
	})
	return err
}
