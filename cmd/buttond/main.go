// Package buttond provides the daemon running on the device. It watches the
// buttons, reports presses to the webhooks and optionally serves the web API,
// announces status changes via MQTT and records metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/buttons"
	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/controller"
	"github.com/iot-bp-project-2018/shop-buttons/internal/metrics"
	"github.com/iot-bp-project-2018/shop-buttons/internal/mqttclient"
	"github.com/iot-bp-project-2018/shop-buttons/internal/util/pubsubwrapper"
	"github.com/iot-bp-project-2018/shop-buttons/internal/webapi"
	"github.com/iot-bp-project-2018/shop-buttons/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	configFlag  = flag.String("config", "", "load configuration from `file` (.json, .yaml); compiled-in defaults otherwise")
	mqttFlag    = flag.String("mqtt", "", "MQTT broker URI (format is scheme://host:port), overrides the configuration")
	dryRunFlag  = flag.Bool("dry-run", false, "log webhooks and announcements instead of sending them")
	verboseFlag = flag.Bool("verbose", false, "enable detailed logging")
)

// errInputEnded stops the daemon once the button input is exhausted.
var errInputEnded = errors.New("button input ended")

func main() {
	flag.Parse()

	if *verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if placeholders := cfg.Placeholders(); len(placeholders) != 0 {
		if !*dryRunFlag {
			fmt.Fprintf(os.Stderr, "configuration still contains placeholders: %s\n", strings.Join(placeholders, ", "))
			fmt.Fprintln(os.Stderr, "fill them in or start with -dry-run")
			os.Exit(1)
		}
		log.WithFields(log.Fields{"fields": placeholders}).Warn("Configuration contains placeholders")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, errInputEnded) {
		log.WithFields(log.Fields{"err": err}).Error("Daemon stopped")
		os.Exit(1)
	}
}

func loadConfiguration() (*config.Configuration, error) {
	var cfg *config.Configuration
	if *configFlag == "" {
		cfg = config.Default()
	} else {
		var err error
		cfg, err = config.ParseConfiguration(*configFlag)
		if err != nil {
			return nil, err
		}
	}

	if *mqttFlag != "" {
		topic := config.DefaultMQTTTopic
		if cfg.MQTT != nil {
			topic = cfg.MQTT.Topic
		}
		cfg.MQTT = &config.MQTTConfiguration{Broker: *mqttFlag, Topic: topic}
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Configuration) error {
	client := webhook.NewClient(cfg.Timeout(), cfg.Retries, cfg.WebhookSecret)
	client.DryRun = *dryRunFlag

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorders := metrics.Multi{metrics.NewPrometheus(registry)}

	var history webapi.History
	if cfg.Influx != nil {
		influx, err := metrics.NewInflux(cfg.Influx)
		if err != nil {
			return err
		}
		defer influx.Close()
		recorders = append(recorders, influx)
		history = influx
	}

	options := controller.Options{Recorder: recorders}
	if cfg.MQTT != nil {
		ps := mqttclient.NewMQTTClientWithServer(cfg.MQTT.Broker)
		defer ps.Disconnect()
		if *dryRunFlag {
			ps = pubsubwrapper.WrapDryRun(ps, log.WithFields(log.Fields{"package": "main"}))
		}
		options.PubSub = ps
		options.Topic = cfg.MQTT.Topic
	}

	c := controller.New(cfg, client, options)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Run(ctx)
	})

	g.Go(func() error {
		reader := buttons.NewReader(cfg.Buttons, cfg.Debounce())
		if err := c.RunReader(ctx, reader); err != nil && ctx.Err() == nil {
			return err
		}
		if ctx.Err() == nil {
			return errInputEnded
		}
		return nil
	})

	if cfg.Listen != "" {
		tokens, err := webapi.LoadTokens(cfg.TokenFile)
		if err != nil {
			return err
		}
		server := webapi.NewServer(c, tokens, registry, history)
		g.Go(func() error {
			return server.Start(cfg.Listen)
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdown)
		})
	}

	log.WithFields(log.Fields{"buttons": len(cfg.Buttons), "dryRun": *dryRunFlag}).Info("Shop buttons ready")
	return g.Wait()
}
