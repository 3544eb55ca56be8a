// Package buttonctl provides a command line tool to check the configuration,
// print the WiFi settings of the device and send single webhook requests
// without touching a button.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/iot-bp-project-2018/shop-buttons/internal/webhook"
	"github.com/iot-bp-project-2018/shop-buttons/internal/wifi"
	log "github.com/sirupsen/logrus"
)

var (
	configFlag  = flag.String("config", "", "load configuration from `file` (.json, .yaml); compiled-in defaults otherwise")
	verboseFlag = flag.Bool("verbose", false, "enable detailed logging")
	dryRunFlag  = flag.Bool("dry-run", false, "print the request instead of sending it")

	actionFlag = flag.String("action", "", "send the webhook of `action` (close, softopen, open, clear-checkin)")
	wpaFlag    = flag.Bool("wpa", false, "print the wpa_supplicant.conf network block")
	checkFlag  = flag.Bool("check", false, "validate the configuration and list unfilled placeholders")
)

func main() {
	flag.Parse()

	if *actionFlag == "" && !*wpaFlag && !*checkFlag {
		fmt.Fprintln(os.Stderr, "please choose what to do using -action, -wpa or -check")
		flag.Usage()
		os.Exit(2)
	}

	if *verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch {
	case *checkFlag:
		os.Exit(check(cfg))
	case *wpaFlag:
		block, err := wifi.FromConfiguration(cfg.WiFi).WPASupplicantBlock()
		if err != nil {
			fmt.Fprintln(os.Stderr, "wifi:", err)
			os.Exit(1)
		}
		fmt.Print(block)
	default:
		if err := send(cfg, *actionFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func loadConfiguration() (*config.Configuration, error) {
	if *configFlag == "" {
		return config.Default(), nil
	}
	return config.ParseConfiguration(*configFlag)
}

func check(cfg *config.Configuration) int {
	status := 0
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid:", err)
		status = 1
	}
	if err := wifi.FromConfiguration(cfg.WiFi).Validate(); err != nil {
		fmt.Println("invalid wifi:", err)
		status = 1
	}
	if placeholders := cfg.Placeholders(); len(placeholders) != 0 {
		fmt.Println("placeholders:", strings.Join(placeholders, ", "))
		status = 1
	}
	if status == 0 {
		fmt.Println("ok")
	}
	return status
}

func send(cfg *config.Configuration, name string) error {
	action, err := shop.ParseAction(name)
	if err != nil {
		return err
	}
	url, err := cfg.URL(action)
	if err != nil {
		return err
	}
	if config.IsPlaceholder(url) && !*dryRunFlag {
		return fmt.Errorf("webhook URL for '%s' is still a placeholder", action)
	}
	body, err := cfg.Body(action)
	if err != nil {
		return err
	}

	client := webhook.NewClient(cfg.Timeout(), cfg.Retries, cfg.WebhookSecret)
	client.DryRun = *dryRunFlag
	result, err := client.Post(context.Background(), url, body)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"action": action, "status": result.StatusCode, "attempts": result.Attempts}).Info("Webhook sent")
	return nil
}
