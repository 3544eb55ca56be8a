// Package config holds the configuration surface of the button controller.
// The compiled-in constants are the defaults; a JSON or YAML file may
// override any of them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"gopkg.in/yaml.v3"
)

type Configuration struct {
	RecordID      string `json:"record-id" yaml:"record-id"`
	StatusURL     string `json:"status-url" yaml:"status-url"`
	CheckinURL    string `json:"clear-checkin-url" yaml:"clear-checkin-url"`
	CheckinReason string `json:"clear-checkin-reason" yaml:"clear-checkin-reason"`

	// WebhookSecret enables HMAC signing of the request bodies if set.
	WebhookSecret  string `json:"webhook-secret" yaml:"webhook-secret"`
	TimeoutSeconds int    `json:"timeout-seconds" yaml:"timeout-seconds"`
	Retries        int    `json:"retries" yaml:"retries"`

	WiFi WiFiConfiguration `json:"wifi" yaml:"wifi"`

	Buttons        []ButtonConfiguration `json:"buttons" yaml:"buttons"`
	DebounceMillis int                   `json:"debounce-ms" yaml:"debounce-ms"`

	MQTT   *MQTTConfiguration   `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	Influx *InfluxConfiguration `json:"influx,omitempty" yaml:"influx,omitempty"`

	// Listen is the address of the web API. Empty disables it.
	Listen    string `json:"listen" yaml:"listen"`
	TokenFile string `json:"token-file" yaml:"token-file"`
}

type WiFiConfiguration struct {
	SSID     string `json:"ssid" yaml:"ssid"`
	Password string `json:"password" yaml:"password"`
}

type ButtonConfiguration struct {
	Action shop.Action `json:"action" yaml:"action"`
	// Pin is the BCM pin number of the button.
	Pin int `json:"pin" yaml:"pin"`
	// Key is the keyboard key emulating the button on development machines.
	Key string `json:"key" yaml:"key"`
}

type MQTTConfiguration struct {
	Broker string `json:"broker" yaml:"broker"`
	Topic  string `json:"topic" yaml:"topic"`
}

type InfluxConfiguration struct {
	Addr     string `json:"addr" yaml:"addr"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// Default returns the configuration described by the compiled-in constants.
func Default() *Configuration {
	buttons := make([]ButtonConfiguration, len(defaultButtons))
	copy(buttons, defaultButtons)
	return &Configuration{
		RecordID:       DefaultRecordID,
		StatusURL:      URLShopStatus,
		CheckinURL:     URLClearCheckin,
		CheckinReason:  DefaultCheckinReason,
		TimeoutSeconds: defaultTimeoutSeconds,
		Retries:        defaultRetries,
		WiFi: WiFiConfiguration{
			SSID:     WiFiSSID,
			Password: WiFiPassword,
		},
		Buttons:        buttons,
		DebounceMillis: defaultDebounceMillis,
		TokenFile:      defaultTokenFile,
	}
}

// ParseConfiguration reads filename and layers it over Default. The format
// is chosen by the file extension.
func ParseConfiguration(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	// Button lists replace the defaults as a whole.
	config.Buttons = nil
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", filename, err)
	}

	if config.Buttons == nil {
		config.Buttons = Default().Buttons
	}
	for i, button := range config.Buttons {
		if action, err := shop.ParseAction(string(button.Action)); err == nil {
			config.Buttons[i].Action = action
		}
	}
	if config.MQTT != nil && config.MQTT.Topic == "" {
		config.MQTT.Topic = DefaultMQTTTopic
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config file '%s': %w", filename, err)
	}

	return config, nil
}

// Validate checks the structure of the configuration. Placeholder values
// are accepted here; see Placeholders.
func (config *Configuration) Validate() error {
	if config.RecordID == "" {
		return errors.New("missing 'record-id'")
	}
	if err := validateURL("status-url", config.StatusURL); err != nil {
		return err
	}
	if err := validateURL("clear-checkin-url", config.CheckinURL); err != nil {
		return err
	}
	if config.TimeoutSeconds <= 0 {
		return fmt.Errorf("'timeout-seconds' must be positive (was %d)", config.TimeoutSeconds)
	}
	if config.Retries < 0 {
		return fmt.Errorf("'retries' must not be negative (was %d)", config.Retries)
	}
	if config.DebounceMillis < 0 {
		return fmt.Errorf("'debounce-ms' must not be negative (was %d)", config.DebounceMillis)
	}

	if len(config.Buttons) == 0 {
		return errors.New("missing 'buttons'")
	}
	actions := make(map[shop.Action]bool)
	pins := make(map[int]bool)
	keys := make(map[string]bool)
	for i, button := range config.Buttons {
		if _, err := shop.ParseAction(string(button.Action)); err != nil {
			return fmt.Errorf("button %d: %w", i, err)
		}
		if actions[button.Action] {
			return fmt.Errorf("button %d: duplicate action '%s'", i, button.Action)
		}
		actions[button.Action] = true
		if button.Pin < 0 || button.Pin > 27 {
			return fmt.Errorf("button %d: pin %d out of range", i, button.Pin)
		}
		if pins[button.Pin] {
			return fmt.Errorf("button %d: duplicate pin %d", i, button.Pin)
		}
		pins[button.Pin] = true
		if button.Key != "" {
			if len(button.Key) != 1 {
				return fmt.Errorf("button %d: key must be a single character", i)
			}
			if button.Key == string(QuitKey) {
				return fmt.Errorf("button %d: key '%s' is reserved for quitting", i, button.Key)
			}
			if keys[button.Key] {
				return fmt.Errorf("button %d: duplicate key '%s'", i, button.Key)
			}
			keys[button.Key] = true
		}
	}

	if config.MQTT != nil {
		if config.MQTT.Broker == "" {
			return errors.New("missing 'mqtt.broker'")
		}
		if config.MQTT.Topic == "" {
			return errors.New("missing 'mqtt.topic'")
		}
	}

	if config.Influx != nil {
		if config.Influx.Addr == "" {
			return errors.New("missing 'influx.addr'")
		}
		if config.Influx.Database == "" {
			return errors.New("missing 'influx.database'")
		}
	}

	if config.Listen != "" && config.TokenFile == "" {
		return errors.New("missing 'token-file' for web API")
	}

	return nil
}

func validateURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("missing '%s'", name)
	}
	if IsPlaceholder(value) {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("'%s': %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("'%s' must be an http or https URL", name)
	}
	if u.Host == "" {
		return fmt.Errorf("'%s' has no host", name)
	}
	return nil
}

// IsPlaceholder reports whether value still has to be filled in.
func IsPlaceholder(value string) bool {
	return strings.Contains(value, PlaceholderPrefix)
}

// Placeholders returns the names of all fields still holding a placeholder.
func (config *Configuration) Placeholders() []string {
	var names []string
	fields := []struct {
		name  string
		value string
	}{
		{"record-id", config.RecordID},
		{"status-url", config.StatusURL},
		{"clear-checkin-url", config.CheckinURL},
		{"wifi.ssid", config.WiFi.SSID},
		{"wifi.password", config.WiFi.Password},
	}
	for _, field := range fields {
		if IsPlaceholder(field.value) {
			names = append(names, field.name)
		}
	}
	return names
}

// Timeout returns the per-request webhook timeout.
func (config *Configuration) Timeout() time.Duration {
	return time.Duration(config.TimeoutSeconds) * time.Second
}

// Debounce returns the debounce interval of the buttons.
func (config *Configuration) Debounce() time.Duration {
	return time.Duration(config.DebounceMillis) * time.Millisecond
}

// URL returns the webhook endpoint serving action.
func (config *Configuration) URL(action shop.Action) (string, error) {
	if _, ok := action.Status(); ok {
		return config.StatusURL, nil
	}
	if action == shop.ActionClearCheckin {
		return config.CheckinURL, nil
	}
	return "", fmt.Errorf("unknown action '%s'", action)
}

// Body renders the JSON request body for action.
func (config *Configuration) Body(action shop.Action) ([]byte, error) {
	if status, ok := action.Status(); ok {
		return json.Marshal(shop.StatusPayload{ID: config.RecordID, Status: status})
	}
	if action == shop.ActionClearCheckin {
		return json.Marshal(shop.CheckinPayload{ID: config.RecordID, Reason: config.CheckinReason})
	}
	return nil, fmt.Errorf("unknown action '%s'", action)
}

// Button returns the button bound to action.
func (config *Configuration) Button(action shop.Action) (ButtonConfiguration, bool) {
	for _, button := range config.Buttons {
		if button.Action == action {
			return button, true
		}
	}
	return ButtonConfiguration{}, false
}
