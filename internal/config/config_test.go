package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantsNotEmpty(t *testing.T) {
	for name, value := range map[string]string{
		"URLShopStatus":    URLShopStatus,
		"CloseShopJSON":    CloseShopJSON,
		"SoftOpenShopJSON": SoftOpenShopJSON,
		"OpenShopJSON":     OpenShopJSON,
		"URLClearCheckin":  URLClearCheckin,
		"ClearCheckinJSON": ClearCheckinJSON,
		"WiFiSSID":         WiFiSSID,
		"WiFiPassword":     WiFiPassword,
	} {
		assert.NotEmpty(t, value, name)
	}
}

func TestTemplatesAreValidJSON(t *testing.T) {
	templates := []struct {
		name  string
		value string
		key   string
		want  string
	}{
		{"CloseShopJSON", CloseShopJSON, "status", "Closed"},
		{"SoftOpenShopJSON", SoftOpenShopJSON, "status", "Soft Open"},
		{"OpenShopJSON", OpenShopJSON, "status", "Open"},
		{"ClearCheckinJSON", ClearCheckinJSON, "reason", "418"},
	}
	for _, tt := range templates {
		var fields map[string]string
		require.NoError(t, json.Unmarshal([]byte(tt.value), &fields), tt.name)
		assert.Len(t, fields, 2, tt.name)
		assert.Equal(t, DefaultRecordID, fields["id"], tt.name)
		assert.Equal(t, tt.want, fields[tt.key], tt.name)
	}
}

func TestDefaultBodyMatchesTemplates(t *testing.T) {
	config := Default()
	expected := map[shop.Action]string{
		shop.ActionClose:        CloseShopJSON,
		shop.ActionSoftOpen:     SoftOpenShopJSON,
		shop.ActionOpen:         OpenShopJSON,
		shop.ActionClearCheckin: ClearCheckinJSON,
	}
	for action, template := range expected {
		body, err := config.Body(action)
		require.NoError(t, err)
		assert.Equal(t, template, string(body), action.String())
	}
}

func TestDefaultURL(t *testing.T) {
	config := Default()

	u, err := config.URL(shop.ActionOpen)
	require.NoError(t, err)
	assert.Equal(t, URLShopStatus, u)

	u, err = config.URL(shop.ActionClearCheckin)
	require.NoError(t, err)
	assert.Equal(t, URLClearCheckin, u)

	_, err = config.URL("explode")
	assert.Error(t, err)
}

func TestDefaultIsValidButFullOfPlaceholders(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())
	assert.Equal(t, []string{"record-id", "status-url", "clear-checkin-url", "wifi.ssid", "wifi.password"}, config.Placeholders())
}

func TestParseConfigurationJSON(t *testing.T) {
	filename := writeFile(t, "device.json", `{
		"record-id": "recAbc123",
		"status-url": "https://hooks.example.org/status",
		"clear-checkin-url": "https://hooks.example.org/checkin",
		"wifi": {"ssid": "makerspace", "password": "hunter2hunter2"},
		"mqtt": {"broker": "tcp://localhost:1883"}
	}`)

	config, err := ParseConfiguration(filename)
	require.NoError(t, err)

	assert.Empty(t, config.Placeholders())
	assert.Equal(t, DefaultMQTTTopic, config.MQTT.Topic)
	assert.Equal(t, defaultRetries, config.Retries)
	assert.Len(t, config.Buttons, 4)

	body, err := config.Body(shop.ActionSoftOpen)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"recAbc123","status":"Soft Open"}`, string(body))
}

func TestParseConfigurationYAML(t *testing.T) {
	filename := writeFile(t, "device.yaml", `
record-id: recXyz
status-url: http://10.0.0.5/status
clear-checkin-url: http://10.0.0.5/checkin
clear-checkin-reason: closing
retries: 0
buttons:
  - action: Close
    pin: 5
  - action: clear-checkin
    pin: 6
    key: c
influx:
  addr: http://localhost:8086
  database: shop
`)

	config, err := ParseConfiguration(filename)
	require.NoError(t, err)

	assert.Equal(t, 0, config.Retries)
	require.Len(t, config.Buttons, 2)
	assert.Equal(t, shop.ActionClose, config.Buttons[0].Action)
	button, ok := config.Button(shop.ActionClearCheckin)
	require.True(t, ok)
	assert.Equal(t, 6, button.Pin)

	body, err := config.Body(shop.ActionClearCheckin)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"recXyz","reason":"closing"}`, string(body))
}

func TestParseConfigurationButtonsReplaceDefaults(t *testing.T) {
	buttons := []struct {
		name    string
		content string
	}{
		{"device.json", `{"buttons": [{"action": "open", "pin": 5, "key": "2"}, {"action": "close", "pin": 6}]}`},
		{"device.yaml", "buttons:\n  - {action: open, pin: 5, key: \"2\"}\n  - {action: close, pin: 6}\n"},
	}
	for _, tt := range buttons {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseConfiguration(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)
			assert.Equal(t, []ButtonConfiguration{
				{Action: shop.ActionOpen, Pin: 5, Key: "2"},
				{Action: shop.ActionClose, Pin: 6},
			}, config.Buttons)
		})
	}
}

func TestParseConfigurationWithoutButtonsKeepsDefaults(t *testing.T) {
	config, err := ParseConfiguration(writeFile(t, "device.json", `{"retries": 1}`))
	require.NoError(t, err)
	assert.Equal(t, Default().Buttons, config.Buttons)
}

func TestParseConfigurationMissingFile(t *testing.T) {
	_, err := ParseConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Configuration)
	}{
		{"empty record id", func(c *Configuration) { c.RecordID = "" }},
		{"bad scheme", func(c *Configuration) { c.StatusURL = "ftp://example.org" }},
		{"no host", func(c *Configuration) { c.CheckinURL = "https://" }},
		{"zero timeout", func(c *Configuration) { c.TimeoutSeconds = 0 }},
		{"negative retries", func(c *Configuration) { c.Retries = -1 }},
		{"no buttons", func(c *Configuration) { c.Buttons = nil }},
		{"unknown action", func(c *Configuration) { c.Buttons[0].Action = "dance" }},
		{"duplicate action", func(c *Configuration) { c.Buttons[1].Action = c.Buttons[0].Action }},
		{"duplicate pin", func(c *Configuration) { c.Buttons[1].Pin = c.Buttons[0].Pin }},
		{"pin out of range", func(c *Configuration) { c.Buttons[0].Pin = 40 }},
		{"long key", func(c *Configuration) { c.Buttons[0].Key = "F1" }},
		{"duplicate key", func(c *Configuration) { c.Buttons[1].Key = c.Buttons[0].Key }},
		{"quit key", func(c *Configuration) { c.Buttons[0].Key = string(QuitKey) }},
		{"mqtt without broker", func(c *Configuration) { c.MQTT = &MQTTConfiguration{Topic: "x"} }},
		{"influx without database", func(c *Configuration) { c.Influx = &InfluxConfiguration{Addr: "http://x"} }},
		{"web api without token file", func(c *Configuration) { c.Listen = ":8080"; c.TokenFile = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestDefaultDoesNotShareButtons(t *testing.T) {
	a := Default()
	a.Buttons[0].Pin = 2
	assert.Equal(t, 17, Default().Buttons[0].Pin)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

func TestExampleConfigurationMatchesDefaults(t *testing.T) {
	config, err := ParseConfiguration(filepath.Join("..", "..", "config", "buttons.example.yaml"))
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.Buttons, config.Buttons)
	assert.Equal(t, expected.Placeholders(), config.Placeholders())
	for _, action := range shop.Actions {
		body, err := config.Body(action)
		require.NoError(t, err)
		defaultBody, _ := expected.Body(action)
		assert.Equal(t, string(defaultBody), string(body))
	}
}
