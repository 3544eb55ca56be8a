package config

// Values the integrator is expected to replace before deploying the device.
// They form the bottom layer of every Configuration.
const (
	URLShopStatus    = "REPLACE_WITH_URL_TO_STATUS_WEBHOOK"
	CloseShopJSON    = `{"id":"REPLACE_WITH_MAKERSPACE_RECORD_ID","status":"Closed"}`
	SoftOpenShopJSON = `{"id":"REPLACE_WITH_MAKERSPACE_RECORD_ID","status":"Soft Open"}`
	OpenShopJSON     = `{"id":"REPLACE_WITH_MAKERSPACE_RECORD_ID","status":"Open"}`

	URLClearCheckin  = "REPLACE_WITH_URL_TO_CLEAR_CHECKINS_WEBHOOK"
	ClearCheckinJSON = `{"id":"REPLACE_WITH_MAKERSPACE_RECORD_ID","reason":"418"}`

	WiFiSSID     = "REPLACE_WITH_WIFI_SSID"
	WiFiPassword = "REPLACE_WITH_WIFI_PASSWORD"
)

const (
	// DefaultRecordID is the record id embedded in the JSON templates above.
	DefaultRecordID = "REPLACE_WITH_MAKERSPACE_RECORD_ID"
	// DefaultCheckinReason is the reason embedded in ClearCheckinJSON.
	DefaultCheckinReason = "418"

	// PlaceholderPrefix marks a value that has not been filled in yet.
	PlaceholderPrefix = "REPLACE_WITH_"
)

// QuitKey stops the keyboard reader and cannot be bound to a button.
const QuitKey = 'q'

// DefaultMQTTTopic prefixes all MQTT channels unless configured otherwise.
const DefaultMQTTTopic = "makerspace/shop"

const (
	defaultTimeoutSeconds = 10
	defaultRetries        = 2
	defaultDebounceMillis = 50
	defaultTokenFile      = "config/tokens.json"
)

// Note: go-rpio uses raw BCM pin numbers, not physical ones.
// Raspberry Pi pinout map: https://pinout.xyz
var defaultButtons = []ButtonConfiguration{
	{Action: "close", Pin: 17, Key: "1"},         // physical pin 11
	{Action: "softopen", Pin: 27, Key: "2"},      // physical pin 13
	{Action: "open", Pin: 22, Key: "3"},          // physical pin 15
	{Action: "clear-checkin", Pin: 23, Key: "4"}, // physical pin 16
}
