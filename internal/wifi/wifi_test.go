package wifi

import (
	"strings"
	"testing"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWPASupplicantBlock(t *testing.T) {
	block, err := Network{SSID: "makerspace", Password: "correct horse"}.WPASupplicantBlock()
	require.NoError(t, err)
	assert.Equal(t, "network={\n\tssid=\"makerspace\"\n\tpsk=\"correct horse\"\n\tkey_mgmt=WPA-PSK\n}\n", block)
}

func TestWPASupplicantBlockOpenNetwork(t *testing.T) {
	block, err := Network{SSID: "guests"}.WPASupplicantBlock()
	require.NoError(t, err)
	assert.Contains(t, block, "key_mgmt=NONE")
	assert.NotContains(t, block, "psk=")
}

func TestQuoteHexEncodesSpecialCharacters(t *testing.T) {
	block, err := Network{SSID: `say "hi"`, Password: `back\slash`}.WPASupplicantBlock()
	require.NoError(t, err)
	assert.Contains(t, block, "ssid=7361792022686922\n")
	assert.Contains(t, block, "psk=\"back\\slash\"\n")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		network Network
		valid   bool
	}{
		{Network{SSID: "a", Password: "12345678"}, true},
		{Network{SSID: "", Password: "12345678"}, false},
		{Network{SSID: strings.Repeat("s", 33)}, false},
		{Network{SSID: "a", Password: "short"}, false},
		{Network{SSID: "a", Password: strings.Repeat("p", 64)}, false},
		{Network{SSID: "a", Password: "pässwörter"}, false},
	}
	for _, tt := range tests {
		err := tt.network.Validate()
		if tt.valid {
			assert.NoError(t, err, "%+v", tt.network)
		} else {
			assert.Error(t, err, "%+v", tt.network)
		}
	}
}

func TestFromDefaultConfiguration(t *testing.T) {
	network := FromConfiguration(config.Default().WiFi)
	assert.Equal(t, config.WiFiSSID, network.SSID)
	assert.Equal(t, config.WiFiPassword, network.Password)
	assert.NoError(t, network.Validate())
}
