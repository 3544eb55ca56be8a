// Package wifi renders the network credentials of the device into the
// configuration format of wpa_supplicant.
package wifi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
)

type Network struct {
	SSID     string
	Password string
}

func FromConfiguration(cfg config.WiFiConfiguration) Network {
	return Network{SSID: cfg.SSID, Password: cfg.Password}
}

// Validate checks the limits of IEEE 802.11 and WPA2-PSK. An empty password
// denotes an open network.
func (n Network) Validate() error {
	if len(n.SSID) == 0 || len(n.SSID) > 32 {
		return fmt.Errorf("ssid must be 1 to 32 bytes long (was %d)", len(n.SSID))
	}
	if n.Password == "" {
		return nil
	}
	if len(n.Password) < 8 || len(n.Password) > 63 {
		return fmt.Errorf("password must be 8 to 63 characters long (was %d)", len(n.Password))
	}
	for _, r := range n.Password {
		if r < 0x20 || r > 0x7e {
			return errors.New("password must consist of printable ASCII characters")
		}
	}
	return nil
}

// WPASupplicantBlock returns a network={...} block for wpa_supplicant.conf.
func (n Network) WPASupplicantBlock() (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", quote(n.SSID))
	if n.Password == "" {
		b.WriteString("\tkey_mgmt=NONE\n")
	} else {
		// A hex psk would be read as the raw key, so the passphrase is
		// always quoted. wpa_supplicant quotes end at the last '"'.
		fmt.Fprintf(&b, "\tpsk=\"%s\"\n", n.Password)
		b.WriteString("\tkey_mgmt=WPA-PSK\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// quote writes an SSID as a wpa_supplicant string. SSIDs which cannot be
// written as a plain quoted string are hex encoded.
func quote(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e || s[i] == '"' || s[i] == '\\' {
			return fmt.Sprintf("%x", s)
		}
	}
	return `"` + s + `"`
}
