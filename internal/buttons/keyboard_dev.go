//go:build !linux || !arm
// +build !linux !arm

package buttons

import (
	"os"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
)

func newPlatformReader(buttons []config.ButtonConfiguration, _ time.Duration) Reader {
	return NewKeyboardReader(os.Stdin, buttons)
}
