package buttons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iot-bp-project-2018/shop-buttons/internal/config"
	"github.com/iot-bp-project-2018/shop-buttons/internal/shop"
	"github.com/iot-bp-project-2018/shop-buttons/internal/util/terminal"
	"github.com/sirupsen/logrus"
)

// QuitKey stops the keyboard reader.
const QuitKey = config.QuitKey

// KeyboardReader maps single keystrokes to actions.
type KeyboardReader struct {
	input io.Reader
	keys  map[byte]shop.Action
}

func NewKeyboardReader(input io.Reader, buttons []config.ButtonConfiguration) *KeyboardReader {
	keys := make(map[byte]shop.Action)
	for _, button := range buttons {
		if len(button.Key) == 1 {
			keys[button.Key[0]] = button.Action
		}
	}
	return &KeyboardReader{input: input, keys: keys}
}

// Run reads keystrokes until ctx is done, the input ends or QuitKey is
// typed. If the input is a terminal it is put into cbreak mode for the
// duration of the call.
func (r *KeyboardReader) Run(ctx context.Context, events chan<- Event) error {
	if file, ok := r.input.(*os.File); ok && terminal.IsTerminal(int(file.Fd())) {
		fd := int(file.Fd())
		state, err := terminal.MakeCbreak(fd)
		if err != nil {
			return fmt.Errorf("keyboard: %w", err)
		}
		defer terminal.Restore(fd, state)
	}

	log.WithFields(logrus.Fields{"keys": len(r.keys)}).Info("Reading keyboard buttons, press 'q' to stop")

	// The read blocks and cannot be interrupted, so it lives in its own
	// goroutine that ends with the input.
	keystrokes := make(chan byte)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		buffer := make([]byte, 1)
		for {
			n, err := r.input.Read(buffer)
			if n == 1 {
				select {
				case keystrokes <- buffer[0]:
				case <-stop:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("keyboard: %w", err)
		case key := <-keystrokes:
			if key == QuitKey {
				return nil
			}
			action, ok := r.keys[key]
			if !ok {
				continue
			}
			log.WithFields(logrus.Fields{"action": action, "key": string(key)}).Debug("Key pressed")
			if !send(ctx, events, Event{Action: action, Source: SourceKeyboard, At: time.Now()}) {
				return ctx.Err()
			}
		}
	}
}
