package device

import (
	"fmt"

	"github.com/ThomasT75/uinput"
)

// Sink is the virtual keyboard the driver writes its interpreted
// output events to. It never decides anything; it is a thin adapter
// from (code, isPress) to the uinput ioctl calls.
type Sink struct {
	kbd uinput.Keyboard
}

// NewSink creates a new virtual keyboard device node, advertised under
// name, that downstream software will see exactly like a physical one.
func NewSink(name string) (*Sink, error) {
	kbd, err := uinput.CreateKeyboard("/dev/uinput", []byte(name))
	if err != nil {
		return nil, fmt.Errorf("creating virtual keyboard %q: %w", name, err)
	}
	return &Sink{kbd: kbd}, nil
}

// Emit writes one key edge to the virtual keyboard.
func (s *Sink) Emit(code uint16, isPress bool) error {
	var err error
	if isPress {
		err = s.kbd.KeyDown(int(code))
	} else {
		err = s.kbd.KeyUp(int(code))
	}
	if err != nil {
		return fmt.Errorf("writing key event (code=%d press=%v): %w", code, isPress, err)
	}
	return nil
}

// Close tears down the virtual device node.
func (s *Sink) Close() error {
	return s.kbd.Close()
}
