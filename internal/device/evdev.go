// Package device wraps the two kernel-facing collaborators the driver
// needs: an evdev source to read physical key edges from, and a uinput
// sink to emit the interpreted events on. Neither file touches the
// engine package's decision logic; they only translate wire formats.
package device

import (
	"fmt"
	"path/filepath"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	log "github.com/sirupsen/logrus"
)

// Source reads raw key edges from one physical keyboard device,
// optionally grabbing it so other consumers (the X/Wayland compositor
// included) stop seeing its events directly.
type Source struct {
	dev    *evdev.InputDevice
	grabbed bool
}

// OpenSource opens the given device node. path must be a concrete
// node, not a glob; a glob is resolved via FindKeyboards first.
func OpenSource(path string) (*Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input device %s: %w", path, err)
	}
	log.Infof("opened input device %s (%s)", path, dev.Name)
	return &Source{dev: dev}, nil
}

// FindKeyboards lists input devices matching glob that expose KEY_A or
// KEY_SPACE, the same heuristic mouseless uses to tell a
// keyboard apart from a mouse or a lid-switch node.
func FindKeyboards(glob string) ([]string, error) {
	all, err := evdev.ListInputDevices(glob)
	if err != nil {
		return nil, fmt.Errorf("listing input devices matching %s: %w", glob, err)
	}
	var paths []string
	for _, d := range all {
		if looksLikeKeyboard(d) {
			paths = append(paths, d.Fn)
		}
	}
	return paths, nil
}

func looksLikeKeyboard(d *evdev.InputDevice) bool {
	for capType, codes := range d.Capabilities {
		if capType.Name != "EV_KEY" {
			continue
		}
		for _, code := range codes {
			if code.Code == evdev.KEY_A || code.Code == evdev.KEY_SPACE {
				return true
			}
		}
	}
	return false
}

// Grab takes exclusive control of the device: the kernel stops routing
// its events to any other reader, including the desktop session.
func (s *Source) Grab() error {
	if err := s.dev.Grab(); err != nil {
		return fmt.Errorf("grabbing %s: %w", s.dev.Fn, err)
	}
	s.grabbed = true
	return nil
}

// Next blocks for the next raw EV_KEY event and reports it as
// (code, isPress, ts), where ts is the kernel's own timestamp for the
// event, not the time it happened to be read here — a backlog of
// queued events must still arbitrate tap/hold against when each one
// actually occurred (SPEC_FULL.md §3). Non-key events (EV_SYN, EV_MSC,
// LED feedback) are skipped transparently.
func (s *Source) Next() (code uint16, isPress bool, ts time.Time, err error) {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			return 0, false, time.Time{}, fmt.Errorf("reading from %s: %w", s.dev.Fn, err)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		// evdev reports 2 for auto-repeat; the matrix already collapses
		// repeats on its own, but anything other than 0/1 isn't an edge.
		if ev.Value != 0 && ev.Value != 1 {
			continue
		}
		return uint16(ev.Code), ev.Value == 1, kernelTimestamp(ev), nil
	}
}

// kernelTimestamp converts the evdev input_event's struct timeval into
// a monotonic-enough time.Time for deadline arithmetic.
func kernelTimestamp(ev *evdev.InputEvent) time.Time {
	return time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000)
}

// Name reports the device's kernel-advertised name, for logging.
func (s *Source) Name() string { return s.dev.Name }

// Path reports the device node this source was opened from.
func (s *Source) Path() string { return filepath.Clean(s.dev.Fn) }

// Close releases the grab, if taken, and closes the device node.
func (s *Source) Close() error {
	if s.grabbed {
		if err := s.dev.Release(); err != nil {
			log.Warnf("releasing grab on %s: %v", s.dev.Fn, err)
		}
	}
	return s.dev.File.Close()
}
