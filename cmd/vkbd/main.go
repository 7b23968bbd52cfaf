package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/inputlayers/vkbd/internal/config"
	"github.com/inputlayers/vkbd/internal/device"
	"github.com/inputlayers/vkbd/internal/diag"
	"github.com/inputlayers/vkbd/internal/engine"
)

var version = "unknown" // set by build

var opts struct {
	Device   string `short:"d" long:"device" description:"Input device node to grab (auto-detected if unset)"`
	Matrix   string `short:"m" long:"matrix" description:"Path to the physical key matrix JSON file" required:"true"`
	Layers   string `short:"l" long:"layer" description:"Path to the layer stack JSON file" required:"true"`
	Settings string `short:"s" long:"settings" description:"Path to an optional TOML settings file"`
	Verbose  bool   `short:"v" long:"verbose" description:"Enable debug logging"`
	NoGrab   bool   `long:"no-grab" description:"Do not grab the input device exclusively (for testing)"`
	Version  bool   `long:"version" description:"Print the version and exit"`
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	log.SetOutput(os.Stdout)
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if report, err := diag.CheckSelf(); err != nil {
		log.Warnf("could not check process capabilities: %v", err)
	} else if !report.OK() {
		log.Warnf("%s — device grab or virtual keyboard creation may fail", report)
	}

	if err := device.LockMemory(); err != nil {
		log.Debugf("could not lock process memory: %v", err)
	}

	settings, err := config.LoadSettings(opts.Settings)
	if err != nil {
		log.Fatalf("loading settings: %v", err)
	}
	if !opts.Verbose {
		if lvl, err := log.ParseLevel(settings.LogLevel); err != nil {
			log.Warnf("ignoring settings log_level: %v", err)
		} else {
			log.SetLevel(lvl)
		}
	}
	if opts.NoGrab {
		settings.Grab = false
	}
	if opts.Device != "" {
		settings.DeviceGlob = opts.Device
	}

	if err := run(settings); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(settings config.Settings) error {
	matrix, rows, cols, err := config.LoadMatrix(opts.Matrix)
	if err != nil {
		return fmt.Errorf("loading matrix: %w", err)
	}
	layers, err := config.LoadLayers(opts.Layers, rows, cols)
	if err != nil {
		return fmt.Errorf("loading layers: %w", err)
	}
	log.Infof("loaded matrix (%d rows x %d cols) and %d layers", rows, cols, layers.Len())

	devicePath := settings.DeviceGlob
	if !looksLikeExplicitPath(devicePath) {
		found, err := device.FindKeyboards(devicePath)
		if err != nil {
			return fmt.Errorf("finding keyboard devices: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("no keyboard-like input device found matching %s", devicePath)
		}
		devicePath = found[0]
	}

	src, err := device.OpenSource(devicePath)
	if err != nil {
		return fmt.Errorf("opening input source: %w", err)
	}
	defer src.Close()

	if settings.Grab {
		if err := src.Grab(); err != nil {
			return fmt.Errorf("grabbing input source: %w", err)
		}
		log.Infof("grabbed %s (%s)", src.Path(), src.Name())
	}

	sink, err := device.NewSink("vkbd virtual keyboard")
	if err != nil {
		return fmt.Errorf("creating virtual keyboard: %w", err)
	}
	defer sink.Close()

	eng := engine.NewEngine(matrix, layers, engine.SystemClock{})

	return driveLoop(eng, src, sink)
}

func looksLikeExplicitPath(s string) bool {
	return len(s) > 0 && s[0] == '/' && !containsGlobChars(s)
}

func containsGlobChars(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// unknownCodeLogInterval is how often driveLoop reports the running
// count of input codes with no matrix binding (SPEC_FULL.md §6).
const unknownCodeLogInterval = 30 * time.Second

// driveLoop receives physical edges from the readLoop goroutine and
// feeds them to the engine, waking early on SIGINT/SIGTERM
// for a clean shutdown, and on the engine's own deadline queue so
// tap/hold timeouts fire even with no further key activity.
func driveLoop(eng *engine.Engine, src *device.Source, sink *device.Sink) error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	events := make(chan rawEdge, 16)
	errs := make(chan error, 1)
	go readLoop(src, events, errs)

	unknownTicker := time.NewTicker(unknownCodeLogInterval)
	defer unknownTicker.Stop()
	var lastUnknown uint64

	for {
		var timer *time.Timer
		if dl, ok := eng.NextDeadline(); ok {
			d := time.Until(dl)
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
		}

		select {
		case sig := <-sigc:
			log.Infof("received %v, shutting down", sig)
			stopTimer(timer)
			return nil

		case err := <-errs:
			stopTimer(timer)
			return fmt.Errorf("reading input device: %w", err)

		case ev := <-events:
			stopTimer(timer)
			edge := engine.Release
			if ev.isPress {
				edge = engine.Press
			}
			flushOut(sink, eng.OnEvent(ev.code, edge, ev.ts))

		case <-timerC(timer):
			flushOut(sink, eng.Tick(time.Now()))

		case <-unknownTicker.C:
			stopTimer(timer)
			if total := eng.UnknownCodeCount(); total != lastUnknown {
				log.Debugf("%d input codes with no matrix binding seen so far", total)
				lastUnknown = total
			}
		}
	}
}

type rawEdge struct {
	code    uint16
	isPress bool
	ts      time.Time
}

func readLoop(src *device.Source, out chan<- rawEdge, errs chan<- error) {
	for {
		code, isPress, ts, err := src.Next()
		if err != nil {
			errs <- err
			return
		}
		out <- rawEdge{code: code, isPress: isPress, ts: ts}
	}
}

func flushOut(sink *device.Sink, events []engine.OutEvent) {
	for _, ev := range events {
		if err := sink.Emit(ev.Code, ev.Edge == engine.Press); err != nil {
			log.Errorf("writing output event: %v", err)
		}
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
