package engine

import (
	"testing"
	"time"
)

const (
	codeA uint16 = 30
	codeB uint16 = 48
	codeC uint16 = 46
	codeD uint16 = 32
	codeSpace uint16 = 57
	codeShift uint16 = 42
	codeNine  uint16 = 10
)

func assertEvents(t *testing.T, got []OutEvent, want ...OutEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count = %d, want %d: got %+v want %+v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %+v, want %+v (full got %+v)", i, got[i], want[i], got)
		}
	}
}

func down(code uint16) OutEvent { return OutEvent{Code: code, Edge: Press} }
func up(code uint16) OutEvent   { return OutEvent{Code: code, Edge: Release} }

// Scenario 1: regular passthrough.
func TestRegularPassthrough(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{Regular(codeA)}, true),
	})
	e := NewEngine(matrix, layers, newFakeClock())

	now := time.Unix(0, 0)
	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)

	assertEvents(t, out, down(codeA), up(codeA))
}

// Scenario 2: transparent fall-through.
func TestTransparentFallThrough(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{Regular(codeA)}, true),
		NewLayer("overlay", 1, 1, []*KeyCode{Transparent()}, true),
	})
	e := NewEngine(matrix, layers, newFakeClock())

	now := time.Unix(0, 0)
	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)

	assertEvents(t, out, down(codeA), up(codeA))
}

// Scenario 3: MO momentary layer.
func TestMOMomentaryLayer(t *testing.T) {
	matrix := NewMatrix(1, 2, map[uint16][2]int{codeA: {0, 0}, codeB: {0, 1}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 2, []*KeyCode{MO(1), Regular(codeB)}, true),
		NewLayer("fn", 1, 2, []*KeyCode{Transparent(), Regular(codeD)}, false),
	})
	e := NewEngine(matrix, layers, newFakeClock())

	now := time.Unix(0, 0)
	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeB, Press, now)...)
	out = append(out, e.OnEvent(codeB, Release, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)
	out = append(out, e.OnEvent(codeB, Press, now)...)
	out = append(out, e.OnEvent(codeB, Release, now)...)

	assertEvents(t, out, down(codeD), up(codeD), down(codeB), up(codeB))
}

// Scenario 4: LT tap.
func TestLTTap(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{LT(1, codeSpace, 150)}, true),
		NewLayer("fn", 1, 1, []*KeyCode{Regular(codeD)}, false),
	})
	e := NewEngine(matrix, layers, newFakeClock())

	t0 := time.Unix(0, 0)
	pressOut := e.OnEvent(codeA, Press, t0)
	if len(pressOut) != 0 {
		t.Fatalf("press produced output before arbitration: %+v", pressOut)
	}
	releaseOut := e.OnEvent(codeA, Release, t0.Add(50*time.Millisecond))

	assertEvents(t, releaseOut, down(codeSpace), up(codeSpace))
	if layers.Layer(1).Enabled() {
		t.Fatalf("layer 1 should never have been enabled on a tap")
	}
}

// Scenario 5: LT hold by timeout.
func TestLTHoldByTimeout(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{LT(1, codeSpace, 150)}, true),
		NewLayer("fn", 1, 1, []*KeyCode{Regular(codeD)}, false),
	})
	e := NewEngine(matrix, layers, newFakeClock())

	t0 := time.Unix(0, 0)
	pressOut := e.OnEvent(codeA, Press, t0)
	if len(pressOut) != 0 {
		t.Fatalf("unexpected output at press: %+v", pressOut)
	}

	deadline, ok := e.NextDeadline()
	if !ok || !deadline.Equal(t0.Add(150*time.Millisecond)) {
		t.Fatalf("expected a deadline at +150ms, got %v (ok=%v)", deadline, ok)
	}

	tickOut := e.Tick(t0.Add(150 * time.Millisecond))
	if len(tickOut) != 0 {
		t.Fatalf("hold decision must not itself emit a key: %+v", tickOut)
	}
	if !layers.Layer(1).Enabled() {
		t.Fatalf("layer 1 should be enabled after the hold timeout")
	}

	releaseOut := e.OnEvent(codeA, Release, t0.Add(300*time.Millisecond))
	if len(releaseOut) != 0 {
		t.Fatalf("hold release must not emit a key: %+v", releaseOut)
	}
	if layers.Layer(1).Enabled() {
		t.Fatalf("layer 1 should be disabled again after release")
	}
}

// Scenario 6: SPACECADET composite, tap and hold.
func spaceCadetLayers() (*Matrix, *LayerStack) {
	matrix := NewMatrix(1, 2, map[uint16][2]int{codeA: {0, 0}, codeB: {0, 1}})
	binding := SpaceCadet(Wrap(Regular(codeShift), Regular(codeNine)), Regular(codeShift))
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 2, []*KeyCode{binding, Regular(codeB)}, true),
	})
	return matrix, layers
}

func TestSpaceCadetTap(t *testing.T) {
	matrix, layers := spaceCadetLayers()
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)

	assertEvents(t, out, down(codeShift), down(codeNine), up(codeNine), up(codeShift))
}

func TestSpaceCadetHold(t *testing.T) {
	matrix, layers := spaceCadetLayers()
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeB, Press, now)...)
	out = append(out, e.OnEvent(codeB, Release, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)

	assertEvents(t, out, down(codeShift), down(codeB), up(codeB), up(codeShift))
}

// Auto-repeat events must be dropped: only true transitions reach the
// dispatcher (spec §4.1).
func TestAutoRepeatIsDropped(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{Regular(codeA)}, true),
	})
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeA, Press, now)...) // auto-repeat
	out = append(out, e.OnEvent(codeA, Press, now)...) // auto-repeat
	out = append(out, e.OnEvent(codeA, Release, now)...)

	assertEvents(t, out, down(codeA), up(codeA))
}

// Unknown codes are dropped silently and counted for observability.
func TestUnknownCodeDroppedAndCounted(t *testing.T) {
	matrix := NewMatrix(1, 1, map[uint16][2]int{codeA: {0, 0}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 1, []*KeyCode{Regular(codeA)}, true),
	})
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	out := e.OnEvent(999, Press, now)
	if len(out) != 0 {
		t.Fatalf("unknown code should produce no output: %+v", out)
	}
	if e.UnknownCodeCount() != 1 {
		t.Fatalf("unknown code count = %d, want 1", e.UnknownCodeCount())
	}
}

// P5: a release routes through the active-binding map and is never
// re-resolved through the layer stack.
func TestActiveBindingSurvivesLayerChangeBetweenPressAndRelease(t *testing.T) {
	// MO(1) at (0,0); layer 1 remaps (0,1) to D instead of B. Press B
	// while layer 1 is enabled, then release MO before releasing B:
	// B's release must still route to the binding captured at press
	// time (Regular(D)), not whatever (0,1) resolves to now.
	matrix := NewMatrix(1, 2, map[uint16][2]int{codeA: {0, 0}, codeB: {0, 1}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 2, []*KeyCode{MO(1), Regular(codeB)}, true),
		NewLayer("fn", 1, 2, []*KeyCode{Transparent(), Regular(codeD)}, false),
	})
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)   // enables layer 1
	out = append(out, e.OnEvent(codeB, Press, now)...)    // resolves to D via layer 1
	out = append(out, e.OnEvent(codeA, Release, now)...)  // disables layer 1
	out = append(out, e.OnEvent(codeB, Release, now)...)  // must still release D

	assertEvents(t, out, down(codeD), up(codeD))
}

// One-shot layer arms on press, disarms on the next completed
// non-OSL key.
func TestOneShotLayerDisarmsOnNextKey(t *testing.T) {
	matrix := NewMatrix(1, 2, map[uint16][2]int{codeA: {0, 0}, codeB: {0, 1}})
	layers := NewLayerStack([]*Layer{
		NewLayer("base", 1, 2, []*KeyCode{OSL(1), Regular(codeB)}, true),
		NewLayer("shifted", 1, 2, []*KeyCode{Transparent(), Regular(codeC)}, false),
	})
	e := NewEngine(matrix, layers, newFakeClock())
	now := time.Unix(0, 0)

	var out []OutEvent
	out = append(out, e.OnEvent(codeA, Press, now)...)
	out = append(out, e.OnEvent(codeA, Release, now)...)
	if !layers.Layer(1).Enabled() {
		t.Fatalf("layer should be armed and enabled after OSL press+release")
	}

	out = append(out, e.OnEvent(codeB, Press, now)...)
	out = append(out, e.OnEvent(codeB, Release, now)...)
	assertEvents(t, out, down(codeC), up(codeC))
	if layers.Layer(1).Enabled() {
		t.Fatalf("layer should be disarmed after the next completed key")
	}
}
