package engine

import (
	"fmt"
	"time"
)

// releaseFunc is the handler-issued action run when the matching
// release for a recorded active binding arrives.
type releaseFunc func(e *Engine, row, col int, now time.Time)

// activeEntry is what the active-binding map (spec §3/§4.3) actually
// stores: the release action plus enough of the originating binding to
// decide, at release time, whether this key counts as the "next
// key" that disarms an armed one-shot layer (spec §4.4 OSL).
type activeEntry struct {
	release     releaseFunc
	originKind  Kind
	originLayer int // meaningful only for originKind == KindOSL
}

// pendingKind distinguishes the two timed-key families that share the
// Idle/Undecided/DecidedTap/DecidedHold state machine from spec §4.4.
type pendingKind int

const (
	pendingLT pendingKind = iota
	pendingSpaceCadet
)

type pendingTimed struct {
	kind pendingKind

	// pendingLT
	layerID int
	tapCode uint16
	seq     deadlineSeq

	// pendingSpaceCadet
	tapKey  *KeyCode
	holdKey *KeyCode
}

// Engine is the event interpretation core: it owns the state matrix,
// the layer stack, the active-binding map, the output queue and the
// deadline queue, and is the sole entry point for physical edges.
type Engine struct {
	matrix *Matrix
	layers *LayerStack
	clock  Clock

	deadlines *deadlineQueue
	armed     armedOneShots

	pending map[cellKey]*pendingTimed
	active  map[cellKey]activeEntry

	// absorbed tracks cells whose press resolved to Opaque: no active
	// entry is recorded for them (invariant A1), but their eventual
	// release is still expected and must not be mistaken for a release
	// with no matching press at all (spec §7).
	absorbed map[cellKey]bool

	out []OutEvent

	unknownCodes uint64
}

// NewEngine builds an engine around an already-validated matrix and
// layer stack.
func NewEngine(matrix *Matrix, layers *LayerStack, clock Clock) *Engine {
	return &Engine{
		matrix:    matrix,
		layers:    layers,
		clock:     clock,
		deadlines: newDeadlineQueue(),
		pending:   make(map[cellKey]*pendingTimed),
		active:    make(map[cellKey]activeEntry),
		absorbed:  make(map[cellKey]bool),
	}
}

func (e *Engine) emit(code uint16, edge Edge) {
	e.out = append(e.out, OutEvent{Code: code, Edge: edge})
}

// Flush drains and returns the output queue.
func (e *Engine) Flush() []OutEvent {
	out := e.out
	e.out = nil
	return out
}

// UnknownCodeCount returns the number of input codes seen that have no
// binding in the state matrix (spec §4.1/§7); exposed for
// observability, not behavior.
func (e *Engine) UnknownCodeCount() uint64 { return e.unknownCodes }

// NextDeadline reports the earliest pending deadline, if any, so the
// driver harness's sleep-until primitive knows how long it may block
// on the input source before it must call Tick.
func (e *Engine) NextDeadline() (time.Time, bool) { return e.deadlines.peek() }

// OnEventNow is a convenience wrapper around OnEvent that timestamps
// the edge with the engine's own clock, for callers that have no more
// precise event timestamp of their own to supply.
func (e *Engine) OnEventNow(code uint16, edge Edge) []OutEvent {
	return e.OnEvent(code, edge, e.clock.Now())
}

// OnEvent is the dispatcher's entry point (spec §4.3): it runs the
// matrix's edge detection, dispatches the resulting (row, col) edge if
// any, drains elapsed deadlines, and returns the synthesized events to
// flush to the output sink.
func (e *Engine) OnEvent(code uint16, edge Edge, now time.Time) []OutEvent {
	row, col, ok := e.matrix.Apply(code, edge)
	if !ok {
		if !e.matrix.Known(code) {
			e.unknownCodes++
		}
		return nil
	}
	e.onEdge(row, col, edge, now)
	e.drainDeadlines(now)
	return e.Flush()
}

// Tick drains elapsed deadlines with no accompanying physical edge —
// the case where the driver harness wakes purely because a hold
// timeout has elapsed while no key is being pressed or released.
func (e *Engine) Tick(now time.Time) []OutEvent {
	e.drainDeadlines(now)
	return e.Flush()
}

func (e *Engine) onEdge(row, col int, edge Edge, now time.Time) {
	cell := cellKey{row: row, col: col}
	if edge == Press {
		// Any key press is "another key" relative to every currently
		// undecided timed key: the matrix already guarantees this is a
		// fresh 0→1 transition, so it can never be the same cell as an
		// existing pending entry.
		e.forceDecideAllPendingHold(now)

		kc, layerID, ok := e.layers.Resolve(row, col)
		if !ok {
			// L2 guarantees the bottom layer never yields Transparent;
			// this is defensive only.
			return
		}
		e.dispatchPress(cell, kc, layerID, now)
		return
	}

	if pt, ok := e.pending[cell]; ok {
		delete(e.pending, cell)
		e.decideTap(pt)
		return
	}
	if e.absorbed[cell] {
		delete(e.absorbed, cell)
		return // press was legitimately absorbed (Opaque); nothing to release
	}
	entry, ok := e.active[cell]
	if !ok {
		reportInvariantViolation(fmt.Sprintf("release at row=%d col=%d with no matching press recorded", row, col))
		return
	}
	delete(e.active, cell)
	entry.release(e, row, col, now)
	e.maybeDisarmOSL(entry.originKind, entry.originLayer)
}

func (e *Engine) setActive(cell cellKey, kind Kind, targetLayer int, rf releaseFunc) {
	e.active[cell] = activeEntry{release: rf, originKind: kind, originLayer: targetLayer}
}

func (e *Engine) dispatchPress(cell cellKey, kc *KeyCode, layerID int, now time.Time) {
	switch kc.Kind {
	case KindOpaque:
		// Absorbed: no output, no active-binding entry (invariant A1),
		// but the eventual release must still be recognized as legitimate.
		e.absorbed[cell] = true

	case KindRegular:
		e.emit(kc.Code, Press)
		code := kc.Code
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			e.emit(code, Release)
		})

	case KindMacro:
		// Macros fire entirely on release.
		seq := kc.Seq
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			for _, c := range seq {
				e.emit(c, Press)
				e.emit(c, Release)
			}
		})

	case KindWrap:
		outer, inner := kc.Outer.Code, kc.Inner.Code
		e.emit(outer, Press)
		e.emit(inner, Press)
		e.emit(inner, Release)
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			e.emit(outer, Release)
		})

	case KindTG:
		layer := kc.Layer
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			e.layers.Toggle(layer)
		})

	case KindAL:
		e.layers.incRef(kc.Layer)
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			// AL release is a no-op: the layer stays enabled once activated.
		})

	case KindMO:
		e.layers.incRef(kc.Layer)
		layer := kc.Layer
		e.setActive(cell, kc.Kind, -1, func(e *Engine, row, col int, now time.Time) {
			e.layers.decRef(layer)
		})

	case KindOSL:
		e.layers.incRef(kc.Layer)
		e.armed.arm(kc.Layer)
		e.setActive(cell, kc.Kind, kc.Layer, func(e *Engine, row, col int, now time.Time) {
			// OSL release is a no-op: disarming happens on a later key.
		})

	case KindLT:
		seq := e.deadlines.schedule(cell, now.Add(time.Duration(kc.HoldMS)*time.Millisecond))
		e.pending[cell] = &pendingTimed{kind: pendingLT, layerID: kc.Layer, tapCode: kc.TapCode, seq: seq}

	case KindSpaceCadet:
		e.pending[cell] = &pendingTimed{kind: pendingSpaceCadet, tapKey: kc.TapKey, holdKey: kc.HoldKey}

	case KindTransparent:
		// Unreachable: Resolve never returns a Transparent cell.
	}
}

// forceDecideAllPendingHold decides "hold" for every currently
// undecided timed key, in response to an intervening physical press.
func (e *Engine) forceDecideAllPendingHold(now time.Time) {
	for cell, pt := range e.pending {
		e.decideHold(cell, pt, now)
	}
}

func (e *Engine) decideHold(cell cellKey, pt *pendingTimed, now time.Time) {
	delete(e.pending, cell)
	switch pt.kind {
	case pendingLT:
		e.layers.incRef(pt.layerID)
		layer := pt.layerID
		e.setActive(cell, KindLT, -1, func(e *Engine, row, col int, now time.Time) {
			e.layers.decRef(layer)
		})

	case pendingSpaceCadet:
		e.dispatchPressImmediate(pt.holdKey)
		holdKey := pt.holdKey
		e.setActive(cell, KindSpaceCadet, -1, func(e *Engine, row, col int, now time.Time) {
			e.dispatchReleaseImmediate(holdKey)
		})
	}
}

func (e *Engine) decideTap(pt *pendingTimed) {
	switch pt.kind {
	case pendingLT:
		e.emit(pt.tapCode, Press)
		e.emit(pt.tapCode, Release)
		e.maybeDisarmOSL(KindLT, -1)

	case pendingSpaceCadet:
		e.fireImmediateTap(pt.tapKey)
		e.maybeDisarmOSL(KindSpaceCadet, -1)
	}
}

// drainDeadlines fires on_deadline for every timed key whose deadline
// has elapsed as of now, in deadline order (spec §4.3 step 3). A
// deadline entry whose pending state is gone, or whose sequence no
// longer matches, was already decided by an intervening press or
// release and is silently dropped (lazy heap deletion).
func (e *Engine) drainDeadlines(now time.Time) {
	for _, ent := range e.deadlines.popDue(now) {
		pt, ok := e.pending[ent.cell]
		if !ok || pt.seq != ent.seq {
			continue
		}
		e.decideHold(ent.cell, pt, now)
	}
}

// maybeDisarmOSL implements spec §4.4's OSL disarm rule: the next full
// press+release whose resolved binding is not itself an OSL on the
// same (front-of-queue) layer disarms the oldest-armed one-shot.
func (e *Engine) maybeDisarmOSL(originKind Kind, originLayer int) {
	if originKind == KindOSL && e.armed.frontIs(originLayer) {
		return
	}
	if layer, ok := e.armed.disarmFront(); ok {
		e.layers.decRef(layer)
	}
}

// dispatchPressImmediate and dispatchReleaseImmediate implement the
// press-then-later-release half of a SpaceCadet hold_key/tap_key,
// which is itself a plain (non-layer-resolved) key code restricted by
// KeyCode.Validate to Regular, Wrap, Macro, Opaque or Transparent.
func (e *Engine) dispatchPressImmediate(kc *KeyCode) {
	switch kc.Kind {
	case KindRegular:
		e.emit(kc.Code, Press)
	case KindWrap:
		e.emit(kc.Outer.Code, Press)
		e.emit(kc.Inner.Code, Press)
		e.emit(kc.Inner.Code, Release)
	case KindMacro, KindOpaque, KindTransparent:
		// Macro fires entirely on release; Opaque/Transparent are no-ops.
	}
}

func (e *Engine) dispatchReleaseImmediate(kc *KeyCode) {
	switch kc.Kind {
	case KindRegular:
		e.emit(kc.Code, Release)
	case KindWrap:
		e.emit(kc.Outer.Code, Release)
	case KindMacro:
		for _, c := range kc.Seq {
			e.emit(c, Press)
			e.emit(c, Release)
		}
	case KindOpaque, KindTransparent:
	}
}

func (e *Engine) fireImmediateTap(kc *KeyCode) {
	e.dispatchPressImmediate(kc)
	e.dispatchReleaseImmediate(kc)
}
