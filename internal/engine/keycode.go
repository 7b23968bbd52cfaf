// Package engine implements the event interpretation core of the vkbd
// driver: the state matrix, the layer stack, the active-binding map and
// the dispatcher that ties them together with the key-kind handlers.
package engine

import "fmt"

// Kind tags the variant held by a KeyCode. Dispatch on Kind is uniform
// across on_press/on_release/on_deadline rather than using an
// inheritance hierarchy per kind.
type Kind int

const (
	KindRegular Kind = iota
	KindOpaque
	KindTransparent
	KindMacro
	KindWrap
	KindTG
	KindAL
	KindMO
	KindOSL
	KindLT
	KindSpaceCadet
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "Regular"
	case KindOpaque:
		return "Opaque"
	case KindTransparent:
		return "Transparent"
	case KindMacro:
		return "Macro"
	case KindWrap:
		return "Wrap"
	case KindTG:
		return "TG"
	case KindAL:
		return "AL"
	case KindMO:
		return "MO"
	case KindOSL:
		return "OSL"
	case KindLT:
		return "LT"
	case KindSpaceCadet:
		return "SpaceCadet"
	default:
		return "Unknown"
	}
}

// KeyCode is a tagged value: exactly one of the Kind-specific fields
// below is meaningful for any given Kind.
type KeyCode struct {
	Kind Kind

	// KindRegular
	Code uint16

	// KindMacro
	Seq []uint16

	// KindWrap: Outer and Inner must resolve to KindRegular.
	Outer *KeyCode
	Inner *KeyCode

	// KindTG, KindAL, KindMO, KindOSL, KindLT: target layer.
	Layer int

	// KindLT
	TapCode uint16
	HoldMS  int

	// KindSpaceCadet
	TapKey  *KeyCode
	HoldKey *KeyCode
}

// maxCompositeDepth bounds recursive validation of nested composites
// (Wrap, SpaceCadet) so a self-referential configuration error cannot
// hang the loader instead of being rejected.
const maxCompositeDepth = 8

// Regular builds a KindRegular key code.
func Regular(code uint16) *KeyCode { return &KeyCode{Kind: KindRegular, Code: code} }

// Opaque builds a KindOpaque key code.
func Opaque() *KeyCode { return &KeyCode{Kind: KindOpaque} }

// Transparent builds a KindTransparent key code.
func Transparent() *KeyCode { return &KeyCode{Kind: KindTransparent} }

// Macro builds a KindMacro key code.
func Macro(seq []uint16) *KeyCode { return &KeyCode{Kind: KindMacro, Seq: seq} }

// Wrap builds a KindWrap key code.
func Wrap(outer, inner *KeyCode) *KeyCode { return &KeyCode{Kind: KindWrap, Outer: outer, Inner: inner} }

// TG builds a KindTG key code.
func TG(layer int) *KeyCode { return &KeyCode{Kind: KindTG, Layer: layer} }

// AL builds a KindAL key code.
func AL(layer int) *KeyCode { return &KeyCode{Kind: KindAL, Layer: layer} }

// MO builds a KindMO key code.
func MO(layer int) *KeyCode { return &KeyCode{Kind: KindMO, Layer: layer} }

// OSL builds a KindOSL key code.
func OSL(layer int) *KeyCode { return &KeyCode{Kind: KindOSL, Layer: layer} }

// LT builds a KindLT key code.
func LT(layer int, tapCode uint16, holdMS int) *KeyCode {
	return &KeyCode{Kind: KindLT, Layer: layer, TapCode: tapCode, HoldMS: holdMS}
}

// SpaceCadet builds a KindSpaceCadet key code.
func SpaceCadet(tap, hold *KeyCode) *KeyCode {
	return &KeyCode{Kind: KindSpaceCadet, TapKey: tap, HoldKey: hold}
}

// Validate enforces the configuration-time invariants from spec §4.4 /
// §7: Wrap's children must resolve to Regular, and composite nesting
// cannot exceed maxCompositeDepth (guards against self-referential
// configuration bugs, per the "cycles" design note).
func (k *KeyCode) Validate() error { return k.validate(0) }

func (k *KeyCode) validate(depth int) error {
	if k == nil {
		return fmt.Errorf("nil key code")
	}
	if depth > maxCompositeDepth {
		return fmt.Errorf("composite key code nested deeper than %d levels", maxCompositeDepth)
	}
	switch k.Kind {
	case KindWrap:
		if k.Outer == nil || k.Outer.Kind != KindRegular {
			return fmt.Errorf("wrap: outer must be a regular key code")
		}
		if k.Inner == nil || k.Inner.Kind != KindRegular {
			return fmt.Errorf("wrap: inner must be a regular key code")
		}
	case KindSpaceCadet:
		if k.TapKey == nil || k.HoldKey == nil {
			return fmt.Errorf("spacecadet: tap and hold key codes are required")
		}
		if !isImmediateKind(k.TapKey.Kind) {
			return fmt.Errorf("spacecadet: tap key code must be regular, wrap, macro, opaque or transparent, got %s", k.TapKey.Kind)
		}
		if !isImmediateKind(k.HoldKey.Kind) {
			return fmt.Errorf("spacecadet: hold key code must be regular, wrap, macro, opaque or transparent, got %s", k.HoldKey.Kind)
		}
		if err := k.TapKey.validate(depth + 1); err != nil {
			return fmt.Errorf("spacecadet tap: %w", err)
		}
		if err := k.HoldKey.validate(depth + 1); err != nil {
			return fmt.Errorf("spacecadet hold: %w", err)
		}
	case KindMacro:
		if len(k.Seq) == 0 {
			return fmt.Errorf("macro: sequence must not be empty")
		}
	}
	return nil
}

// isImmediateKind reports whether a Kind can be dispatched without a
// layer context — i.e. fired immediately as the tap_key/hold_key of a
// SpaceCadet binding. Layer-mutating and timed kinds are rejected at
// load time rather than given ad-hoc nested semantics.
func isImmediateKind(k Kind) bool {
	switch k {
	case KindRegular, KindWrap, KindMacro, KindOpaque, KindTransparent:
		return true
	default:
		return false
	}
}
