package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inputlayers/vkbd/internal/engine"
)

// maxDecodeDepth mirrors engine.KeyCode's own composite-nesting bound;
// checked here too so a self-referential JSON document is rejected
// before it ever reaches Validate.
const maxDecodeDepth = 8

// rawComposite is the structured form of a KeyCode: anything other
// than a bare string token (spec §6).
type rawComposite struct {
	Kind string `json:"kind"`

	Code string `json:"code"`
	Seq  []string `json:"seq"`

	Outer json.RawMessage `json:"outer"`
	Inner json.RawMessage `json:"inner"`

	Layer int `json:"layer"`

	Tap    string `json:"tap"`
	HoldMS int    `json:"hold_ms"`

	TapKey  json.RawMessage `json:"tap_key"`
	HoldKey json.RawMessage `json:"hold_key"`
}

// decodeKeyCode turns one JSON cell value into an engine.KeyCode. It
// does not run engine.KeyCode.Validate itself — callers validate each
// decoded cell so error messages can carry (row, col).
func decodeKeyCode(raw json.RawMessage, depth int) (*engine.KeyCode, error) {
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("key code nested deeper than %d levels", maxDecodeDepth)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("missing key code")
	}

	if trimmed[0] == '"' {
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			return nil, fmt.Errorf("decoding key code token: %w", err)
		}
		return decodeToken(token)
	}

	var rc rawComposite
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("decoding structured key code: %w", err)
	}
	return decodeComposite(rc, depth)
}

func decodeToken(token string) (*engine.KeyCode, error) {
	switch {
	case token == "":
		return nil, fmt.Errorf("empty key code token")
	case isAllByte(token, '_'):
		return engine.Transparent(), nil
	case isAllByte(token, 'X') || isAllByte(token, 'x'):
		return engine.Opaque(), nil
	default:
		code, ok := lookupRegularCode(token)
		if !ok {
			return nil, fmt.Errorf("unknown key code name %q", token)
		}
		return engine.Regular(code), nil
	}
}

func isAllByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != b {
			return false
		}
	}
	return true
}

func decodeComposite(rc rawComposite, depth int) (*engine.KeyCode, error) {
	switch strings.ToUpper(rc.Kind) {
	case "REGULAR":
		code, ok := lookupRegularCode(rc.Code)
		if !ok {
			return nil, fmt.Errorf("regular: unknown key code name %q", rc.Code)
		}
		return engine.Regular(code), nil

	case "MACRO":
		if len(rc.Seq) == 0 {
			return nil, fmt.Errorf("macro: sequence must not be empty")
		}
		seq := make([]uint16, 0, len(rc.Seq))
		for _, name := range rc.Seq {
			code, ok := lookupRegularCode(name)
			if !ok {
				return nil, fmt.Errorf("macro: unknown key code name %q", name)
			}
			seq = append(seq, code)
		}
		return engine.Macro(seq), nil

	case "WRAP":
		outer, err := decodeKeyCode(rc.Outer, depth+1)
		if err != nil {
			return nil, fmt.Errorf("wrap outer: %w", err)
		}
		inner, err := decodeKeyCode(rc.Inner, depth+1)
		if err != nil {
			return nil, fmt.Errorf("wrap inner: %w", err)
		}
		return engine.Wrap(outer, inner), nil

	case "TG":
		return engine.TG(rc.Layer), nil

	case "AL":
		return engine.AL(rc.Layer), nil

	case "MO":
		return engine.MO(rc.Layer), nil

	case "OSL":
		return engine.OSL(rc.Layer), nil

	case "LT":
		tapCode, ok := lookupRegularCode(rc.Tap)
		if !ok {
			return nil, fmt.Errorf("lt: unknown tap key code name %q", rc.Tap)
		}
		if rc.HoldMS <= 0 {
			return nil, fmt.Errorf("lt: hold_ms must be positive, got %d", rc.HoldMS)
		}
		return engine.LT(rc.Layer, tapCode, rc.HoldMS), nil

	case "SPACECADET":
		tapKey, err := decodeKeyCode(rc.TapKey, depth+1)
		if err != nil {
			return nil, fmt.Errorf("spacecadet tap_key: %w", err)
		}
		holdKey, err := decodeKeyCode(rc.HoldKey, depth+1)
		if err != nil {
			return nil, fmt.Errorf("spacecadet hold_key: %w", err)
		}
		return engine.SpaceCadet(tapKey, holdKey), nil

	default:
		return nil, fmt.Errorf("unknown key code kind %q", rc.Kind)
	}
}
