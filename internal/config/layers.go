package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inputlayers/vkbd/internal/engine"
)

// rawLayer is one entry of the layer-stack JSON document: bottom layer
// first, each a rectangular grid of key codes matching the matrix
// dimensions.
type rawLayer struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Keys    [][]json.RawMessage `json:"keys"`
}

// LoadLayers reads the layer stack and validates it against the
// invariants a hand-edited config is most likely to violate: grid
// dimensions must match the matrix, every key code must itself be
// well-formed (engine.KeyCode.Validate), the stack must be non-empty
// (L1) and its bottom layer must carry no Transparent cell (L2).
func LoadLayers(path string, matrixRows, matrixCols int) (*engine.LayerStack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layers file: %w", err)
	}

	var raw []rawLayer
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing layers file: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("layers file %s declares no layers", path)
	}

	layers := make([]*engine.Layer, 0, len(raw))
	for li, rl := range raw {
		if len(rl.Keys) != matrixRows {
			return nil, fmt.Errorf("layer %q: %d rows, want %d", rl.Name, len(rl.Keys), matrixRows)
		}
		grid := make([]*engine.KeyCode, 0, matrixRows*matrixCols)
		for row, rowKeys := range rl.Keys {
			if len(rowKeys) != matrixCols {
				return nil, fmt.Errorf("layer %q row %d: %d cols, want %d", rl.Name, row, len(rowKeys), matrixCols)
			}
			for col, rawCell := range rowKeys {
				kc, err := decodeKeyCode(rawCell, 0)
				if err != nil {
					return nil, fmt.Errorf("layer %q [%d,%d]: %w", rl.Name, row, col, err)
				}
				if err := kc.Validate(); err != nil {
					return nil, fmt.Errorf("layer %q [%d,%d]: %w", rl.Name, row, col, err)
				}
				grid = append(grid, kc)
			}
		}

		if li == 0 {
			for _, kc := range grid {
				if kc.Kind == engine.KindTransparent {
					return nil, fmt.Errorf("bottom layer %q must not contain a transparent cell", rl.Name)
				}
			}
		}

		layers = append(layers, engine.NewLayer(rl.Name, matrixRows, matrixCols, grid, rl.Enabled))
	}

	return engine.NewLayerStack(layers), nil
}
