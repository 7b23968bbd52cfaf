package config

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/inputlayers/vkbd/internal/engine"
)

// LoadMatrixSpec reads the physical-to-logical key map: a JSON object
// whose keys are stringified evdev codes and whose values are
// [row, col] pairs. Dimensions are derived from the highest row/col
// observed, since the file itself never declares a grid size.
func LoadMatrixSpec(path string) (codeToCell map[uint16][2]int, rows, cols int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading matrix file: %w", err)
	}

	var raw map[string][2]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, 0, fmt.Errorf("parsing matrix file: %w", err)
	}
	if len(raw) == 0 {
		return nil, 0, 0, fmt.Errorf("matrix file %s declares no keys", path)
	}

	codeToCell = make(map[uint16][2]int, len(raw))
	seenCells := make(map[[2]int]uint16, len(raw))
	for codeStr, cell := range raw {
		var code uint16
		if _, err := fmt.Sscanf(codeStr, "%d", &code); err != nil {
			return nil, 0, 0, fmt.Errorf("matrix file: invalid event code %q: %w", codeStr, err)
		}
		row, col := cell[0], cell[1]
		if row < 0 || col < 0 {
			return nil, 0, 0, fmt.Errorf("matrix file: negative cell [%d,%d] for code %s", row, col, codeStr)
		}
		if other, dup := seenCells[cell]; dup {
			log.Warnf("matrix file %s: cell [%d,%d] is claimed by both code %d and code %s; both codes drive that cell", path, row, col, other, codeStr)
		}
		seenCells[cell] = code
		codeToCell[code] = [2]int{row, col}
		if row+1 > rows {
			rows = row + 1
		}
		if col+1 > cols {
			cols = col + 1
		}
	}
	return codeToCell, rows, cols, nil
}

// LoadMatrix reads the same document as LoadMatrixSpec and returns an
// already-constructed engine.Matrix, along with the dimensions callers
// need to then load a matching layer stack.
func LoadMatrix(path string) (m *engine.Matrix, rows, cols int, err error) {
	codeToCell, rows, cols, err := LoadMatrixSpec(path)
	if err != nil {
		return nil, 0, 0, err
	}
	return engine.NewMatrix(rows, cols, codeToCell), rows, cols, nil
}
