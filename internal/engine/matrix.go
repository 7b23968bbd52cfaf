package engine

// Matrix is the 2D binary state of the physical keys: a mapping from
// OS event code to (row, col), plus the current up/down value of every
// cell. Dimensions are fixed at construction (spec §3).
type Matrix struct {
	rows, cols int
	codeToCell map[uint16]cellKey
	state      []bool // down iff state[row*cols+col]
}

type cellKey struct {
	row, col int
}

// NewMatrix builds a matrix of the given dimensions, with codeToCell
// mapping OS event codes to their (row, col) position. The map is
// taken by value semantics (copied) so the caller's map can be reused.
func NewMatrix(rows, cols int, codeToCell map[uint16][2]int) *Matrix {
	m := &Matrix{
		rows:       rows,
		cols:       cols,
		codeToCell: make(map[uint16]cellKey, len(codeToCell)),
		state:      make([]bool, rows*cols),
	}
	for code, rc := range codeToCell {
		m.codeToCell[code] = cellKey{row: rc[0], col: rc[1]}
	}
	return m
}

func (m *Matrix) Dimensions() (rows, cols int) { return m.rows, m.cols }

func (m *Matrix) index(row, col int) int { return row*m.cols + col }

// Apply looks up code via the matrix's code→cell binding. If absent,
// the event is dropped (ok=false). If the cell's stored state already
// equals edge — e.g. OS auto-repeat delivering a second down with no
// intervening up — the event is dropped too: only true transitions are
// emitted (spec §4.1).
func (m *Matrix) Apply(code uint16, edge Edge) (row, col int, ok bool) {
	cell, known := m.codeToCell[code]
	if !known {
		return 0, 0, false
	}
	idx := m.index(cell.row, cell.col)
	down := edge == Press
	if m.state[idx] == down {
		return 0, 0, false
	}
	m.state[idx] = down
	return cell.row, cell.col, true
}

// Known reports whether code has a binding in the matrix at all,
// independent of its current edge state.
func (m *Matrix) Known(code uint16) bool {
	_, known := m.codeToCell[code]
	return known
}

// Down reports whether the given cell is currently pressed.
func (m *Matrix) Down(row, col int) bool {
	return m.state[m.index(row, col)]
}
