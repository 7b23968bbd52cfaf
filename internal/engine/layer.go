package engine

import "golang.org/x/exp/slices"

// Layer is one overlay grid covering the full matrix. Enablement is
// derived, not stored directly: a layer is enabled iff its refcount is
// positive or it has been toggled on (P3), except the bottom layer
// which additionally carries a permanent base-enabled flag (L1).
type Layer struct {
	Name string

	grid []*KeyCode // rows*cols, row-major
	rows int
	cols int

	refcount int  // incremented by AL/MO/OSL/LT-hold press; decremented by MO/LT-hold release and OSL disarm
	toggled  bool // flipped by TG release
	base     bool // true only for the bottom layer (L1): always enabled regardless of refcount/toggled
}

// NewLayer builds a layer of the given dimensions. grid must be
// rows*cols long, row-major, and is taken by reference.
func NewLayer(name string, rows, cols int, grid []*KeyCode, enabled bool) *Layer {
	return &Layer{Name: name, grid: grid, rows: rows, cols: cols, toggled: enabled}
}

func (l *Layer) at(row, col int) *KeyCode { return l.grid[row*l.cols+col] }

// HasTransparentCell reports whether any cell in this layer is
// Transparent — used to enforce invariant L2 (the bottom layer must
// never defer, or resolution could fail to terminate).
func (l *Layer) HasTransparentCell() bool {
	for _, kc := range l.grid {
		if kc != nil && kc.Kind == KindTransparent {
			return true
		}
	}
	return false
}

// Dimensions returns the layer's declared (rows, cols).
func (l *Layer) Dimensions() (rows, cols int) { return l.rows, l.cols }

// Enabled reports whether this layer currently participates in
// resolution (P3).
func (l *Layer) Enabled() bool { return l.base || l.refcount > 0 || l.toggled }

// LayerStack is the ordered, individually-enable-able set of overlays,
// index 0 at the bottom (spec §3/§4.2).
type LayerStack struct {
	layers []*Layer
}

// NewLayerStack builds a stack from bottom (index 0) to top. The
// bottom layer is marked as the permanent base layer (L1); callers
// must have already validated L2 (no Transparent cells in the bottom
// layer) at configuration-load time.
func NewLayerStack(layers []*Layer) *LayerStack {
	if len(layers) > 0 {
		layers[0].base = true
		layers[0].toggled = true
	}
	return &LayerStack{layers: layers}
}

func (s *LayerStack) Len() int { return len(s.layers) }

func (s *LayerStack) Layer(id int) *Layer {
	if id < 0 || id >= len(s.layers) {
		return nil
	}
	return s.layers[id]
}

// Resolve iterates layers from the highest index downward; for each
// enabled layer it fetches the cell, skips Transparent, and returns
// the first non-transparent binding along with the index of the layer
// that produced it (P4: resolve is a pure function of the current
// layer stack).
func (s *LayerStack) Resolve(row, col int) (*KeyCode, int, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !l.Enabled() {
			continue
		}
		kc := l.at(row, col)
		if kc == nil || kc.Kind == KindTransparent {
			continue
		}
		return kc, i, true
	}
	return nil, 0, false
}

// SetToggled sets the TG bit on a layer to v, independent of refcount.
func (s *LayerStack) SetToggled(id int, v bool) {
	if l := s.Layer(id); l != nil {
		l.toggled = v
	}
}

// Toggle flips the TG bit on a layer, independent of refcount.
func (s *LayerStack) Toggle(id int) {
	if l := s.Layer(id); l != nil {
		l.toggled = !l.toggled
	}
}

func (s *LayerStack) incRef(id int) {
	if l := s.Layer(id); l != nil {
		l.refcount++
	}
}

func (s *LayerStack) decRef(id int) {
	if l := s.Layer(id); l != nil && l.refcount > 0 {
		l.refcount--
	}
}

// armedOneShots is a FIFO of layer ids currently armed by OSL,
// oldest-armed first. The Engine holds one; disarming a layer from it
// decrements that layer's refcount on the LayerStack.
type armedOneShots struct {
	layers []int
}

func (a *armedOneShots) arm(layer int) {
	a.layers = append(a.layers, layer)
}

// disarmFront pops and returns the oldest armed layer id, if any.
func (a *armedOneShots) disarmFront() (int, bool) {
	if len(a.layers) == 0 {
		return 0, false
	}
	front := a.layers[0]
	a.layers = slices.Delete(a.layers, 0, 1)
	return front, true
}

func (a *armedOneShots) frontIs(layer int) bool {
	return len(a.layers) > 0 && a.layers[0] == layer
}
