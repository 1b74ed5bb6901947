package cccv

// Unbound marks a cell with no controller
const Unbound = -1

// NoLearn is the learning index when no cell is learning
const NoLearn = -1

// Table maps the 64 cells to controller numbers. No two cells ever hold the
// same controller: Assign unbinds any previous holder first.
type Table struct {
	ccs      [NumCells]int8
	learning int
}

// NewTable returns a table in its reset state
func NewTable() Table {
	var t Table
	t.Reset()
	return t
}

// Reset binds cell i to controller i and cancels learning
func (t *Table) Reset() {
	for i := range t.ccs {
		t.ccs[i] = int8(i)
	}
	t.learning = NoLearn
}

// Assign binds cell to cc, or unbinds it when cc is Unbound.
// Out-of-range cells or controllers are ignored.
func (t *Table) Assign(cell, cc int) {
	if cell < 0 || cell >= NumCells {
		return
	}
	if cc < Unbound || cc >= NumControllers {
		return
	}
	if cc >= 0 {
		for i := range t.ccs {
			if i != cell && int(t.ccs[i]) == cc {
				t.ccs[i] = Unbound
			}
		}
	}
	t.ccs[cell] = int8(cc)
}

// Controller returns the controller bound to cell, or Unbound
func (t *Table) Controller(cell int) int {
	if cell < 0 || cell >= NumCells {
		return Unbound
	}
	return int(t.ccs[cell])
}

// CellOf returns the cell bound to cc, or -1
func (t *Table) CellOf(cc int) int {
	if cc < 0 {
		return -1
	}
	for i, c := range t.ccs {
		if int(c) == cc {
			return i
		}
	}
	return -1
}

// Controllers returns a copy of all bindings
func (t *Table) Controllers() [NumCells]int {
	var out [NumCells]int
	for i, c := range t.ccs {
		out[i] = int(c)
	}
	return out
}

// BeginLearn marks cell as waiting for the next qualifying controller
func (t *Table) BeginLearn(cell int) {
	if cell < 0 || cell >= NumCells {
		return
	}
	t.learning = cell
}

// CancelLearn stops learning without binding
func (t *Table) CancelLearn() {
	t.learning = NoLearn
}

// Learning returns the learning cell, if any
func (t *Table) Learning() (cell int, ok bool) {
	return t.learning, t.learning != NoLearn
}

// Capture binds the learning cell to cc and ends learning.
// It returns the cell that was bound, or -1 if nothing was learning.
func (t *Table) Capture(cc int) int {
	cell := t.learning
	if cell == NoLearn {
		return -1
	}
	t.Assign(cell, cc)
	t.learning = NoLearn
	return cell
}
