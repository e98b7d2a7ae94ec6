package game

import (
	"errors"
	"fmt"
)

// CellState is the persisted value of a cell. The numeric codes are shared
// with every front end and must not change.
type CellState uint8

const (
	Empty  CellState = 0
	Ship   CellState = 1
	Struck CellState = 2
	Missed CellState = 3
	Closed CellState = 4
)

func (s CellState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Ship:
		return "ship"
	case Struck:
		return "struck"
	case Missed:
		return "missed"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Resolved reports whether the cell can no longer be targeted.
func (s CellState) Resolved() bool { return s == Struck || s == Missed || s == Closed }

// Orientation of the ship segment occupying a cell.
type Orientation uint8

const (
	Unset Orientation = iota
	Horizontal
	Vertical
)

type Cell struct {
	Index       int         `json:"index"`
	Diagonals   [4]int      `json:"diagonals"`
	Verticals   [4]int      `json:"verticals"`
	State       CellState   `json:"value"`
	Orientation Orientation `json:"orientation"`
}

// Board is an N x N sea. Neighbor slots are computed once by NewBoard; only
// State and Orientation change over a match. Transitions in this package
// never mutate their input board, they return a modified copy.
type Board struct {
	grid  Grid
	cells []Cell
}

// NewBoard creates an empty board with every cell's neighbors precomputed.
func NewBoard(g Grid) Board {
	cells := make([]Cell, g.Cells())
	for i := range cells {
		cells[i] = Cell{
			Index:     i,
			Diagonals: g.slots(i, diagonalOffsets),
			Verticals: g.slots(i, orthogonalOffsets),
		}
	}
	return Board{grid: g, cells: cells}
}

// BoardFromStates rebuilds a board from a flat list of states, e.g. a decoded
// snapshot. Orientation is inferred from adjacent ship-bearing cells.
func BoardFromStates(g Grid, states []CellState) (Board, error) {
	if len(states) != g.Cells() {
		return Board{}, fmt.Errorf("board needs %d cells, got %d", g.Cells(), len(states))
	}
	b := NewBoard(g)
	for i, s := range states {
		if s > Closed {
			return Board{}, fmt.Errorf("cell %d: invalid state %d", i, s)
		}
		b.cells[i].State = s
	}
	for i := range b.cells {
		if !b.cells[i].State.hadShip() {
			continue
		}
		b.cells[i].Orientation = Horizontal
		for _, step := range [2]int{StepUp, StepDown} {
			if n := b.cells[i].Verticals[step]; n != NoCell && b.cells[n].State.hadShip() {
				b.cells[i].Orientation = Vertical
			}
		}
	}
	return b, nil
}

func (s CellState) hadShip() bool { return s == Ship || s == Struck }

func (b Board) Grid() Grid { return b.grid }

func (b Board) Len() int { return len(b.cells) }

// Cell returns a copy of the cell at index.
func (b Board) Cell(index int) (Cell, error) {
	if index < 0 || index >= len(b.cells) {
		return Cell{}, fmt.Errorf("index %d: %w", index, ErrOutOfBounds)
	}
	return b.cells[index], nil
}

// State returns the state at index, Empty when out of range.
func (b Board) State(index int) CellState {
	if index < 0 || index >= len(b.cells) {
		return Empty
	}
	return b.cells[index].State
}

// States flattens the board into row-major states.
func (b Board) States() []CellState {
	out := make([]CellState, len(b.cells))
	for i, c := range b.cells {
		out[i] = c.State
	}
	return out
}

// Count returns how many cells currently hold s.
func (b Board) Count(s CellState) int {
	n := 0
	for _, c := range b.cells {
		if c.State == s {
			n++
		}
	}
	return n
}

// Clone returns a board that shares no cell storage with b.
func (b Board) Clone() Board {
	cells := make([]Cell, len(b.cells))
	copy(cells, b.cells)
	return Board{grid: b.grid, cells: cells}
}

// Masked hides unstruck ships, the way an opponent sees this board.
func (b Board) Masked() []CellState {
	out := b.States()
	for i, s := range out {
		if s == Ship {
			out[i] = Empty
		}
	}
	return out
}

// ShipBits returns 1 for each cell that holds or held a ship.
func (b Board) ShipBits() []uint8 {
	out := make([]uint8, len(b.cells))
	for i, c := range b.cells {
		if c.State.hadShip() {
			out[i] = 1
		}
	}
	return out
}

// Validate checks a freshly placed board against a fleet: the number of ship
// cells matches and no two ships touch.
func (b Board) Validate(f Fleet) error {
	total := 0
	for _, c := range b.cells {
		switch c.State {
		case Empty:
		case Ship:
			total++
		default:
			return errors.New("board has non-placement cell state")
		}
	}
	if total != f.TotalCells() {
		return fmt.Errorf("board must contain exactly %d ship cells, got %d", f.TotalCells(), total)
	}
	for _, c := range b.cells {
		if c.State != Ship {
			continue
		}
		for _, d := range c.Diagonals {
			if d != NoCell && b.cells[d].State == Ship {
				return fmt.Errorf("ships touch diagonally at %d and %d", c.Index, d)
			}
		}
	}

	// row-major scan meets every ship at its top or left end first
	seen := make([]bool, len(b.cells))
	lengths := make(map[int]int)
	for i, c := range b.cells {
		if c.State != Ship || seen[i] {
			continue
		}
		step := StepRight
		if n := c.Verticals[StepDown]; n != NoCell && b.cells[n].State == Ship {
			step = StepDown
		}
		n := 0
		for j := i; j != NoCell && b.cells[j].State == Ship; j = b.cells[j].Verticals[step] {
			seen[j] = true
			n++
		}
		lengths[n]++
	}
	for _, sc := range f {
		if lengths[sc.Length] != sc.Count {
			return fmt.Errorf("fleet needs %d ships of length %d, board has %d", sc.Count, sc.Length, lengths[sc.Length])
		}
	}
	return nil
}
