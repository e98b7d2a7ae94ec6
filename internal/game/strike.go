package game

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// ResolveStrike maps the state under a shot to the state after it.
func ResolveStrike(prev CellState) CellState {
	if prev == Ship {
		return Struck
	}
	return Missed
}

// StrikeOutcome is what a front end needs to render one shot.
type StrikeOutcome struct {
	Index  int       `json:"index"`
	Before CellState `json:"before"`
	After  CellState `json:"after"`
	Sunk   bool      `json:"sunk"`
	Closed []int     `json:"closed"`
}

func (o StrikeOutcome) Hit() bool { return o.After == Struck }

// ApplyStrike writes result at index. A Struck result also closes the cell's
// diagonal neighbors, which can never hold a ship. It returns the new board
// and the indices it closed.
func ApplyStrike(b Board, index int, result CellState) (Board, []int, error) {
	if !b.grid.Contains(index) {
		return b, nil, fmt.Errorf("index %d: %w", index, ErrOutOfBounds)
	}
	if b.cells[index].State.Resolved() {
		return b, nil, fmt.Errorf("index %d is %s: %w", index, b.cells[index].State, ErrAlreadyAttacked)
	}
	out := b.Clone()
	out.cells[index].State = result
	if result != Struck {
		return out, nil, nil
	}
	closed := closeCells(out, compact(out.cells[index].Diagonals))
	return out, closed, nil
}

// SinkReport tells whether the ship through a cell is down, and which cells
// around it are now known to be empty.
type SinkReport struct {
	Sunk  bool  `json:"sunk"`
	Edges []int `json:"edges"`
}

// IsShipSunk walks both ways along the ship's axis from index. Meeting an
// unstruck Ship cell means the ship still floats; otherwise the first
// non-Struck cell on each side bounds the wreck.
func IsShipSunk(b Board, index int) (SinkReport, error) {
	if !b.grid.Contains(index) {
		return SinkReport{}, fmt.Errorf("index %d: %w", index, ErrOutOfBounds)
	}
	origin := b.cells[index]
	if origin.Orientation == Unset {
		return SinkReport{}, fmt.Errorf("index %d: %w", index, ErrNotShip)
	}

	back, forth := StepLeft, StepRight
	if origin.Orientation == Vertical {
		back, forth = StepUp, StepDown
	}
	var bounds []int
	for _, step := range [2]int{back, forth} {
		for j := origin.Verticals[step]; j != NoCell; j = b.cells[j].Verticals[step] {
			s := b.cells[j].State
			if s == Ship {
				return SinkReport{Sunk: false, Edges: []int{}}, nil
			}
			if s != Struck {
				bounds = append(bounds, j)
				break
			}
		}
	}

	row, col := b.grid.Matrix(index)
	edges := mapset.New[int]()
	for _, j := range bounds {
		r, c := b.grid.Matrix(j)
		if origin.Orientation == Vertical && c == col || origin.Orientation == Horizontal && r == row {
			edges.Put(j)
		}
	}
	for _, j := range compact(origin.Verticals) {
		edges.Put(j)
	}
	return SinkReport{Sunk: true, Edges: sorted(edges)}, nil
}

// CloseCells marks every Empty cell among indices as Closed. Cells in any
// other state are left alone, so applying the same batch twice is a no-op.
func CloseCells(b Board, indices []int) (Board, []int) {
	out := b.Clone()
	return out, closeCells(out, indices)
}

// closeCells mutates b in place; callers pass a board they own.
func closeCells(b Board, indices []int) []int {
	closed := []int{}
	for _, idx := range indices {
		if !b.grid.Contains(idx) || b.cells[idx].State != Empty {
			continue
		}
		b.cells[idx].State = Closed
		closed = append(closed, idx)
	}
	return closed
}

// Attack resolves a shot at index the way a human move is handled: repeat
// shots are rejected, a hit closes its diagonals, and a sink closes the cells
// flanking the wreck.
func Attack(b Board, index int) (Board, StrikeOutcome, error) {
	cell, err := b.Cell(index)
	if err != nil {
		return b, StrikeOutcome{}, err
	}
	out := StrikeOutcome{Index: index, Before: cell.State, After: ResolveStrike(cell.State)}
	nb, closed, err := ApplyStrike(b, index, out.After)
	if err != nil {
		return b, StrikeOutcome{}, err
	}
	out.Closed = closed
	if !out.Hit() {
		return nb, out, nil
	}

	report, err := IsShipSunk(nb, index)
	if err != nil {
		return b, StrikeOutcome{}, err
	}
	if report.Sunk {
		out.Sunk = true
		out.Closed = append(out.Closed, closeCells(nb, report.Edges)...)
		sort.Ints(out.Closed)
	}
	return nb, out, nil
}

func sorted(s mapset.Set[int]) []int {
	out := make([]int, 0, s.Size())
	s.Each(func(v int) { out = append(out, v) })
	sort.Ints(out)
	return out
}
