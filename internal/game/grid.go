package game

// Grid is the side length N of a square N x N board. Cells are addressed
// in row-major order: index = row*N + col.
type Grid int

// DefaultSize is the classic 10 x 10 sea.
const DefaultSize Grid = 10

// NoCell marks an absent neighbor slot.
const NoCell = -1

// Slots of Cell.Verticals. The order is fixed: placement walks Down or Right,
// sink detection walks Up/Down or Left/Right.
const (
	StepUp = iota
	StepLeft
	StepRight
	StepDown
)

type offset struct{ dr, dc int }

// NW, NE, SW, SE
var diagonalOffsets = [4]offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// up, left, right, down
var orthogonalOffsets = [4]offset{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}

func (g Grid) Cells() int { return int(g) * int(g) }

func (g Grid) Index(row, col int) int { return row*int(g) + col }

func (g Grid) Matrix(index int) (row, col int) { return index / int(g), index % int(g) }

func (g Grid) InBounds(row, col int) bool {
	return row >= 0 && row < int(g) && col >= 0 && col < int(g)
}

// Contains reports whether index addresses a cell of the grid.
func (g Grid) Contains(index int) bool { return index >= 0 && index < g.Cells() }

// slots returns one entry per offset, NoCell where the offset leaves the grid.
func (g Grid) slots(index int, offsets [4]offset) [4]int {
	row, col := g.Matrix(index)
	var out [4]int
	for i, o := range offsets {
		r, c := row+o.dr, col+o.dc
		if g.InBounds(r, c) {
			out[i] = g.Index(r, c)
		} else {
			out[i] = NoCell
		}
	}
	return out
}

// Diagonals lists the in-bounds diagonal neighbors of index (NW, NE, SW, SE order).
func (g Grid) Diagonals(index int) []int { return compact(g.slots(index, diagonalOffsets)) }

// Near lists the in-bounds orthogonal neighbors of index (up, left, right, down order).
func (g Grid) Near(index int) []int { return compact(g.slots(index, orthogonalOffsets)) }

func compact(slots [4]int) []int {
	out := make([]int, 0, len(slots))
	for _, idx := range slots {
		if idx != NoCell {
			out = append(out, idx)
		}
	}
	return out
}
