package game

import (
	"fmt"
	"math/rand"
)

// DefaultMaxShipLength gives the 4-3-2-1 fleet: 1x4, 2x3, 3x2, 4x1.
const DefaultMaxShipLength = 4

// DefaultPlacementAttempts caps the random placement loop of FillField.
const DefaultPlacementAttempts = 100000

type ShipClass struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

// Fleet is ordered longest ship first.
type Fleet []ShipClass

// StandardFleet returns length maxLength-i with count i+1 for i in [0, maxLength).
func StandardFleet(maxLength int) Fleet {
	f := make(Fleet, 0, maxLength)
	for i := 0; i < maxLength; i++ {
		f = append(f, ShipClass{Length: maxLength - i, Count: i + 1})
	}
	return f
}

// TotalCells is the number of Struck cells that ends a match.
func (f Fleet) TotalCells() int {
	total := 0
	for _, sc := range f {
		total += sc.Length * sc.Count
	}
	return total
}

func (f Fleet) MaxLength() int {
	max := 0
	for _, sc := range f {
		if sc.Length > max {
			max = sc.Length
		}
	}
	return max
}

// CanPlaceShip reports whether a ship of length cells fits from start going
// down (vertical) or right. Every cell on the path must exist, stay on one
// line and keep clear of other ships in all eight directions.
func CanPlaceShip(b Board, start, length int, vertical bool) bool {
	if start < 0 || start >= len(b.cells) {
		return false
	}
	if b.cells[start].State == Ship {
		return false
	}

	step := StepRight
	if vertical {
		step = StepDown
	}
	cur := start
	for i := 0; i < length; i++ {
		cell := b.cells[cur]
		if touchesShip(b, cell) {
			return false
		}
		if i == length-1 {
			break
		}
		next := cell.Verticals[step]
		if next == NoCell {
			return false
		}
		r0, c0 := b.grid.Matrix(cur)
		r1, c1 := b.grid.Matrix(next)
		if vertical && c1 != c0 || !vertical && r1 != r0 {
			return false
		}
		cur = next
	}
	return true
}

func touchesShip(b Board, c Cell) bool {
	if c.State == Ship {
		return true
	}
	for _, idx := range c.Verticals {
		if idx != NoCell && b.cells[idx].State == Ship {
			return true
		}
	}
	for _, idx := range c.Diagonals {
		if idx != NoCell && b.cells[idx].State == Ship {
			return true
		}
	}
	return false
}

// PlaceShip returns a copy of b with the ship laid down.
func PlaceShip(b Board, start, length int, vertical bool) (Board, error) {
	if !CanPlaceShip(b, start, length, vertical) {
		return Board{}, fmt.Errorf("length %d at %d: %w", length, start, ErrCannotPlace)
	}
	out := b.Clone()
	placeShip(out, start, length, vertical)
	return out, nil
}

func placeShip(b Board, start, length int, vertical bool) {
	step, orient := StepRight, Horizontal
	if vertical {
		step, orient = StepDown, Vertical
	}
	cur := start
	for i := 0; i < length && cur != NoCell; i++ {
		b.cells[cur].State = Ship
		b.cells[cur].Orientation = orient
		cur = b.cells[cur].Verticals[step]
	}
}

// FillField places the fleet at random. Each ship retries a random start and
// orientation until it fits; the total number of tries is capped by maxAttempts.
func FillField(rng *rand.Rand, g Grid, f Fleet, maxAttempts int) (Board, error) {
	b := NewBoard(g)
	tries := 0
	for _, sc := range f {
		for placed := 0; placed < sc.Count; {
			if tries >= maxAttempts {
				return Board{}, fmt.Errorf("length %d after %d tries: %w", sc.Length, tries, ErrPlacementStarvation)
			}
			tries++
			vertical := rng.Intn(2) == 0
			start := rng.Intn(len(b.cells))
			if CanPlaceShip(b, start, sc.Length, vertical) {
				placeShip(b, start, sc.Length, vertical)
				placed++
			}
		}
	}
	return b, nil
}
