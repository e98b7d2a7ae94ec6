package game

import "errors"

var (
	// ErrOutOfBounds is returned for an index or row/col outside the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrAlreadyAttacked is returned when a Struck, Missed or Closed cell is targeted again.
	ErrAlreadyAttacked = errors.New("cell already attacked")
	// ErrNoCandidates is returned when a random attack has no cell left to pick.
	ErrNoCandidates = errors.New("no cells left to attack")
	// ErrPlacementStarvation is returned when fleet placement exceeds its attempt cap.
	ErrPlacementStarvation = errors.New("failed to place ships")
	ErrCannotPlace         = errors.New("ship cannot be placed there")
	ErrNotShip             = errors.New("cell never held a ship")
)
