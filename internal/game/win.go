package game

// IsAllSunk reports whether exactly totalShipCells cells of b are Struck.
func IsAllSunk(totalShipCells int, b Board) bool {
	if b.Len() == 0 {
		return false
	}
	return b.Count(Struck) == totalShipCells
}
