package codec

import (
	"sea-battle/internal/anim"
	"sea-battle/internal/game"
	"sea-battle/internal/zk"
)

// BoardView is a board as a front end draws it, row-major.
type BoardView struct {
	Size  int              `json:"size"`
	Cells []game.CellState `json:"cells"`
}

func ViewOf(b game.Board) BoardView {
	return BoardView{Size: int(b.Grid()), Cells: b.States()}
}

// MaskedViewOf hides floating ships.
func MaskedViewOf(b game.Board) BoardView {
	return BoardView{Size: int(b.Grid()), Cells: b.Masked()}
}

// Secret is a committed board as the defender keeps it.
type Secret struct {
	Board   BoardView `json:"board"`
	SaltHex string    `json:"salt_hex"`
	RootHex string    `json:"root_hex"`
}

// Reveal discloses the computer's board once the match is over.
type Reveal struct {
	RootHex string    `json:"rootHex"`
	SaltHex string    `json:"saltHex"`
	Bits    []uint8   `json:"bits"`
	Board   BoardView `json:"board"`
}

type ShotProofPayload struct {
	Proof  []byte        `json:"proof"`
	Public zk.ShotPublic `json:"public"` // root, index and hit
}

type Status struct {
	ID         string     `json:"id"`
	RootHex    string     `json:"rootHex"`
	Size       int        `json:"size"`
	Fleet      game.Fleet `json:"fleet"`
	TotalCells int        `json:"totalCells"`
	Player     BoardView  `json:"player"`
	Computer   BoardView  `json:"computer"`
	Turns      int        `json:"turns"`
	Over       bool       `json:"over"`
	Winner     string     `json:"winner,omitempty"`
}

// Round is one player shot and the computer's answer, if any.
type Round struct {
	Player         game.StrikeOutcome `json:"player"`
	Computer       *game.TurnResult   `json:"computer,omitempty"`
	PlayerFrames   []anim.Frame       `json:"playerFrames"`
	ComputerFrames []anim.Frame       `json:"computerFrames,omitempty"`
	Over           bool               `json:"over"`
	Winner         string             `json:"winner,omitempty"`
}
