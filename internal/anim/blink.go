// Package anim sequences the blink shown when a shot lands. Highlights are
// an overlay on top of the board and never touch game state.
package anim

import (
	"time"

	"sea-battle/internal/game"
)

// Highlight codes continue the cell state codes; 5 is unused.
type Highlight uint8

const (
	None      Highlight = 0
	Attention Highlight = 6
	BlinkAlt  Highlight = 7
)

// DefaultCycles matches three on/off flashes before the result shows.
const DefaultCycles = 3

// Frame is one visual write: a highlight over Index, or, with None, the
// plain State.
type Frame struct {
	Index     int            `json:"index"`
	Highlight Highlight      `json:"highlight"`
	State     game.CellState `json:"state"`
}

// Blink alternates h with the pre-shot state cycles times and ends on the
// resolved state.
func Blink(index int, before, after game.CellState, h Highlight, cycles int) []Frame {
	frames := make([]Frame, 0, 2*cycles+1)
	for i := 0; i < cycles; i++ {
		frames = append(frames,
			Frame{Index: index, Highlight: h, State: before},
			Frame{Index: index, Highlight: None, State: before},
		)
	}
	return append(frames, Frame{Index: index, Highlight: None, State: after})
}

// Play hands each frame to apply, pausing delay between frames. It cannot be
// interrupted; the last frame always lands.
func Play(frames []Frame, delay time.Duration, apply func(Frame)) {
	for i, f := range frames {
		apply(f)
		if delay > 0 && i < len(frames)-1 {
			time.Sleep(delay)
		}
	}
}

// Overlay maps cell index to the highlight drawn over it.
type Overlay map[int]Highlight

// Apply records the frame's highlight, clearing it for None.
func (o Overlay) Apply(f Frame) {
	if f.Highlight == None {
		delete(o, f.Index)
		return
	}
	o[f.Index] = f.Highlight
}
