// Package tui is the terminal front end: the computer's board on the left,
// yours on the right, and a cursor to aim with.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"sea-battle/internal/anim"
	"sea-battle/internal/app"
	"sea-battle/internal/codec"
	"sea-battle/internal/game"
)

const (
	originX   = 3
	originY   = 2
	cellWidth = 2
	boardGap  = 8
)

type UI struct {
	screen tcell.Screen
	cfg    app.Config
	log    zerolog.Logger

	match  *app.Match
	cursor int

	// what is on screen; frames write here before the match state catches up
	shownComputer []game.CellState
	shownPlayer   []game.CellState
	overComputer  anim.Overlay
	overPlayer    anim.Overlay

	message string
}

// New starts a match and binds it to an initialized screen.
func New(screen tcell.Screen, cfg app.Config, log zerolog.Logger) (*UI, error) {
	u := &UI{screen: screen, cfg: cfg, log: log}
	if err := u.newMatch(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *UI) newMatch() error {
	m, err := app.NewMatch(u.cfg, u.log)
	if err != nil {
		return err
	}
	if u.cfg.Seed != 0 {
		u.cfg.Seed++
	}
	u.match = m
	u.cursor = 0
	u.overComputer = anim.Overlay{}
	u.overPlayer = anim.Overlay{}
	u.sync(m.Status())
	u.message = "Aim with arrows or hjkl, fire with Enter or space."
	return nil
}

func (u *UI) sync(st codec.Status) {
	u.shownComputer = st.Computer.Cells
	u.shownPlayer = st.Player.Cells
}

// Run draws and handles input until the player quits or ctx ends.
func (u *UI) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !u.handleEvent(ev) {
				return nil
			}
			u.draw()
		}
	}
}

func (u *UI) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		u.screen.Sync()
	}
	return true
}

// handleKey returns false when the player quits.
func (u *UI) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		u.move(-1, 0)
	case tcell.KeyDown:
		u.move(1, 0)
	case tcell.KeyLeft:
		u.move(0, -1)
	case tcell.KeyRight:
		u.move(0, 1)
	case tcell.KeyEnter:
		u.fire()
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'k':
			u.move(-1, 0)
		case 'j':
			u.move(1, 0)
		case 'h':
			u.move(0, -1)
		case 'l':
			u.move(0, 1)
		case ' ':
			u.fire()
		case 'n':
			if err := u.newMatch(); err != nil {
				u.message = err.Error()
			}
		}
	}
	return true
}

func (u *UI) move(dr, dc int) {
	g := u.cfg.Grid()
	row, col := g.Matrix(u.cursor)
	row, col = row+dr, col+dc
	if g.InBounds(row, col) {
		u.cursor = g.Index(row, col)
	}
}

func (u *UI) fire() {
	round, err := u.match.Fire(u.cursor)
	switch {
	case errors.Is(err, game.ErrAlreadyAttacked):
		u.message = "Already resolved, pick another cell."
		return
	case errors.Is(err, app.ErrMatchOver):
		u.message = "The match is over. Press n for a new one."
		return
	case err != nil:
		u.log.Error().Err(err).Msg("fire")
		u.sync(u.match.Status())
		u.message = err.Error()
		return
	}

	anim.Play(round.PlayerFrames, u.cfg.BlinkDelay, func(f anim.Frame) {
		u.overComputer.Apply(f)
		u.shownComputer[f.Index] = f.State
		u.draw()
	})
	if round.Computer != nil {
		anim.Play(round.ComputerFrames, u.cfg.BlinkDelay, func(f anim.Frame) {
			u.overPlayer.Apply(f)
			u.shownPlayer[f.Index] = f.State
			u.draw()
		})
	}
	u.sync(u.match.Status())
	u.message = describe(round)
}

func describe(r codec.Round) string {
	msg := "You " + verb(r.Player)
	if r.Computer != nil {
		msg += ". Computer " + verb(r.Computer.StrikeOutcome)
	}
	switch app.Winner(r.Winner) {
	case app.PlayerWins:
		msg += ". You win! Press n to play again."
	case app.ComputerWins:
		msg += ". The computer wins. Press n to play again."
	}
	return msg
}

func verb(o game.StrikeOutcome) string {
	switch {
	case o.Sunk:
		return "sank a ship"
	case o.Hit():
		return "hit"
	default:
		return "missed"
	}
}

// === drawing ===

func (u *UI) draw() {
	u.screen.Clear()
	size := u.cfg.Size
	left := originX
	right := originX + size*cellWidth + boardGap

	u.text(left, 0, "Computer", tcell.StyleDefault.Bold(true))
	u.text(right, 0, "You", tcell.StyleDefault.Bold(true))
	u.drawBoard(left, u.shownComputer, u.overComputer, u.cursor)
	u.drawBoard(right, u.shownPlayer, u.overPlayer, game.NoCell)

	y := originY + size + 1
	u.text(left, y, u.message, tcell.StyleDefault)
	u.text(left, y+1, fmt.Sprintf("shots %d  root %.18s…", u.match.Turns(), u.match.RootHex()), tcell.StyleDefault.Dim(true))
	u.text(left, y+2, "n new  q quit", tcell.StyleDefault.Dim(true))
	u.screen.Show()
}

func (u *UI) drawBoard(x0 int, cells []game.CellState, over anim.Overlay, cursor int) {
	g := u.cfg.Grid()
	for col := 0; col < u.cfg.Size; col++ {
		u.screen.SetContent(x0+col*cellWidth, originY-1, rune('A'+col%26), nil, tcell.StyleDefault.Dim(true))
	}
	for i, s := range cells {
		row, col := g.Matrix(i)
		if col == 0 {
			u.text(x0-3, originY+row, fmt.Sprintf("%2d", row+1), tcell.StyleDefault.Dim(true))
		}
		ch, style := cellGlyph(s, over[i], i == cursor)
		u.screen.SetContent(x0+col*cellWidth, originY+row, ch, nil, style)
	}
}

func (u *UI) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// cellGlyph picks what one cell looks like.
func cellGlyph(s game.CellState, h anim.Highlight, cursor bool) (rune, tcell.Style) {
	ch, style := '.', tcell.StyleDefault.Foreground(tcell.ColorSteelBlue)
	switch s {
	case game.Ship:
		ch, style = '#', tcell.StyleDefault.Foreground(tcell.ColorWhite)
	case game.Struck:
		ch, style = 'X', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	case game.Missed:
		ch, style = 'o', tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case game.Closed:
		ch, style = '-', tcell.StyleDefault.Foreground(tcell.ColorAqua)
	}
	switch h {
	case anim.Attention:
		style = style.Background(tcell.ColorPaleGoldenrod)
	case anim.BlinkAlt:
		style = style.Background(tcell.ColorGray)
	}
	if cursor {
		style = style.Reverse(true)
	}
	return ch, style
}
