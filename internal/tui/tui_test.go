package tui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"sea-battle/internal/anim"
	"sea-battle/internal/app"
	"sea-battle/internal/game"
)

func newTestUI(t *testing.T) *UI {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	cfg := app.DefaultConfig()
	cfg.Seed = 17
	cfg.BlinkDelay = 0
	u, err := New(screen, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return u
}

func TestCursorMovesAndClamps(t *testing.T) {
	u := newTestUI(t)
	u.handleKey(tcell.KeyLeft, 0)
	u.handleKey(tcell.KeyUp, 0)
	if u.cursor != 0 {
		t.Fatalf("Expected cursor clamped at 0, got %d", u.cursor)
	}
	u.handleKey(tcell.KeyRight, 0)
	u.handleKey(tcell.KeyRune, 'j')
	if u.cursor != 11 {
		t.Errorf("Expected cursor at 11, got %d", u.cursor)
	}
	u.handleKey(tcell.KeyRune, 'h')
	u.handleKey(tcell.KeyRune, 'k')
	if u.cursor != 0 {
		t.Errorf("Expected cursor back at 0, got %d", u.cursor)
	}
	for i := 0; i < 20; i++ {
		u.handleKey(tcell.KeyDown, 0)
	}
	if u.cursor != 90 {
		t.Errorf("Expected cursor clamped on the last row, got %d", u.cursor)
	}
}

func TestFireUpdatesBoards(t *testing.T) {
	u := newTestUI(t)
	u.handleKey(tcell.KeyEnter, 0)
	if u.match.Turns() != 1 {
		t.Fatalf("Expected one shot, got %d", u.match.Turns())
	}
	if !u.shownComputer[0].Resolved() {
		t.Errorf("Expected cell 0 resolved on screen, got %v", u.shownComputer[0])
	}
	if len(u.overComputer) != 0 || len(u.overPlayer) != 0 {
		t.Error("Expected highlights cleared after the blink")
	}
	resolved := 0
	for _, s := range u.shownPlayer {
		if s == game.Struck || s == game.Missed {
			resolved++
		}
	}
	if resolved != 1 {
		t.Errorf("Expected one computer shot on screen, got %d", resolved)
	}

	u.handleKey(tcell.KeyRune, ' ')
	if u.match.Turns() != 1 || !strings.Contains(u.message, "Already") {
		t.Errorf("Expected a repeat to be refused, got %q", u.message)
	}
}

func TestNewMatchAndQuit(t *testing.T) {
	u := newTestUI(t)
	u.handleKey(tcell.KeyEnter, 0)
	old := u.match.ID
	if !u.handleKey(tcell.KeyRune, 'n') {
		t.Fatal("n should not quit")
	}
	if u.match.ID == old || u.match.Turns() != 0 {
		t.Error("Expected a fresh match")
	}
	for _, k := range []struct {
		key tcell.Key
		r   rune
	}{{tcell.KeyEscape, 0}, {tcell.KeyCtrlC, 0}, {tcell.KeyRune, 'q'}} {
		if u.handleKey(k.key, k.r) {
			t.Errorf("Expected %v/%q to quit", k.key, k.r)
		}
	}
}

func TestComputerShipsStayHidden(t *testing.T) {
	u := newTestUI(t)
	for i, s := range u.shownComputer {
		if s == game.Ship {
			t.Fatalf("ship drawn on the computer board at %d", i)
		}
	}
	ships := 0
	for _, s := range u.shownPlayer {
		if s == game.Ship {
			ships++
		}
	}
	if ships != 20 {
		t.Errorf("Expected own 20 ship cells drawn, got %d", ships)
	}
}

func TestCellGlyph(t *testing.T) {
	tests := []struct {
		state game.CellState
		want  rune
	}{
		{game.Empty, '.'},
		{game.Ship, '#'},
		{game.Struck, 'X'},
		{game.Missed, 'o'},
		{game.Closed, '-'},
	}
	for _, tt := range tests {
		if ch, _ := cellGlyph(tt.state, anim.None, false); ch != tt.want {
			t.Errorf("cellGlyph(%v) = %q, want %q", tt.state, ch, tt.want)
		}
	}

	_, plain := cellGlyph(game.Empty, anim.None, false)
	_, lit := cellGlyph(game.Empty, anim.Attention, false)
	_, alt := cellGlyph(game.Empty, anim.BlinkAlt, false)
	_, cur := cellGlyph(game.Empty, anim.None, true)
	if plain == lit || plain == alt || lit == alt || plain == cur {
		t.Error("Expected highlights and cursor to change the style")
	}
}

func TestDrawDoesNotPanic(t *testing.T) {
	u := newTestUI(t)
	u.draw()
	u.handleEvent(tcell.NewEventResize(80, 24))
	u.draw()
}
