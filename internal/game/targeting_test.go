package game_test

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"sea-battle/internal/game"
)

func TestPrunePerpendiculars(t *testing.T) {
	d := game.Directions{
		game.Up:    {11, 1},
		game.Left:  {20, 19, 18},
		game.Right: {22, 23, 24},
		game.Down:  {31, 41, 51},
	}

	vertical := game.PrunePerpendiculars(31, d)
	if len(vertical[game.Left]) != 0 || len(vertical[game.Right]) != 0 {
		t.Errorf("Expected left/right pruned, got %v", vertical)
	}
	if !reflect.DeepEqual(vertical[game.Up], []int{11, 1}) || !reflect.DeepEqual(vertical[game.Down], []int{31, 41, 51}) {
		t.Errorf("Expected up/down untouched, got %v", vertical)
	}

	horizontal := game.PrunePerpendiculars(20, d)
	if len(horizontal[game.Up]) != 0 || len(horizontal[game.Down]) != 0 {
		t.Errorf("Expected up/down pruned, got %v", horizontal)
	}
	if !reflect.DeepEqual(horizontal[game.Left], []int{20, 19, 18}) || !reflect.DeepEqual(horizontal[game.Right], []int{22, 23, 24}) {
		t.Errorf("Expected left/right untouched, got %v", horizontal)
	}

	if got := game.PrunePerpendiculars(77, d); !reflect.DeepEqual(got, d) {
		t.Errorf("unknown index changed queues: %v", got)
	}
	if len(d[game.Left]) != 3 {
		t.Error("PrunePerpendiculars mutated its input")
	}
}

func TestPossibleHits(t *testing.T) {
	b := game.NewBoard(game.DefaultSize)
	d := game.PossibleHits(b, 55, 4)
	want := game.Directions{
		game.Up:    {45, 35, 25},
		game.Left:  {54, 53, 52},
		game.Right: {56, 57, 58},
		game.Down:  {65, 75, 85},
	}
	if !reflect.DeepEqual(d, want) {
		t.Errorf("PossibleHits(55) = %v, want %v", d, want)
	}

	corner := game.PossibleHits(b, 0, 4)
	if len(corner[game.Up]) != 0 || len(corner[game.Left]) != 0 {
		t.Errorf("Expected no leads off the grid, got %v", corner)
	}
	if !reflect.DeepEqual(corner[game.Right], []int{1, 2, 3}) || !reflect.DeepEqual(corner[game.Down], []int{10, 20, 30}) {
		t.Errorf("corner leads = %v", corner)
	}

	blocked := boardWith(t, map[int]game.CellState{35: game.Missed, 53: game.Closed})
	d = game.PossibleHits(blocked, 55, 4)
	if !reflect.DeepEqual(d[game.Up], []int{45}) || !reflect.DeepEqual(d[game.Left], []int{54}) {
		t.Errorf("Expected probes to stop at resolved cells, got %v", d)
	}
}

func TestDirectionText(t *testing.T) {
	for _, dir := range []game.Direction{game.Up, game.Left, game.Right, game.Down, game.NoDirection} {
		text, _ := dir.MarshalText()
		var back game.Direction
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if back != dir {
			t.Errorf("Expected %v, got %v", dir, back)
		}
	}
	var d game.Direction
	if err := d.UnmarshalText([]byte("north")); err == nil {
		t.Error("Expected an error for an unknown direction")
	}
}

func TestComputerTurnNoCandidates(t *testing.T) {
	b := game.NewBoard(game.DefaultSize)
	st := game.NewTargetingState(0)
	_, got, _, err := game.ComputerTurn(rand.New(rand.NewSource(1)), b, st, 4)
	if !errors.Is(err, game.ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates, got %v", err)
	}
	if got.Remaining.Count() != 0 || got.Targeting() {
		t.Error("Expected state to be returned unchanged")
	}
}

func TestComputerTurnRandomMiss(t *testing.T) {
	b := game.NewBoard(game.DefaultSize)
	st := game.NewTargetingState(b.Len())

	nb, next, res, err := game.ComputerTurn(rand.New(rand.NewSource(3)), b, st, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index < 0 || res.Index >= 100 {
		t.Fatalf("Expected index on the board, got %d", res.Index)
	}
	if res.Mode != game.RandomAttack || res.Before != game.Empty || res.After != game.Missed {
		t.Errorf("unexpected result %+v", res)
	}
	if nb.State(res.Index) != game.Missed {
		t.Errorf("Expected %d missed, got %v", res.Index, nb.State(res.Index))
	}
	if next.Remaining.Count() != 99 || next.Remaining.Test(uint(res.Index)) {
		t.Errorf("Expected %d removed from the pool", res.Index)
	}
	if next.Targeting() {
		t.Error("a miss must not leave leads")
	}
	if st.Remaining.Count() != 100 || b.State(res.Index) != game.Empty {
		t.Error("ComputerTurn mutated its inputs")
	}
}

func TestComputerTurnSkipsAttackedCells(t *testing.T) {
	b := boardWith(t, map[int]game.CellState{10: game.Struck, 20: game.Missed, 30: game.Struck})
	st := game.NewTargetingState(b.Len())
	for _, idx := range []uint{10, 20, 30} {
		st.Remaining.Clear(idx)
	}
	for seed := int64(0); seed < 20; seed++ {
		_, _, res, err := game.ComputerTurn(rand.New(rand.NewSource(seed)), b, st, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Index == 10 || res.Index == 20 || res.Index == 30 {
			t.Errorf("seed %d attacked resolved cell %d", seed, res.Index)
		}
	}
}

// cruiser lays a horizontal three-cell ship at 55-57.
func cruiser(t *testing.T) game.Board {
	t.Helper()
	b, err := game.PlaceShip(game.NewBoard(game.DefaultSize), 55, 3, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestComputerTurnRandomHitOpensLeads(t *testing.T) {
	b := cruiser(t)
	st := game.NewTargetingState(b.Len())
	st.Remaining.ClearAll()
	st.Remaining.Set(56)

	nb, next, res, err := game.ComputerTurn(rand.New(rand.NewSource(1)), b, st, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 56 || res.After != game.Struck || res.Sunk {
		t.Fatalf("unexpected result %+v", res)
	}
	if want := []int{45, 47, 65, 67}; !reflect.DeepEqual(res.Closed, want) {
		t.Errorf("closed = %v, want %v", res.Closed, want)
	}
	want := game.PossibleHits(nb, 56, 4)
	if !reflect.DeepEqual(next.Directions, want) {
		t.Errorf("leads = %v, want %v", next.Directions, want)
	}
	if !reflect.DeepEqual(next.Directions[game.Left], []int{55, 54, 53}) {
		t.Errorf("left lead = %v", next.Directions[game.Left])
	}
	if next.LastSuccess != game.NoDirection {
		t.Errorf("Expected no direction yet, got %v", next.LastSuccess)
	}
}

func TestComputerTurnTargetedSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	b, _, err := game.Attack(cruiser(t), 56)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := game.NewTargetingState(b.Len())
	for i := 0; i < b.Len(); i++ {
		if b.State(i).Resolved() {
			st.Remaining.Clear(uint(i))
		}
	}
	st.Directions = game.PossibleHits(b, 56, 4)
	st.LastSuccess = game.Right

	// hit along the remembered direction keeps the axis
	b, st, res, err := game.ComputerTurn(rng, b, st, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 57 || res.After != game.Struck || res.Mode != game.TargetedAttack {
		t.Fatalf("unexpected result %+v", res)
	}
	if st.LastSuccess != game.Right {
		t.Errorf("Expected right remembered, got %v", st.LastSuccess)
	}
	if len(st.Directions[game.Up]) != 0 || len(st.Directions[game.Down]) != 0 {
		t.Errorf("Expected vertical leads dropped, got %v", st.Directions)
	}

	// miss past the bow drops the whole direction
	b, st, res, err = game.ComputerTurn(rng, b, st, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 58 || res.After != game.Missed {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(st.Directions[game.Right]) != 0 || st.LastSuccess != game.NoDirection {
		t.Errorf("Expected right dropped and forgotten, got %v / %v", st.Directions, st.LastSuccess)
	}

	// only the left lead is left and it finishes the ship
	b, st, res, err = game.ComputerTurn(rng, b, st, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Index != 55 || !res.Sunk {
		t.Fatalf("unexpected result %+v", res)
	}
	if want := []int{44, 54, 64}; !reflect.DeepEqual(res.Closed, want) {
		t.Errorf("closed = %v, want %v", res.Closed, want)
	}
	if st.Targeting() || st.LastSuccess != game.NoDirection {
		t.Errorf("Expected targeting reset after a sink, got %v", st.Directions)
	}
	if !game.IsAllSunk(3, b) {
		t.Error("Expected the only ship to be sunk")
	}
	assertPoolMatchesBoard(t, b, st)
}

func assertPoolMatchesBoard(t *testing.T, b game.Board, st game.TargetingState) {
	t.Helper()
	for i := 0; i < b.Len(); i++ {
		open := !b.State(i).Resolved()
		if st.Remaining.Test(uint(i)) != open {
			t.Errorf("cell %d: in pool = %v, open = %v", i, st.Remaining.Test(uint(i)), open)
		}
	}
}

func TestComputerClearsFleet(t *testing.T) {
	fleet := game.StandardFleet(game.DefaultMaxShipLength)
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		b, err := game.FillField(rng, game.DefaultSize, fleet, game.DefaultPlacementAttempts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		st := game.NewTargetingState(b.Len())
		seen := make(map[int]bool)
		turns := 0
		for !game.IsAllSunk(fleet.TotalCells(), b) {
			if turns == b.Len() {
				t.Fatalf("seed %d: fleet still afloat after %d turns", seed, turns)
			}
			var res game.TurnResult
			b, st, res, err = game.ComputerTurn(rng, b, st, fleet.MaxLength())
			if err != nil {
				t.Fatalf("seed %d turn %d: unexpected error: %v", seed, turns, err)
			}
			if seen[res.Index] {
				t.Fatalf("seed %d: cell %d attacked twice", seed, res.Index)
			}
			seen[res.Index] = true
			if res.Before == game.Closed {
				t.Fatalf("seed %d: attacked closed cell %d", seed, res.Index)
			}
			turns++
		}
		assertPoolMatchesBoard(t, b, st)
		if b.Count(game.Ship) != 0 {
			t.Errorf("seed %d: %d ship cells left after win", seed, b.Count(game.Ship))
		}
	}
}

func TestIsAllSunk(t *testing.T) {
	withStruck := func(n int) game.Board {
		set := make(map[int]game.CellState)
		for i := 0; i < 20; i++ {
			set[i*5] = game.Ship
		}
		for i := 0; i < n; i++ {
			set[i*5] = game.Struck
		}
		return boardWith(t, set)
	}
	if !game.IsAllSunk(20, withStruck(20)) {
		t.Error("Expected true with 20 struck cells")
	}
	for _, n := range []int{0, 10, 19} {
		if game.IsAllSunk(20, withStruck(n)) {
			t.Errorf("Expected false with %d struck cells", n)
		}
	}
	if game.IsAllSunk(20, game.Board{}) {
		t.Error("Expected false on an empty board")
	}
}
