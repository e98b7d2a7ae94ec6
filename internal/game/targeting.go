package game

import (
	"fmt"
	"math/rand"

	"github.com/bits-and-blooms/bitset"
)

// Direction indexes Directions and matches the Verticals slot order.
type Direction int

const (
	NoDirection Direction = -1
	Up          Direction = StepUp
	Left        Direction = StepLeft
	Right       Direction = StepRight
	Down        Direction = StepDown
)

var directionNames = [4]string{"up", "left", "right", "down"}

func (d Direction) String() string {
	if d < Up || d > Down {
		return ""
	}
	return directionNames[d]
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = NoDirection
		return nil
	}
	for i, name := range directionNames {
		if name == string(b) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", b)
}

func (d Direction) vertical() bool { return d == Up || d == Down }

// Directions holds, per compass direction, the untried cells extending from
// the last confirmed hit, nearest first.
type Directions [4][]int

func (d Directions) Empty() bool {
	for _, q := range d {
		if len(q) > 0 {
			return false
		}
	}
	return true
}

func (d Directions) Clone() Directions {
	var out Directions
	for i, q := range d {
		out[i] = append([]int(nil), q...)
	}
	return out
}

// KeepAxis drops the two queues perpendicular to dir.
func (d Directions) KeepAxis(dir Direction) Directions {
	out := d.Clone()
	if dir.vertical() {
		out[Left], out[Right] = nil, nil
	} else {
		out[Up], out[Down] = nil, nil
	}
	return out
}

// PrunePerpendiculars keeps only the axis of the queue that contains index.
// An index found in no queue leaves d unchanged.
func PrunePerpendiculars(index int, d Directions) Directions {
	for dir, q := range d {
		for _, idx := range q {
			if idx == index {
				return d.KeepAxis(Direction(dir))
			}
		}
	}
	return d.Clone()
}

// PossibleHits probes up to maxLength-1 cells in each direction from origin,
// stopping a direction at the grid edge or the first resolved cell.
func PossibleHits(b Board, origin, maxLength int) Directions {
	var d Directions
	if !b.grid.Contains(origin) {
		return d
	}
	for dir := Up; dir <= Down; dir++ {
		cur := origin
		for i := 0; i < maxLength-1; i++ {
			cur = b.cells[cur].Verticals[dir]
			if cur == NoCell || b.cells[cur].State.Resolved() {
				break
			}
			d[dir] = append(d[dir], cur)
		}
	}
	return d
}

// TargetingState is the computer's memory between turns against one board.
type TargetingState struct {
	Directions  Directions
	LastSuccess Direction
	// Remaining holds every cell neither attacked nor closed.
	Remaining *bitset.BitSet
}

func NewTargetingState(cells int) TargetingState {
	rest := bitset.New(uint(cells))
	for i := 0; i < cells; i++ {
		rest.Set(uint(i))
	}
	return TargetingState{LastSuccess: NoDirection, Remaining: rest}
}

func (s TargetingState) Clone() TargetingState {
	out := TargetingState{Directions: s.Directions.Clone(), LastSuccess: s.LastSuccess}
	if s.Remaining != nil {
		out.Remaining = s.Remaining.Clone()
	} else {
		out.Remaining = bitset.New(0)
	}
	return out
}

// Targeting reports whether a lead is pending.
func (s TargetingState) Targeting() bool { return !s.Directions.Empty() }

// RemainingIndices lists the cells still open to a random attack.
func (s TargetingState) RemainingIndices() []int {
	out := make([]int, 0, s.Remaining.Count())
	for i, ok := s.Remaining.NextSet(0); ok; i, ok = s.Remaining.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func (s *TargetingState) reset() {
	s.Directions = Directions{}
	s.LastSuccess = NoDirection
}

func (s *TargetingState) forget(indices ...int) {
	for _, idx := range indices {
		if idx >= 0 {
			s.Remaining.Clear(uint(idx))
		}
	}
}

// drop queue entries that other strikes have resolved since they were queued
func (s *TargetingState) prune(b Board) {
	for dir, q := range s.Directions {
		var kept []int
		for _, idx := range q {
			if b.grid.Contains(idx) && !b.cells[idx].State.Resolved() {
				kept = append(kept, idx)
			}
		}
		s.Directions[dir] = kept
	}
}

type AttackMode string

const (
	RandomAttack   AttackMode = "random"
	TargetedAttack AttackMode = "targeted"
)

// TurnResult is everything a computer turn changed.
type TurnResult struct {
	StrikeOutcome
	Mode      AttackMode `json:"mode"`
	Direction Direction  `json:"direction"`
}

// ComputerTurn fires exactly one shot at b. With a lead pending it probes
// along a direction queue, otherwise it picks a random open cell. The input
// board and state are left untouched; the caller keeps the returned ones.
func ComputerTurn(rng *rand.Rand, b Board, s TargetingState, maxLength int) (Board, TargetingState, TurnResult, error) {
	st := s.Clone()
	st.prune(b)
	attack := randomAttack
	if st.Targeting() {
		attack = targetedAttack
	}
	nb, st, res, err := attack(rng, b, st, maxLength)
	if err != nil {
		return b, s, TurnResult{}, err
	}
	return nb, st, res, nil
}

func randomAttack(rng *rand.Rand, b Board, st TargetingState, maxLength int) (Board, TargetingState, TurnResult, error) {
	n := st.Remaining.Count()
	if n == 0 {
		return b, st, TurnResult{}, ErrNoCandidates
	}
	pick := rng.Intn(int(n))
	idx, _ := st.Remaining.NextSet(0)
	for ; pick > 0; pick-- {
		idx, _ = st.Remaining.NextSet(idx + 1)
	}
	index := int(idx)

	nb, res, err := strike(b, &st, index)
	if err != nil {
		return b, st, TurnResult{}, err
	}
	res.Mode = RandomAttack
	st.reset()
	if res.Hit() && !res.Sunk {
		st.Directions = PossibleHits(nb, index, maxLength)
	}
	return nb, st, res, nil
}

func targetedAttack(rng *rand.Rand, b Board, st TargetingState, maxLength int) (Board, TargetingState, TurnResult, error) {
	dir := st.LastSuccess
	if dir == NoDirection || len(st.Directions[dir]) == 0 {
		var open []Direction
		for d := Up; d <= Down; d++ {
			if len(st.Directions[d]) > 0 {
				open = append(open, d)
			}
		}
		dir = open[rng.Intn(len(open))]
	}
	index := st.Directions[dir][0]
	st.Directions[dir] = st.Directions[dir][1:]

	nb, res, err := strike(b, &st, index)
	if err != nil {
		return b, st, TurnResult{}, err
	}
	res.Mode = TargetedAttack
	res.Direction = dir

	switch {
	case res.Hit() && res.Sunk:
		st.reset()
	case res.Hit():
		st.LastSuccess = dir
		st.Directions = st.Directions.KeepAxis(dir)
	default:
		st.Directions[dir] = nil
		st.LastSuccess = NoDirection
	}
	st.prune(nb)
	return nb, st, res, nil
}

// strike applies one shot and the closing cascade, then drops the attacked
// and closed cells from the random pool.
func strike(b Board, st *TargetingState, index int) (Board, TurnResult, error) {
	nb, out, err := Attack(b, index)
	if err != nil {
		return b, TurnResult{}, err
	}
	st.forget(index)
	st.forget(out.Closed...)
	return nb, TurnResult{StrikeOutcome: out, Direction: NoDirection}, nil
}
