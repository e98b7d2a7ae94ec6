package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog"

	"sea-battle/internal/anim"
	"sea-battle/internal/codec"
	"sea-battle/internal/game"
	"sea-battle/internal/merkle"
	"sea-battle/internal/zk"
)

var (
	ErrMatchOver        = errors.New("match is over")
	ErrMatchInProgress  = errors.New("match still in progress")
	ErrNotAttacked      = errors.New("cell not attacked yet")
	ErrProofUnavailable = errors.New("strike proofs need a 10x10 board")
)

type Winner string

const (
	NoWinner     Winner = ""
	PlayerWins   Winner = "player"
	ComputerWins Winner = "computer"
)

// Deal places a fleet and commits to it.
func Deal(cfg Config, rng *mrand.Rand) (game.Board, *merkle.Commitment, error) {
	if err := cfg.Validate(); err != nil {
		return game.Board{}, nil, err
	}
	b, err := game.FillField(rng, cfg.Grid(), cfg.Fleet(), cfg.PlacementAttempts)
	if err != nil {
		return game.Board{}, nil, err
	}
	c, err := merkle.Commit(b.ShipBits(), nil)
	if err != nil {
		return game.Board{}, nil, err
	}
	return b, c, nil
}

// Match is one player-versus-computer game. It holds the only copy of both
// boards and threads them through the game package on every shot. It is not
// safe for concurrent use.
type Match struct {
	ID string

	cfg       Config
	fleet     game.Fleet
	rng       *mrand.Rand
	player    game.Board // the computer shoots here
	computer  game.Board // the player shoots here
	targeting game.TargetingState
	commit    *merkle.Commitment
	turns     int
	winner    Winner
	log       zerolog.Logger
}

func NewMatch(cfg Config, log zerolog.Logger) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := mrand.New(mrand.NewSource(seed))

	player, err := game.FillField(rng, cfg.Grid(), cfg.Fleet(), cfg.PlacementAttempts)
	if err != nil {
		return nil, fmt.Errorf("player fleet: %w", err)
	}
	computer, commit, err := Deal(cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("computer fleet: %w", err)
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	m := &Match{
		ID:        id,
		cfg:       cfg,
		fleet:     cfg.Fleet(),
		rng:       rng,
		player:    player,
		computer:  computer,
		targeting: game.NewTargetingState(player.Len()),
		commit:    commit,
		log:       log.With().Str("match", id).Logger(),
	}
	m.log.Info().Int("size", cfg.Size).Int64("seed", seed).Str("root", commit.RootHex()).Msg("match started")
	return m, nil
}

func newID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (m *Match) Config() Config { return m.cfg }
func (m *Match) Fleet() game.Fleet { return m.fleet }
func (m *Match) PlayerBoard() game.Board { return m.player }
func (m *Match) ComputerBoard() game.Board { return m.computer }
func (m *Match) Targeting() game.TargetingState { return m.targeting }
func (m *Match) RootHex() string { return m.commit.RootHex() }
func (m *Match) Winner() Winner { return m.winner }
func (m *Match) Over() bool { return m.winner != NoWinner }
func (m *Match) Turns() int { return m.turns }

// Index converts a row and column on this match's boards.
func (m *Match) Index(row, col int) (int, error) {
	g := m.cfg.Grid()
	if !g.InBounds(row, col) {
		return game.NoCell, fmt.Errorf("row %d col %d: %w", row, col, game.ErrOutOfBounds)
	}
	return g.Index(row, col), nil
}

// PlayerStrike fires the player's shot at the computer's board.
func (m *Match) PlayerStrike(index int) (game.StrikeOutcome, error) {
	if m.Over() {
		return game.StrikeOutcome{}, ErrMatchOver
	}
	nb, out, err := game.Attack(m.computer, index)
	if err != nil {
		m.log.Debug().Err(err).Int("index", index).Msg("player strike rejected")
		return game.StrikeOutcome{}, err
	}
	m.computer = nb
	m.turns++
	m.log.Debug().
		Int("index", out.Index).
		Stringer("before", out.Before).
		Stringer("after", out.After).
		Bool("sunk", out.Sunk).
		Ints("closed", out.Closed).
		Msg("player strike")
	if game.IsAllSunk(m.fleet.TotalCells(), m.computer) {
		m.finish(PlayerWins)
	}
	return out, nil
}

// ComputerTurn lets the computer fire once at the player's board.
func (m *Match) ComputerTurn() (game.TurnResult, error) {
	if m.Over() {
		return game.TurnResult{}, ErrMatchOver
	}
	nb, st, res, err := game.ComputerTurn(m.rng, m.player, m.targeting, m.fleet.MaxLength())
	if err != nil {
		m.log.Error().Err(err).Msg("computer turn failed")
		return game.TurnResult{}, err
	}
	m.player, m.targeting = nb, st
	m.log.Debug().
		Int("index", res.Index).
		Stringer("before", res.Before).
		Stringer("after", res.After).
		Bool("sunk", res.Sunk).
		Ints("closed", res.Closed).
		Str("mode", string(res.Mode)).
		Msg("computer strike")
	if game.IsAllSunk(m.fleet.TotalCells(), m.player) {
		m.finish(ComputerWins)
	}
	return res, nil
}

func (m *Match) finish(w Winner) {
	m.winner = w
	m.log.Info().Str("winner", string(w)).Int("turns", m.turns).Msg("match over")
}

// Fire plays a round: the player's shot, then one computer shot unless the
// player just won. A rejected player shot leaves the match untouched. If the
// computer's shot fails, the player's shot stands and the partial round comes
// back with the error.
func (m *Match) Fire(index int) (codec.Round, error) {
	out, err := m.PlayerStrike(index)
	if err != nil {
		return codec.Round{}, err
	}
	round := codec.Round{
		Player:       out,
		PlayerFrames: anim.Blink(out.Index, hidden(out.Before), out.After, anim.BlinkAlt, anim.DefaultCycles),
	}
	if !m.Over() {
		res, err := m.ComputerTurn()
		if err != nil {
			round.Over = m.Over()
			return round, err
		}
		round.Computer = &res
		round.ComputerFrames = anim.Blink(res.Index, res.Before, res.After, anim.Attention, anim.DefaultCycles)
	}
	round.Over = m.Over()
	round.Winner = string(m.winner)
	return round, nil
}

// the player never sees a floating ship on the computer's board
func hidden(s game.CellState) game.CellState {
	if s == game.Ship {
		return game.Empty
	}
	return s
}

func (m *Match) Status() codec.Status {
	return codec.Status{
		ID:         m.ID,
		RootHex:    m.commit.RootHex(),
		Size:       m.cfg.Size,
		Fleet:      m.fleet,
		TotalCells: m.fleet.TotalCells(),
		Player:     codec.ViewOf(m.player),
		Computer:   codec.MaskedViewOf(m.computer),
		Turns:      m.turns,
		Over:       m.Over(),
		Winner:     string(m.winner),
	}
}

// Reveal discloses the computer's fleet and salt once the match is over.
func (m *Match) Reveal() (codec.Reveal, error) {
	if !m.Over() {
		return codec.Reveal{}, ErrMatchInProgress
	}
	ships, err := game.BoardFromStates(m.cfg.Grid(), revealStates(m.commit.Bits))
	if err != nil {
		return codec.Reveal{}, err
	}
	return codec.Reveal{
		RootHex: m.commit.RootHex(),
		SaltHex: merkle.Hex(m.commit.Salt),
		Bits:    append([]uint8(nil), m.commit.Bits...),
		Board:   codec.ViewOf(ships),
	}, nil
}

func revealStates(bits []uint8) []game.CellState {
	out := make([]game.CellState, len(bits))
	for i, b := range bits {
		if b == 1 {
			out[i] = game.Ship
		}
	}
	return out
}

// ProveStrike proves what the committed board holds at a cell the player has
// already resolved.
func (m *Match) ProveStrike(p *zk.Prover, index int) (codec.ShotProofPayload, error) {
	if p == nil || m.commit.Tree.Depth != zk.MerkleDepth {
		return codec.ShotProofPayload{}, ErrProofUnavailable
	}
	if !m.cfg.Grid().Contains(index) {
		return codec.ShotProofPayload{}, fmt.Errorf("index %d: %w", index, game.ErrOutOfBounds)
	}
	if !m.computer.State(index).Resolved() {
		return codec.ShotProofPayload{}, fmt.Errorf("index %d: %w", index, ErrNotAttacked)
	}
	path, dir, err := m.commit.Tree.Path(index)
	if err != nil {
		return codec.ShotProofPayload{}, err
	}
	proof, pub, err := p.Prove(zk.ShotWitness{
		Bit:   m.commit.Bits[index],
		Index: index,
		Path:  path,
		Dir:   dir,
		Salt:  m.commit.Salt,
		Root:  m.commit.Root(),
	})
	if err != nil {
		return codec.ShotProofPayload{}, err
	}
	m.log.Debug().Int("index", index).Uint8("hit", pub.Hit).Msg("strike proved")
	return codec.ShotProofPayload{Proof: proof, Public: pub}, nil
}

type VerifyResult struct {
	Valid bool  `json:"valid"`
	Hit   uint8 `json:"hit"`
	Index int   `json:"index"`
}

// VerifyWithRoot checks a strike proof against a published root.
func VerifyWithRoot(vk groth16.VerifyingKey, rootHex string, payload codec.ShotProofPayload) (*VerifyResult, error) {
	root, err := merkle.ParseHex(rootHex)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	// payloads may omit the root; VerifyShot still rejects one that differs
	if payload.Public.Root == "" {
		payload.Public.Root = merkle.Hex(root)
	}
	ok, err := zk.VerifyShot(vk, payload.Proof, payload.Public, root)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Valid: ok, Hit: payload.Public.Hit, Index: payload.Public.Index}, nil
}
