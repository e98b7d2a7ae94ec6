package app

import (
	"errors"
	"fmt"
	"time"

	"sea-battle/internal/game"
)

var ErrInvalidConfig = errors.New("invalid config")

// MaxSize is the largest board side Validate accepts.
const MaxSize = 100

// Config describes one match. A zero Seed draws one from the clock.
type Config struct {
	Size              int           `json:"size"`
	MaxShipLength     int           `json:"maxShipLength"`
	PlacementAttempts int           `json:"placementAttempts"`
	Seed              int64         `json:"seed"`
	BlinkDelay        time.Duration `json:"blinkDelay"`
}

func DefaultConfig() Config {
	return Config{
		Size:              int(game.DefaultSize),
		MaxShipLength:     game.DefaultMaxShipLength,
		PlacementAttempts: game.DefaultPlacementAttempts,
		BlinkDelay:        200 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Size < 1 || c.Size > MaxSize:
		return fmt.Errorf("%w: size %d outside 1..%d", ErrInvalidConfig, c.Size, MaxSize)
	case c.MaxShipLength < 1 || c.MaxShipLength > c.Size:
		return fmt.Errorf("%w: max ship length %d on a side of %d", ErrInvalidConfig, c.MaxShipLength, c.Size)
	case c.PlacementAttempts < 1:
		return fmt.Errorf("%w: placement attempts %d", ErrInvalidConfig, c.PlacementAttempts)
	case c.BlinkDelay < 0:
		return fmt.Errorf("%w: negative blink delay", ErrInvalidConfig)
	}
	if c.Fleet().TotalCells() > c.Grid().Cells() {
		return fmt.Errorf("%w: fleet of %d cells cannot fit %d cells", ErrInvalidConfig, c.Fleet().TotalCells(), c.Grid().Cells())
	}
	return nil
}

func (c Config) Grid() game.Grid { return game.Grid(c.Size) }

func (c Config) Fleet() game.Fleet { return game.StandardFleet(c.MaxShipLength) }
