package game

import (
	"io"

	"github.com/charmbracelet/log"
)

// Option configures an Engine during creation.
type Option func(*engineConfig)

type engineConfig struct {
	logger        *log.Logger
	maxRounds     int                  // 0 plays forever
	starvedPolicy StarvedAuctionPolicy // Default: StarvedAllowPass
	turnOrder     TurnOrderRule        // Default: TurnOrderKeep
}

func defaultConfig() engineConfig {
	return engineConfig{
		logger:        log.New(io.Discard),
		starvedPolicy: StarvedAllowPass,
		turnOrder:     TurnOrderKeep,
	}
}

// WithLogger sets the logger. Engines are silent by default.
func WithLogger(logger *log.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxRounds ends the game once round n completes.
func WithMaxRounds(n int) Option {
	return func(c *engineConfig) {
		c.maxRounds = max(0, n)
	}
}

// WithStarvedAuctionPolicy decides whether a player who cannot afford any
// market plant may pass in the first round.
func WithStarvedAuctionPolicy(p StarvedAuctionPolicy) Option {
	return func(c *engineConfig) {
		c.starvedPolicy = p
	}
}

// WithTurnOrderRule sets how the turn order is recomputed at each round
// start.
func WithTurnOrderRule(r TurnOrderRule) Option {
	return func(c *engineConfig) {
		c.turnOrder = r
	}
}
