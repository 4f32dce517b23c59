// Package partialclose implements staged profit-taking: closing configured
// fractions of a position's volume as profit thresholds are reached.
package partialclose

import (
	"sort"

	"github.com/jeden-/agent-mt5/pkg/errors"
)

// StrategyKind names a partial close strategy in configuration.
type StrategyKind string

const (
	// StrategyLevels closes an increasing fraction of the original volume
	// per configured profit stage, in ascending order.
	StrategyLevels StrategyKind = "levels"
	// StrategyFixedPercent closes a single fraction once at a threshold.
	StrategyFixedPercent StrategyKind = "fixed-percent"
	// StrategyFixedLots closes an absolute volume once at a threshold.
	StrategyFixedLots StrategyKind = "fixed-lots"
)

// Level is one (profit threshold, close fraction) stage.
type Level struct {
	ProfitPips    float64 `yaml:"profit_pips" json:"profit_pips" validate:"gt=0"`
	CloseFraction float64 `yaml:"close_fraction" json:"close_fraction" validate:"gt=0,lte=1"`
}

// Config selects and parameterizes one partial close strategy.
type Config struct {
	Strategy      StrategyKind `yaml:"strategy" json:"strategy" validate:"required"`
	Levels        []Level      `yaml:"levels" json:"levels"`
	ThresholdPips float64      `yaml:"threshold_pips" json:"threshold_pips"`
	CloseFraction float64      `yaml:"close_fraction" json:"close_fraction"`
	CloseLots     float64      `yaml:"close_lots" json:"close_lots"`
}

// Validate checks the config fields required by the selected strategy.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyLevels:
		if len(c.Levels) == 0 {
			return errors.New(errors.ErrCodeStrategyConfigError, "levels strategy requires at least one level")
		}

		for _, level := range c.Levels {
			if level.ProfitPips <= 0 || level.CloseFraction <= 0 || level.CloseFraction > 1 {
				return errors.Newf(errors.ErrCodeStrategyConfigError,
					"invalid level (%.1f, %.2f): profit must be positive and fraction in (0, 1]",
					level.ProfitPips, level.CloseFraction)
			}
		}
	case StrategyFixedPercent:
		if c.ThresholdPips <= 0 || c.CloseFraction <= 0 || c.CloseFraction > 1 {
			return errors.New(errors.ErrCodeStrategyConfigError, "fixed-percent requires positive threshold_pips and close_fraction in (0, 1]")
		}
	case StrategyFixedLots:
		if c.ThresholdPips <= 0 || c.CloseLots <= 0 {
			return errors.New(errors.ErrCodeStrategyConfigError, "fixed-lots requires positive threshold_pips and close_lots")
		}
	default:
		return errors.Newf(errors.ErrCodeUnknownStrategy, "unknown partial close strategy %q", c.Strategy)
	}

	return nil
}

// sortedLevels returns the configured levels ascending by profit threshold.
func (c Config) sortedLevels() []Level {
	levels := make([]Level, len(c.Levels))
	copy(levels, c.Levels)

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].ProfitPips < levels[j].ProfitPips
	})

	return levels
}

// Selector picks the config for a symbol, falling back to the default.
type Selector struct {
	defaultConfig *Config
	bySymbol      map[string]Config
}

// NewSelector builds a selector from the default config and optional
// per-symbol overrides. A nil default disables the engine for symbols
// without an override.
func NewSelector(defaultCfg *Config, bySymbol map[string]Config) (Selector, error) {
	if defaultCfg != nil {
		if err := defaultCfg.Validate(); err != nil {
			return Selector{}, err
		}
	}

	for symbol, cfg := range bySymbol {
		if err := cfg.Validate(); err != nil {
			return Selector{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid partial close config for symbol %s", symbol)
		}
	}

	return Selector{defaultConfig: defaultCfg, bySymbol: bySymbol}, nil
}

// For returns the config for the symbol, or nil when none applies.
func (s Selector) For(symbol string) *Config {
	if cfg, ok := s.bySymbol[symbol]; ok {
		return &cfg
	}

	return s.defaultConfig
}
