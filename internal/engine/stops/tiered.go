package stops

import (
	"fmt"
	"sort"

	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
)

// TieredBreakeven applies the highest configured (profit, stop offset) level
// whose profit threshold has been met. Levels are held sorted descending by
// profit threshold so the first match wins.
type TieredBreakeven struct {
	levels []TierLevel
}

// NewTieredBreakeven creates a tiered breakeven strategy. The given levels
// are copied and sorted descending by profit threshold.
func NewTieredBreakeven(levels []TierLevel) *TieredBreakeven {
	sorted := make([]TierLevel, len(levels))
	copy(sorted, levels)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProfitPips > sorted[j].ProfitPips
	})

	return &TieredBreakeven{levels: sorted}
}

// Kind implements Strategy.
func (s *TieredBreakeven) Kind() StrategyKind {
	return StrategyTieredBreakeven
}

// Levels returns the configured levels sorted descending by profit threshold.
func (s *TieredBreakeven) Levels() []TierLevel {
	return s.levels
}

// Evaluate implements Strategy.
func (s *TieredBreakeven) Evaluate(pos types.Position, quote types.Quote) Decision {
	profit := pos.ProfitPips(quote)

	for _, level := range s.levels {
		if profit < level.ProfitPips {
			continue
		}

		offset := types.PipsToPrice(level.StopOffsetPips, quote.EffectivePipSize())

		newStop := add(pos.OpenPrice, offset)
		if pos.Side == types.PositionSideShort {
			newStop = sub(pos.OpenPrice, offset)
		}

		return Decision{
			Modify:        true,
			NewStop:       newStop,
			CloseFraction: optional.None[float64](),
			Reason: fmt.Sprintf("tiered breakeven: level (%.1f, %.1f) reached at %.1f pips",
				level.ProfitPips, level.StopOffsetPips, profit),
		}
	}

	return unchanged()
}
