// Package stats accumulates per-symbol trade outcomes. The tracker is the
// only writer of aggregate statistics; everything else reads snapshots.
package stats

import (
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// SymbolStats is the read-only view of one symbol's accumulated outcomes.
// Monetary figures are rounded to cents.
type SymbolStats struct {
	Symbol            string    `yaml:"symbol" json:"symbol"`
	TradesPlaced      int       `yaml:"trades_placed" json:"trades_placed"`
	Wins              int       `yaml:"wins" json:"wins"`
	Losses            int       `yaml:"losses" json:"losses"`
	Buys              int       `yaml:"buys" json:"buys"`
	Sells             int       `yaml:"sells" json:"sells"`
	SuccessRate       float64   `yaml:"success_rate" json:"success_rate"`
	TotalProfitLoss   float64   `yaml:"total_profit_loss" json:"total_profit_loss"`
	AvgProfitPerTrade float64   `yaml:"avg_profit_per_trade" json:"avg_profit_per_trade"`
	BestTrade         float64   `yaml:"best_trade" json:"best_trade"`
	WorstTrade        float64   `yaml:"worst_trade" json:"worst_trade"`
	// CurrentStreak is positive for a run of wins, negative for losses.
	CurrentStreak    int       `yaml:"current_streak" json:"current_streak"`
	LongestWinStreak int       `yaml:"longest_win_streak" json:"longest_win_streak"`
	LastTradeAt      time.Time `yaml:"last_trade_at" json:"last_trade_at"`
}

// Snapshot is the full stats dump written on shutdown and served over the
// reporting endpoint.
type Snapshot struct {
	SessionStart time.Time              `yaml:"session_start" json:"session_start"`
	GeneratedAt  time.Time              `yaml:"generated_at" json:"generated_at"`
	Totals       SymbolStats            `yaml:"totals" json:"totals"`
	Symbols      map[string]SymbolStats `yaml:"symbols" json:"symbols"`
}

// accumulator holds one symbol's counters. Profit arithmetic uses decimals
// so sums of cents stay exact.
type accumulator struct {
	trades      int
	wins        int
	losses      int
	buys        int
	sells       int
	pnl         decimal.Decimal
	best        decimal.Decimal
	worst       decimal.Decimal
	streak      int
	longestWin  int
	lastTradeAt time.Time
}

// Tracker accumulates settled trade outcomes per symbol. Counters only
// ever increase; ERROR and PENDING results are not outcomes and change
// nothing.
type Tracker struct {
	mu           sync.Mutex
	perSymbol    map[string]*accumulator
	sessionStart time.Time
	logger       *logger.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(log *logger.Logger) *Tracker {
	return &Tracker{
		perSymbol:    make(map[string]*accumulator),
		sessionStart: time.Now(),
		logger:       log,
	}
}

// Record folds one settled trade into the symbol's counters. Only WON and
// LOST settlements count; anything else is ignored.
func (t *Tracker) Record(result types.TradeResult, direction types.Direction) {
	if result.Outcome != types.OutcomeWon && result.Outcome != types.OutcomeLost {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.perSymbol[result.Symbol]
	if !ok {
		acc = &accumulator{}
		t.perSymbol[result.Symbol] = acc
	}

	profit := decimal.NewFromFloat(result.ProfitLoss)

	acc.trades++

	switch direction {
	case types.DirectionBuy:
		acc.buys++
	case types.DirectionSell:
		acc.sells++
	case types.DirectionNone:
	}

	if result.Outcome == types.OutcomeWon {
		acc.wins++

		if acc.streak < 0 {
			acc.streak = 0
		}

		acc.streak++
		if acc.streak > acc.longestWin {
			acc.longestWin = acc.streak
		}
	} else {
		acc.losses++

		if acc.streak > 0 {
			acc.streak = 0
		}

		acc.streak--
	}

	acc.pnl = acc.pnl.Add(profit)

	if acc.trades == 1 {
		acc.best = profit
		acc.worst = profit
	} else {
		acc.best = decimal.Max(acc.best, profit)
		acc.worst = decimal.Min(acc.worst, profit)
	}

	acc.lastTradeAt = result.SettledAt

	t.logger.Debug("trade recorded",
		zap.String("symbol", result.Symbol),
		zap.String("outcome", string(result.Outcome)),
		zap.Float64("profit_loss", result.ProfitLoss),
		zap.Int("trades_placed", acc.trades),
	)
}

// Symbol returns one symbol's stats view.
func (t *Tracker) Symbol(symbol string) (SymbolStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.perSymbol[symbol]
	if !ok {
		return SymbolStats{}, false
	}

	return acc.view(symbol), true
}

// Snapshot returns the full accumulated picture.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		SessionStart: t.sessionStart,
		GeneratedAt:  time.Now(),
		Symbols:      make(map[string]SymbolStats, len(t.perSymbol)),
	}

	totals := &accumulator{}

	for symbol, acc := range t.perSymbol {
		snap.Symbols[symbol] = acc.view(symbol)

		totals.trades += acc.trades
		totals.wins += acc.wins
		totals.losses += acc.losses
		totals.buys += acc.buys
		totals.sells += acc.sells
		totals.pnl = totals.pnl.Add(acc.pnl)

		if totals.trades == acc.trades {
			totals.best = acc.best
			totals.worst = acc.worst
		} else {
			totals.best = decimal.Max(totals.best, acc.best)
			totals.worst = decimal.Min(totals.worst, acc.worst)
		}

		if acc.lastTradeAt.After(totals.lastTradeAt) {
			totals.lastTradeAt = acc.lastTradeAt
		}
	}

	snap.Totals = totals.view("total")
	// Streaks are per-symbol runs; they do not aggregate.
	snap.Totals.CurrentStreak = 0
	snap.Totals.LongestWinStreak = 0

	return snap
}

// WriteSnapshotYAML dumps the current snapshot to path. An empty path
// means no snapshot was requested.
func (t *Tracker) WriteSnapshotYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := yaml.Marshal(t.Snapshot())
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// view derives the read-only percentages and averages from the counters.
func (a *accumulator) view(symbol string) SymbolStats {
	stats := SymbolStats{
		Symbol:           symbol,
		TradesPlaced:     a.trades,
		Wins:             a.wins,
		Losses:           a.losses,
		Buys:             a.buys,
		Sells:            a.sells,
		CurrentStreak:    a.streak,
		LongestWinStreak: a.longestWin,
		LastTradeAt:      a.lastTradeAt,
	}

	stats.TotalProfitLoss = a.pnl.Round(2).InexactFloat64()
	stats.BestTrade = a.best.Round(2).InexactFloat64()
	stats.WorstTrade = a.worst.Round(2).InexactFloat64()

	if a.trades > 0 {
		stats.SuccessRate = float64(a.wins) / float64(a.trades) * 100
		stats.AvgProfitPerTrade = a.pnl.Div(decimal.NewFromInt(int64(a.trades))).Round(2).InexactFloat64()
	}

	return stats
}
