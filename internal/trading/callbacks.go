package trading

import (
	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Lifecycle callback types for the orchestrator's run phases.
// Callbacks run on the dispatch goroutine and must not block.

// OnSeedDoneCallback is called after one (symbol, timeframe) feed had its
// history folded into the indicator engine. candles is how many seed
// candles were applied.
type OnSeedDoneCallback func(symbol string, timeframe types.Timeframe, candles int)

// OnSignalCallback is called for every evaluated signal, actionable or not.
type OnSignalCallback func(signal types.Signal)

// OnOrderPlacedCallback is called when a trade request goes to the venue.
type OnOrderPlacedCallback func(req types.TradeRequest)

// OnOrderFilledCallback is called when the venue acknowledges an order and
// opens the contract.
type OnOrderFilledCallback func(ack types.OrderAck)

// OnTradeSettledCallback is called after a settlement was recorded in the
// stats tracker.
type OnTradeSettledCallback func(result types.TradeResult)

// OnStopCallback is called when Run exits (always called via defer).
type OnStopCallback func(err error)

// Callbacks holds all lifecycle callback functions for the orchestrator.
// All fields are pointers - nil means no callback will be invoked.
type Callbacks struct {
	// OnSeedDone is called after one feed's history seeding.
	OnSeedDone *OnSeedDoneCallback

	// OnSignal is called for every evaluated signal.
	OnSignal *OnSignalCallback

	// OnOrderPlaced is called when a trade request goes to the venue.
	OnOrderPlaced *OnOrderPlacedCallback

	// OnOrderFilled is called when the venue acknowledges an order.
	OnOrderFilled *OnOrderFilledCallback

	// OnTradeSettled is called after a settlement was recorded.
	OnTradeSettled *OnTradeSettledCallback

	// OnStop is called when Run exits (always called via defer).
	OnStop *OnStopCallback
}
