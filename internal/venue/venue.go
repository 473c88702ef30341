// Package venue defines the contract between the trading pipeline and a
// brokerage venue. A venue owns the transport: it streams market data and
// order lifecycle events through one channel, and accepts non-blocking
// order submissions. Implementations live in the deriv and paper
// subpackages.
package venue

import (
	"context"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

// Venue is one outbound connection to one brokerage. All inbound traffic
// surfaces on Events in arrival order; nothing blocks waiting for a reply.
type Venue interface {
	// Connect establishes the transport and authenticates. It returns a
	// fatal error on credential rejection; transient transport failures
	// are retried internally.
	Connect(ctx context.Context) error

	// Subscribe registers interest in a (symbol, timeframe) feed and seeds
	// it with history. Subscribing to the same pair twice is a no-op.
	Subscribe(ctx context.Context, symbol string, timeframe types.Timeframe) error

	// SubmitOrder sends an order and returns as soon as it is on the wire.
	// The acknowledgement or rejection arrives later as an event carrying
	// the request's id.
	SubmitOrder(ctx context.Context, req types.TradeRequest) error

	// Events is the single stream of everything the venue produces.
	Events() <-chan Event

	// Close tears the transport down and closes the event channel.
	Close(ctx context.Context) error
}

// Event is the sealed union of everything a venue can emit.
type Event interface {
	isEvent()
}

// TickEvent carries one live price observation.
type TickEvent struct {
	Tick types.Tick
}

// CandleEvent carries a closed candle from the venue's candle stream.
type CandleEvent struct {
	Candle types.Candle
}

// HistoryEvent delivers the seed candles fetched when a feed is first
// subscribed, oldest first. It arrives before any live event for that feed,
// and again after a reconnect to fill the gap.
type HistoryEvent struct {
	Symbol    string
	Timeframe types.Timeframe
	Candles   []types.Candle
}

// OrderAckEvent reports that a submitted order was accepted and a contract
// opened.
type OrderAckEvent struct {
	Ack types.OrderAck
}

// TradeResultEvent reports a contract settlement, or a terminal order
// failure (rejection, ack timeout, settlement timeout) with Outcome ERROR
// and Err describing the failure.
type TradeResultEvent struct {
	Result types.TradeResult
	Err    error
}

// ConnectionLostEvent reports that the transport dropped and reconnection
// has started.
type ConnectionLostEvent struct {
	Err error
}

// ConnectionRestoredEvent reports that the transport is authenticated and
// every previously active feed is re-subscribed.
type ConnectionRestoredEvent struct {
	// Attempts is how many dial attempts the recovery took.
	Attempts int
}

func (TickEvent) isEvent()               {}
func (CandleEvent) isEvent()             {}
func (HistoryEvent) isEvent()            {}
func (OrderAckEvent) isEvent()           {}
func (TradeResultEvent) isEvent()        {}
func (ConnectionLostEvent) isEvent()     {}
func (ConnectionRestoredEvent) isEvent() {}
