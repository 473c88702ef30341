package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// DurationUnit is the venue's unit for contract lifetimes.
type DurationUnit string

const (
	DurationUnitTicks   DurationUnit = "t"
	DurationUnitSeconds DurationUnit = "s"
	DurationUnitMinutes DurationUnit = "m"
	DurationUnitHours   DurationUnit = "h"
	DurationUnitDays    DurationUnit = "d"
)

// AsDuration converts a contract lifetime into wall-clock time. Tick-based
// contracts have no fixed wall-clock length; they estimate two seconds per
// tick for timeout sizing.
func (u DurationUnit) AsDuration(n int) time.Duration {
	switch u {
	case DurationUnitSeconds:
		return time.Duration(n) * time.Second
	case DurationUnitMinutes:
		return time.Duration(n) * time.Minute
	case DurationUnitHours:
		return time.Duration(n) * time.Hour
	case DurationUnitDays:
		return time.Duration(n) * 24 * time.Hour
	case DurationUnitTicks:
		return time.Duration(n) * 2 * time.Second
	default:
		return time.Duration(n) * time.Minute
	}
}

// TradeRequest is one order the orchestrator asks the venue to place. It
// lives from submission until a matching TradeResult arrives or a timeout
// fires, correlated by RequestID.
type TradeRequest struct {
	RequestID string    `yaml:"request_id" json:"request_id" validate:"required,uuid"`
	Symbol    string    `yaml:"symbol" json:"symbol" validate:"required"`
	Direction Direction `yaml:"direction" json:"direction" validate:"required,oneof=BUY SELL"`
	// Stake is the monetary amount committed to the contract.
	Stake    float64      `yaml:"stake" json:"stake" validate:"required,gt=0"`
	Duration int          `yaml:"duration" json:"duration" validate:"required,gt=0"`
	Unit     DurationUnit `yaml:"unit" json:"unit" validate:"required,oneof=t s m h d"`
	// SubmittedAt is set by the venue layer when the order goes on the wire.
	SubmittedAt time.Time `yaml:"submitted_at" json:"submitted_at"`
}

// Validate validates the TradeRequest before it is submitted.
func (r *TradeRequest) Validate() error {
	validate := validator.New()

	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTradeRequest, "invalid trade request", err)
	}

	return nil
}

// Lifetime is the contract duration as wall-clock time.
func (r *TradeRequest) Lifetime() time.Duration {
	return r.Unit.AsDuration(r.Duration)
}

// Outcome is the settlement status of a trade.
type Outcome string

const (
	OutcomeWon     Outcome = "WON"
	OutcomeLost    Outcome = "LOST"
	OutcomePending Outcome = "PENDING"
	OutcomeError   Outcome = "ERROR"
)

// OrderAck is the venue's acknowledgement that an order was accepted and a
// contract opened.
type OrderAck struct {
	RequestID  string `yaml:"request_id" json:"request_id"`
	Symbol     string `yaml:"symbol" json:"symbol"`
	ContractID string `yaml:"contract_id" json:"contract_id"`
	// BuyPrice is the amount actually debited for the contract.
	BuyPrice float64   `yaml:"buy_price" json:"buy_price"`
	Time     time.Time `yaml:"time" json:"time"`
}

// TradeResult is the venue's final settlement report for a contract.
type TradeResult struct {
	RequestID  string  `yaml:"request_id" json:"request_id"`
	Symbol     string  `yaml:"symbol" json:"symbol"`
	ContractID string  `yaml:"contract_id" json:"contract_id"`
	Outcome    Outcome `yaml:"outcome" json:"outcome"`
	// ProfitLoss is positive for won contracts, negative for lost ones.
	ProfitLoss float64   `yaml:"profit_loss" json:"profit_loss"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price"`
	SettledAt  time.Time `yaml:"settled_at" json:"settled_at"`
}

// SymbolStatus is the per-symbol lifecycle marker of the orchestrator's
// state machine.
type SymbolStatus string

const (
	SymbolStatusIdle       SymbolStatus = "IDLE"
	SymbolStatusSubmitting SymbolStatus = "SUBMITTING"
	SymbolStatusOpen       SymbolStatus = "OPEN"
	SymbolStatusSettled    SymbolStatus = "SETTLED"
	SymbolStatusError      SymbolStatus = "ERROR"
)

// SymbolState pairs the lifecycle marker with the active request, if any.
// At most one trade per symbol is open or submitting at any instant.
type SymbolState struct {
	Symbol string       `yaml:"symbol" json:"symbol"`
	Status SymbolStatus `yaml:"status" json:"status"`
	// Active is the in-flight TradeRequest; nil unless Status is
	// SUBMITTING or OPEN.
	Active *TradeRequest `yaml:"active" json:"active"`
	// LastTradeAt gates the trade_interval spacing guardrail.
	LastTradeAt time.Time `yaml:"last_trade_at" json:"last_trade_at"`
}

// HasOpenPosition reports whether a trade is in flight for this symbol.
func (s *SymbolState) HasOpenPosition() bool {
	return s.Status == SymbolStatusSubmitting || s.Status == SymbolStatusOpen
}
