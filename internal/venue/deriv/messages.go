package deriv

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// Outbound requests. Every request carries a client-assigned req_id that the
// server echoes back, which is how responses and stream pushes are matched to
// their originating call.

type authorizeRequest struct {
	Authorize string `json:"authorize"`
	ReqID     int64  `json:"req_id"`
}

type ticksRequest struct {
	Ticks     string `json:"ticks"`
	Subscribe int    `json:"subscribe"`
	ReqID     int64  `json:"req_id"`
}

type ticksHistoryRequest struct {
	TicksHistory    string `json:"ticks_history"`
	AdjustStartTime int    `json:"adjust_start_time"`
	Count           int    `json:"count"`
	End             string `json:"end"`
	Style           string `json:"style"`
	Granularity     int    `json:"granularity"`
	Subscribe       int    `json:"subscribe,omitempty"`
	ReqID           int64  `json:"req_id"`
}

type buyParameters struct {
	Amount       float64 `json:"amount"`
	Basis        string  `json:"basis"`
	ContractType string  `json:"contract_type"`
	Currency     string  `json:"currency"`
	Duration     int     `json:"duration"`
	DurationUnit string  `json:"duration_unit"`
	Symbol       string  `json:"symbol"`
}

type buyRequest struct {
	Buy         int           `json:"buy"`
	Price       float64       `json:"price"`
	Parameters  buyParameters `json:"parameters"`
	Passthrough passthrough   `json:"passthrough"`
	ReqID       int64         `json:"req_id"`
}

type proposalOpenContractRequest struct {
	ProposalOpenContract int   `json:"proposal_open_contract"`
	ContractID           int64 `json:"contract_id"`
	Subscribe            int   `json:"subscribe"`
	ReqID                int64 `json:"req_id"`
}

type forgetAllRequest struct {
	ForgetAll []string `json:"forget_all"`
	ReqID     int64    `json:"req_id"`
}

type pingRequest struct {
	Ping  int   `json:"ping"`
	ReqID int64 `json:"req_id"`
}

// passthrough is opaque to the server and echoed on the buy response, tying
// the wire exchange back to the originating trade request.
type passthrough struct {
	RequestID string `json:"request_id"`
}

// contractTypeFor maps a trade direction onto the venue's contract grammar.
func contractTypeFor(d types.Direction) string {
	if d == types.DirectionSell {
		return "PUT"
	}

	return "CALL"
}

// envelope is the inbound superset: one struct per socket read, dispatched on
// MsgType. Only the field named by MsgType is populated.
type envelope struct {
	MsgType      string            `json:"msg_type"`
	ReqID        int64             `json:"req_id"`
	Error        *apiError         `json:"error"`
	Subscription *subscription     `json:"subscription"`
	Passthrough  *passthrough      `json:"passthrough"`
	Authorize    *authorizeDetails `json:"authorize"`
	Candles      []wireCandle      `json:"candles"`
	History      *historyPayload   `json:"history"`
	Tick         *wireTick         `json:"tick"`
	OHLC         *wireOHLC         `json:"ohlc"`
	Buy          *buyDetails       `json:"buy"`
	Contract     *contractUpdate   `json:"proposal_open_contract"`
}

type subscription struct {
	ID string `json:"id"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// asError converts a wire-level error into the coded taxonomy. Token and
// authorization failures are fatal; everything else is a venue-side
// rejection of one request.
func (e *apiError) asError() error {
	code := errors.ErrCodeVenueAPI
	if strings.Contains(e.Code, "Token") || strings.Contains(e.Code, "Authoriz") {
		code = errors.ErrCodeAuthFailed
	}

	return errors.Newf(code, "%s: %s", e.Code, e.Message)
}

type authorizeDetails struct {
	LoginID  string    `json:"loginid"`
	Email    string    `json:"email"`
	Currency string    `json:"currency"`
	Balance  wireFloat `json:"balance"`
}

type buyDetails struct {
	ContractID    int64     `json:"contract_id"`
	TransactionID int64     `json:"transaction_id"`
	BuyPrice      wireFloat `json:"buy_price"`
	Payout        wireFloat `json:"payout"`
	PurchaseTime  int64     `json:"purchase_time"`
	Longcode      string    `json:"longcode"`
}

type contractUpdate struct {
	ContractID  int64     `json:"contract_id"`
	Status      string    `json:"status"`
	IsSold      wireBool  `json:"is_sold"`
	Profit      wireFloat `json:"profit"`
	EntryTick   wireFloat `json:"entry_tick"`
	ExitTick    wireFloat `json:"exit_tick"`
	CurrentSpot wireFloat `json:"current_spot"`
	SellTime    int64     `json:"sell_time"`
}

type historyPayload struct {
	Candles []wireCandle `json:"candles"`
}

type wireTick struct {
	Symbol string    `json:"symbol"`
	Quote  wireFloat `json:"quote"`
	Epoch  int64     `json:"epoch"`
	ID     string    `json:"id"`
}

func (t *wireTick) toTick() types.Tick {
	return types.Tick{
		Symbol: t.Symbol,
		Price:  float64(t.Quote),
		Time:   time.Unix(t.Epoch, 0).UTC(),
	}
}

type wireCandle struct {
	Epoch int64     `json:"epoch"`
	Open  wireFloat `json:"open"`
	High  wireFloat `json:"high"`
	Low   wireFloat `json:"low"`
	Close wireFloat `json:"close"`
}

func (c *wireCandle) toCandle(symbol string, tf types.Timeframe) types.Candle {
	start := time.Unix(c.Epoch, 0).UTC()

	return types.Candle{
		Symbol:    symbol,
		Timeframe: tf,
		Open:      float64(c.Open),
		High:      float64(c.High),
		Low:       float64(c.Low),
		Close:     float64(c.Close),
		Start:     start,
		End:       start.Add(tf.Duration()),
	}
}

// wireOHLC is one update of the forming candle on a candle stream. OpenTime
// moves forward when a new bucket opens, which is the close signal for the
// previous one.
type wireOHLC struct {
	Symbol      string    `json:"symbol"`
	ID          string    `json:"id"`
	Epoch       int64     `json:"epoch"`
	OpenTime    int64     `json:"open_time"`
	Granularity int       `json:"granularity"`
	Open        wireFloat `json:"open"`
	High        wireFloat `json:"high"`
	Low         wireFloat `json:"low"`
	Close       wireFloat `json:"close"`
}

func (o *wireOHLC) toCandle(tf types.Timeframe) types.Candle {
	start := time.Unix(o.OpenTime, 0).UTC()

	return types.Candle{
		Symbol:    o.Symbol,
		Timeframe: tf,
		Open:      float64(o.Open),
		High:      float64(o.High),
		Low:       float64(o.Low),
		Close:     float64(o.Close),
		Start:     start,
		End:       start.Add(tf.Duration()),
	}
}

// wireFloat accepts both JSON numbers and numeric strings; the venue uses
// strings on candle streams and numbers everywhere else.
type wireFloat float64

func (f *wireFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0

		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}

	*f = wireFloat(v)

	return nil
}

// wireBool accepts the venue's 0/1 flags as well as JSON booleans.
type wireBool bool

func (b *wireBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "1", "true":
		*b = true
	case "0", "false", "null":
		*b = false
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}

		v, err := n.Int64()
		if err != nil {
			return err
		}

		*b = v != 0
	}

	return nil
}
