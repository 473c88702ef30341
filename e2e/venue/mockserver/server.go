// Package mockserver provides a mock Deriv websocket server for testing.
// It speaks the same JSON verbs as the production venue: authorize, ticks,
// ticks_history, buy, proposal_open_contract and forget_all, and lets tests
// drive market data and settlements deterministically.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// BuyMode controls how the server answers buy requests.
type BuyMode int

const (
	// BuyModeAck acknowledges every buy with a fresh contract.
	BuyModeAck BuyMode = iota
	// BuyModeReject answers every buy with an InsufficientBalance error.
	BuyModeReject
	// BuyModeSilent swallows buy requests so the client's ack timeout fires.
	BuyModeSilent
)

// Contract is the server-side record of an accepted buy.
type Contract struct {
	ContractID   int64
	Symbol       string
	ContractType string
	Stake        float64
	Currency     string
	Duration     int
	DurationUnit string
	RequestID    string
	PurchaseTime time.Time
	Settled      bool
	Profit       float64
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// Token is the API token authorize accepts. Empty accepts any token.
	Token string
	// InitialPrices seeds history generation and tick quotes per symbol.
	// Symbols missing from the map start at 100.
	InitialPrices map[string]float64
}

type candleKey struct {
	symbol      string
	granularity int
}

// session is one websocket client with its subscriptions. Writes are
// serialized per session because settlement and market data pushes come from
// test goroutines while responses come from the read loop.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex

	authorized   bool
	tickSubs     map[string]string
	candleSubs   map[candleKey]string
	contractSubs map[int64]bool
}

func (sess *session) write(v interface{}) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.conn.WriteJSON(v)
}

// DerivServer provides a mock Deriv websocket server for testing.
type DerivServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	token       string
	prices      map[string]float64
	buyMode     BuyMode
	contracts   map[int64]*Contract
	contractSeq int64

	sessions map[*session]bool

	authCalls    int
	historyCalls int
}

// clientRequest is the superset of inbound verbs, dispatched on whichever
// field is populated.
type clientRequest struct {
	Authorize            *string                `json:"authorize"`
	Ticks                string                 `json:"ticks"`
	TicksHistory         string                 `json:"ticks_history"`
	Style                string                 `json:"style"`
	Granularity          int                    `json:"granularity"`
	Count                int                    `json:"count"`
	End                  string                 `json:"end"`
	AdjustStartTime      int                    `json:"adjust_start_time"`
	Subscribe            int                    `json:"subscribe"`
	Buy                  int                    `json:"buy"`
	Price                float64                `json:"price"`
	Parameters           *contractParameters    `json:"parameters"`
	ProposalOpenContract int                    `json:"proposal_open_contract"`
	ContractID           int64                  `json:"contract_id"`
	ForgetAll            json.RawMessage        `json:"forget_all"`
	Ping                 int                    `json:"ping"`
	ReqID                int64                  `json:"req_id"`
	Passthrough          map[string]interface{} `json:"passthrough"`
}

type contractParameters struct {
	Amount       float64 `json:"amount"`
	Basis        string  `json:"basis"`
	ContractType string  `json:"contract_type"`
	Currency     string  `json:"currency"`
	Duration     int     `json:"duration"`
	DurationUnit string  `json:"duration_unit"`
	Symbol       string  `json:"symbol"`
}

// NewDerivServer creates a new mock Deriv server.
func NewDerivServer(config ServerConfig) *DerivServer {
	server := &DerivServer{
		mu: sync.RWMutex{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		token:       config.Token,
		prices:      make(map[string]float64),
		buyMode:     BuyModeAck,
		contracts:   make(map[int64]*Contract),
		contractSeq: 10000,
		sessions:    make(map[*session]bool),
		httpServer:  nil,
		listener:    nil,
	}

	for symbol, price := range config.InitialPrices {
		server.prices[symbol] = price
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *DerivServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/websockets/v3", s.handleWebSocket)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *DerivServer) Stop() error {
	s.mu.Lock()
	for sess := range s.sessions {
		sess.conn.Close()
	}
	s.sessions = make(map[*session]bool)
	s.mu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Address returns the address the server is listening on.
func (s *DerivServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// URL returns the websocket endpoint clients should dial.
func (s *DerivServer) URL() string {
	return "ws://" + s.Address() + "/websockets/v3"
}

// SetBuyMode switches how subsequent buy requests are answered.
func (s *DerivServer) SetBuyMode(mode BuyMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyMode = mode
}

// SetPrice sets the current price for a symbol.
func (s *DerivServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Contract returns the record of an accepted buy, or nil.
func (s *DerivServer) Contract(contractID int64) *Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.contracts[contractID]; ok {
		copied := *c

		return &copied
	}

	return nil
}

// Contracts returns all accepted buys in no particular order.
func (s *DerivServer) Contracts() []*Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		copied := *c
		result = append(result, &copied)
	}

	return result
}

// AuthCalls returns how many authorize requests the server has seen. It
// grows by one per reconnect.
func (s *DerivServer) AuthCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.authCalls
}

// HistoryCalls returns how many ticks_history requests the server has seen.
func (s *DerivServer) HistoryCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.historyCalls
}

// SessionCount returns the number of live websocket connections.
func (s *DerivServer) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// DropConnections closes every live connection without stopping the server,
// simulating a transport failure.
func (s *DerivServer) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sess := range s.sessions {
		sess.conn.Close()
	}
	s.sessions = make(map[*session]bool)
}

// PushTick sends a tick to every session subscribed to the symbol and
// records the price as current.
func (s *DerivServer) PushTick(symbol string, quote float64) {
	s.mu.Lock()
	s.prices[symbol] = quote
	targets := make(map[*session]string)
	for sess := range s.sessions {
		sess.mu.Lock()
		if sid, ok := sess.tickSubs[symbol]; ok {
			targets[sess] = sid
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	epoch := time.Now().Unix()
	for sess, sid := range targets {
		_ = sess.write(map[string]interface{}{
			"msg_type": "tick",
			"subscription": map[string]interface{}{
				"id": sid,
			},
			"tick": map[string]interface{}{
				"symbol": symbol,
				"quote":  quote,
				"epoch":  epoch,
				"id":     sid,
			},
		})
	}
}

// PushOHLC sends one forming-candle update to every session holding a candle
// subscription for the symbol and granularity. A new openTime closes the
// previous bucket on the client side.
func (s *DerivServer) PushOHLC(symbol string, granularity int, openTime int64, open, high, low, closePx float64) {
	key := candleKey{symbol: symbol, granularity: granularity}

	s.mu.RLock()
	targets := make(map[*session]string)
	for sess := range s.sessions {
		sess.mu.Lock()
		if sid, ok := sess.candleSubs[key]; ok {
			targets[sess] = sid
		}
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	for sess, sid := range targets {
		_ = sess.write(map[string]interface{}{
			"msg_type": "ohlc",
			"subscription": map[string]interface{}{
				"id": sid,
			},
			"ohlc": map[string]interface{}{
				"symbol":      symbol,
				"id":          sid,
				"epoch":       time.Now().Unix(),
				"open_time":   openTime,
				"granularity": granularity,
				"open":        strconv.FormatFloat(open, 'f', 4, 64),
				"high":        strconv.FormatFloat(high, 'f', 4, 64),
				"low":         strconv.FormatFloat(low, 'f', 4, 64),
				"close":       strconv.FormatFloat(closePx, 'f', 4, 64),
			},
		})
	}
}

// SettleContract marks a contract sold and pushes the final update to every
// session subscribed to it. Status follows the sign of profit.
func (s *DerivServer) SettleContract(contractID int64, profit, entryTick, exitTick float64) error {
	s.mu.Lock()
	contract, ok := s.contracts[contractID]
	if !ok {
		s.mu.Unlock()

		return fmt.Errorf("unknown contract %d", contractID)
	}
	contract.Settled = true
	contract.Profit = profit

	targets := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sess.mu.Lock()
		if sess.contractSubs[contractID] {
			targets = append(targets, sess)
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	status := "lost"
	if profit > 0 {
		status = "won"
	}

	for _, sess := range targets {
		_ = sess.write(map[string]interface{}{
			"msg_type": "proposal_open_contract",
			"proposal_open_contract": map[string]interface{}{
				"contract_id": contractID,
				"status":      status,
				"is_sold":     1,
				"profit":      profit,
				"entry_tick":  entryTick,
				"exit_tick":   exitTick,
				"sell_time":   time.Now().Unix(),
			},
		})
	}

	return nil
}

// handleWebSocket runs one session: upgrade, then serve verbs until the
// connection drops.
func (s *DerivServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sess := &session{
		conn:         conn,
		tickSubs:     make(map[string]string),
		candleSubs:   make(map[candleKey]string),
		contractSubs: make(map[int64]bool),
	}

	s.mu.Lock()
	s.sessions[sess] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req clientRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}

		s.dispatch(sess, &req)
	}
}

func (s *DerivServer) dispatch(sess *session, req *clientRequest) {
	switch {
	case req.Authorize != nil:
		s.handleAuthorize(sess, req)
	case req.Ping == 1:
		_ = sess.write(map[string]interface{}{
			"msg_type": "pong",
			"req_id":   req.ReqID,
		})
	case !s.isAuthorized(sess):
		s.writeError(sess, req.ReqID, "AuthorizationRequired", "Please authorize first.")
	case req.Ticks != "":
		s.handleTicks(sess, req)
	case req.TicksHistory != "":
		s.handleTicksHistory(sess, req)
	case req.Buy == 1:
		s.handleBuy(sess, req)
	case req.ProposalOpenContract == 1:
		s.handleProposalOpenContract(sess, req)
	case req.ForgetAll != nil:
		s.handleForgetAll(sess, req)
	}
}

func (s *DerivServer) isAuthorized(sess *session) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.authorized
}

func (s *DerivServer) handleAuthorize(sess *session, req *clientRequest) {
	s.mu.Lock()
	s.authCalls++
	token := s.token
	s.mu.Unlock()

	if token != "" && *req.Authorize != token {
		s.writeError(sess, req.ReqID, "InvalidToken", "The token is invalid.")

		return
	}

	sess.mu.Lock()
	sess.authorized = true
	sess.mu.Unlock()

	_ = sess.write(map[string]interface{}{
		"msg_type": "authorize",
		"req_id":   req.ReqID,
		"authorize": map[string]interface{}{
			"loginid":  "VRTC90001",
			"email":    "pilot@example.com",
			"currency": "USD",
			"balance":  10000.0,
		},
	})
}

func (s *DerivServer) handleTicks(sess *session, req *clientRequest) {
	sid := uuid.New().String()

	sess.mu.Lock()
	sess.tickSubs[req.Ticks] = sid
	sess.mu.Unlock()

	s.mu.RLock()
	quote := s.prices[req.Ticks]
	s.mu.RUnlock()
	if quote == 0 {
		quote = 100.0
	}

	_ = sess.write(map[string]interface{}{
		"msg_type": "tick",
		"req_id":   req.ReqID,
		"subscription": map[string]interface{}{
			"id": sid,
		},
		"tick": map[string]interface{}{
			"symbol": req.Ticks,
			"quote":  quote,
			"epoch":  time.Now().Unix(),
			"id":     sid,
		},
	})
}

func (s *DerivServer) handleTicksHistory(sess *session, req *clientRequest) {
	s.mu.Lock()
	s.historyCalls++
	base := s.prices[req.TicksHistory]
	s.mu.Unlock()
	if base == 0 {
		base = 100.0
	}

	granularity := req.Granularity
	if granularity == 0 {
		granularity = 60
	}
	count := req.Count
	if count == 0 {
		count = 100
	}

	response := map[string]interface{}{
		"msg_type": "candles",
		"req_id":   req.ReqID,
		"candles":  generateCandles(base, count, granularity),
	}

	if req.Subscribe == 1 {
		sid := uuid.New().String()

		sess.mu.Lock()
		sess.candleSubs[candleKey{symbol: req.TicksHistory, granularity: granularity}] = sid
		sess.mu.Unlock()

		response["subscription"] = map[string]interface{}{"id": sid}
	}

	_ = sess.write(response)
}

func (s *DerivServer) handleBuy(sess *session, req *clientRequest) {
	if req.Parameters == nil {
		s.writeError(sess, req.ReqID, "InputValidationFailed", "Missing contract parameters.")

		return
	}

	s.mu.Lock()
	mode := s.buyMode
	s.mu.Unlock()

	switch mode {
	case BuyModeSilent:
		return
	case BuyModeReject:
		_ = sess.write(map[string]interface{}{
			"msg_type": "buy",
			"req_id":   req.ReqID,
			"error": map[string]interface{}{
				"code":    "InsufficientBalance",
				"message": "Your account balance is insufficient.",
			},
		})

		return
	}

	requestID := ""
	if v, ok := req.Passthrough["request_id"].(string); ok {
		requestID = v
	}

	s.mu.Lock()
	s.contractSeq++
	contract := &Contract{
		ContractID:   s.contractSeq,
		Symbol:       req.Parameters.Symbol,
		ContractType: req.Parameters.ContractType,
		Stake:        req.Parameters.Amount,
		Currency:     req.Parameters.Currency,
		Duration:     req.Parameters.Duration,
		DurationUnit: req.Parameters.DurationUnit,
		RequestID:    requestID,
		PurchaseTime: time.Now(),
	}
	s.contracts[contract.ContractID] = contract
	s.mu.Unlock()

	_ = sess.write(map[string]interface{}{
		"msg_type":    "buy",
		"req_id":      req.ReqID,
		"passthrough": req.Passthrough,
		"buy": map[string]interface{}{
			"contract_id":    contract.ContractID,
			"transaction_id": contract.ContractID * 2,
			"buy_price":      contract.Stake,
			"payout":         math.Round(contract.Stake*195) / 100,
			"purchase_time":  contract.PurchaseTime.Unix(),
			"longcode":       fmt.Sprintf("%s contract on %s", contract.ContractType, contract.Symbol),
		},
	})
}

func (s *DerivServer) handleProposalOpenContract(sess *session, req *clientRequest) {
	s.mu.RLock()
	contract, ok := s.contracts[req.ContractID]
	s.mu.RUnlock()

	if !ok {
		s.writeError(sess, req.ReqID, "ContractNotFound", "No contract with that id.")

		return
	}

	if req.Subscribe == 1 {
		sess.mu.Lock()
		sess.contractSubs[req.ContractID] = true
		sess.mu.Unlock()
	}

	s.mu.RLock()
	spot := s.prices[contract.Symbol]
	s.mu.RUnlock()

	_ = sess.write(map[string]interface{}{
		"msg_type": "proposal_open_contract",
		"req_id":   req.ReqID,
		"proposal_open_contract": map[string]interface{}{
			"contract_id":  contract.ContractID,
			"status":       "open",
			"is_sold":      0,
			"entry_tick":   spot,
			"current_spot": spot,
			"profit":       0,
		},
	})
}

func (s *DerivServer) handleForgetAll(sess *session, req *clientRequest) {
	sess.mu.Lock()
	sess.tickSubs = make(map[string]string)
	sess.candleSubs = make(map[candleKey]string)
	sess.contractSubs = make(map[int64]bool)
	sess.mu.Unlock()

	_ = sess.write(map[string]interface{}{
		"msg_type":   "forget_all",
		"req_id":     req.ReqID,
		"forget_all": []interface{}{},
	})
}

func (s *DerivServer) writeError(sess *session, reqID int64, code, message string) {
	_ = sess.write(map[string]interface{}{
		"msg_type": "error",
		"req_id":   reqID,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

// generateCandles builds a deterministic candle ramp ending at the current
// bucket, oldest first. The alternating drift keeps prices positive and
// moving so indicator warm-up sees real variation.
func generateCandles(base float64, count, granularity int) []map[string]interface{} {
	end := time.Now().Unix() / int64(granularity) * int64(granularity)
	start := end - int64(count*granularity)

	price := base
	candles := make([]map[string]interface{}, 0, count)

	for i := 0; i < count; i++ {
		open := price
		delta := 0.4
		if i%2 == 0 {
			delta = -0.3
		}
		closePx := open + delta
		high := math.Max(open, closePx) + 0.1
		low := math.Min(open, closePx) - 0.1

		candles = append(candles, map[string]interface{}{
			"epoch": start + int64(i*granularity),
			"open":  open,
			"high":  high,
			"low":   low,
			"close": closePx,
		})

		price = closePx
	}

	return candles
}
