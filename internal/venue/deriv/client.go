// Package deriv implements the production venue: JSON RPC over a single
// websocket connection to the Deriv trading API. One read loop decodes
// everything the server sends; request/response pairs are matched on req_id,
// order lifecycles on contract id, and candle streams on subscription id.
package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/venue"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

const (
	eventBuffer       = 256
	heartbeatInterval = 30 * time.Second
)

type feedKey struct {
	symbol string
	tf     types.Timeframe
}

// pendingOrder is a submitted buy that has not been acknowledged yet. The
// timer fires the ack timeout.
type pendingOrder struct {
	req   types.TradeRequest
	timer *time.Timer
}

// openContract is an acknowledged trade waiting for settlement. The timer
// fires the settlement timeout (contract lifetime plus grace).
type openContract struct {
	requestID string
	symbol    string
	timer     *time.Timer
}

type rpcResult struct {
	env envelope
	err error
}

// Client is the deriv implementation of venue.Venue.
type Client struct {
	endpoint  string
	token     string
	currency  string
	lookback  int
	timeouts  config.TimeoutsConfig
	reconnect config.ReconnectConfig
	logger    *logger.Logger

	runCtx    context.Context
	runCancel context.CancelFunc

	// writeMu serializes socket writes and guards conn.
	writeMu sync.Mutex
	conn    *websocket.Conn

	reqSeq atomic.Int64

	mu       sync.Mutex
	waiters  map[int64]chan rpcResult
	pending  map[int64]*pendingOrder
	open     map[int64]*openContract
	feeds    map[feedKey]struct{}
	tickSubs map[string]struct{}
	// streams maps a candle subscription id to its feed; forming holds the
	// latest ohlc update per feed so a bucket change closes the previous one.
	streams map[string]feedKey
	forming map[feedKey]*wireOHLC

	readers sync.WaitGroup

	closeMu   sync.RWMutex
	isClosed  bool
	closeOnce sync.Once
	events    chan venue.Event
}

// NewClient builds a deriv venue from the agent configuration and the API
// token. It does not touch the network until Connect.
func NewClient(cfg *config.Config, creds config.Credentials, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		endpoint:  fmt.Sprintf("%s?app_id=%s", cfg.Deriv.Endpoint, cfg.Deriv.AppID),
		token:     creds.Token,
		currency:  cfg.Currency,
		lookback:  cfg.LookbackPeriods,
		timeouts:  cfg.Timeouts,
		reconnect: cfg.Reconnect,
		logger:    log,
		runCtx:    ctx,
		runCancel: cancel,
		waiters:   make(map[int64]chan rpcResult),
		pending:   make(map[int64]*pendingOrder),
		open:      make(map[int64]*openContract),
		feeds:     make(map[feedKey]struct{}),
		tickSubs:  make(map[string]struct{}),
		streams:   make(map[string]feedKey),
		forming:   make(map[feedKey]*wireOHLC),
		events:    make(chan venue.Event, eventBuffer),
	}
}

// Connect dials and authorizes, retrying transient failures with exponential
// backoff until the context is cancelled. A rejected token aborts the retry
// loop immediately.
func (c *Client) Connect(ctx context.Context) error {
	op := func() error {
		err := c.establish(ctx)
		if err == nil {
			return nil
		}

		if errors.IsFatal(err) {
			return backoff.Permanent(err)
		}

		c.logger.Warn("connection attempt failed", zap.Error(err))

		return err
	}

	return backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx))
}

// Subscribe opens the tick and candle streams for one (symbol, timeframe)
// feed and emits a HistoryEvent with the seed candles. Repeat calls for the
// same feed are no-ops.
func (c *Client) Subscribe(ctx context.Context, symbol string, tf types.Timeframe) error {
	key := feedKey{symbol: symbol, tf: tf}

	c.mu.Lock()
	_, exists := c.feeds[key]
	c.mu.Unlock()

	if exists {
		return nil
	}

	if err := c.openFeed(ctx, key); err != nil {
		return errors.Wrapf(errors.ErrCodeSubscribeFailed, err, "subscribe %s %s", symbol, tf)
	}

	c.mu.Lock()
	c.feeds[key] = struct{}{}
	c.mu.Unlock()

	c.logger.Info("subscribed",
		zap.String("symbol", symbol),
		zap.String("timeframe", string(tf)))

	return nil
}

// SubmitOrder puts a buy on the wire and returns. The acknowledgement,
// rejection or timeout arrives later on Events carrying the request id.
func (c *Client) SubmitOrder(_ context.Context, req types.TradeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	req.SubmittedAt = time.Now()
	reqID := c.nextReqID()

	order := &pendingOrder{req: req}
	order.timer = time.AfterFunc(c.timeouts.Ack(), func() {
		c.expireOrder(reqID)
	})

	c.mu.Lock()
	c.pending[reqID] = order
	c.mu.Unlock()

	payload := buyRequest{
		Buy:   1,
		Price: req.Stake,
		Parameters: buyParameters{
			Amount:       req.Stake,
			Basis:        "stake",
			ContractType: contractTypeFor(req.Direction),
			Currency:     c.currency,
			Duration:     req.Duration,
			DurationUnit: string(req.Unit),
			Symbol:       req.Symbol,
		},
		Passthrough: passthrough{RequestID: req.RequestID},
		ReqID:       reqID,
	}

	if err := c.send(payload); err != nil {
		order.timer.Stop()
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()

		return err
	}

	c.logger.Info("order submitted",
		zap.String("request_id", req.RequestID),
		zap.String("symbol", req.Symbol),
		zap.String("direction", string(req.Direction)),
		zap.Float64("stake", req.Stake))

	return nil
}

// Events returns the single stream of venue events. It is closed by Close.
func (c *Client) Events() <-chan venue.Event {
	return c.events
}

// Close cancels reconnection, drops all order timers, tears the socket down
// and closes the event channel. The caller must keep draining Events until
// the channel closes.
func (c *Client) Close(_ context.Context) error {
	c.closeOnce.Do(func() {
		c.runCancel()

		c.mu.Lock()
		for id, order := range c.pending {
			order.timer.Stop()
			delete(c.pending, id)
		}
		for id, contract := range c.open {
			contract.timer.Stop()
			delete(c.open, id)
		}
		c.mu.Unlock()

		if conn := c.currentConn(); conn != nil {
			_ = c.writeTo(conn, forgetAllRequest{
				ForgetAll: []string{"ticks", "candles", "proposal_open_contract"},
				ReqID:     c.nextReqID(),
			})
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}

		c.readers.Wait()

		c.closeMu.Lock()
		c.isClosed = true
		c.closeMu.Unlock()
		close(c.events)

		c.logger.Info("venue connection closed")
	})

	return nil
}

// establish performs one full connection attempt: dial, start the read and
// heartbeat loops, authorize, then restore any feeds and open contracts that
// were active before a drop.
func (c *Client) establish(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeConnectionFailed, err, "dial %s", c.endpoint)
	}

	c.setConn(conn)
	c.readers.Add(2)
	go c.readLoop(conn)
	go c.heartbeat(conn)

	if err := c.authorize(ctx); err != nil {
		c.teardownConn(conn)

		return err
	}

	if err := c.restoreSubscriptions(ctx); err != nil {
		c.teardownConn(conn)

		return err
	}

	return nil
}

func (c *Client) authorize(ctx context.Context) error {
	rpcCtx, cancel := context.WithTimeout(ctx, c.timeouts.Ack())
	defer cancel()

	reqID := c.nextReqID()

	env, err := c.roundTrip(rpcCtx, reqID, authorizeRequest{Authorize: c.token, ReqID: reqID})
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeAuthFailed) {
			return err
		}

		return errors.Wrap(errors.ErrCodeConnectionFailed, "authorization did not complete", err)
	}

	if env.Authorize == nil {
		return errors.New(errors.ErrCodeAuthFailed, "authorization response carried no account details")
	}

	c.logger.Info("authorized",
		zap.String("login_id", env.Authorize.LoginID),
		zap.String("currency", env.Authorize.Currency))

	return nil
}

// restoreSubscriptions re-opens every known feed and re-attaches to every
// open contract on a fresh connection. History re-delivery fills any candle
// gap accumulated while the transport was down.
func (c *Client) restoreSubscriptions(ctx context.Context) error {
	c.mu.Lock()
	feeds := make([]feedKey, 0, len(c.feeds))
	for key := range c.feeds {
		feeds = append(feeds, key)
	}
	contracts := make([]int64, 0, len(c.open))
	for id := range c.open {
		contracts = append(contracts, id)
	}
	c.tickSubs = make(map[string]struct{})
	c.streams = make(map[string]feedKey)
	c.forming = make(map[feedKey]*wireOHLC)
	c.mu.Unlock()

	sort.Slice(feeds, func(i, j int) bool {
		if feeds[i].symbol != feeds[j].symbol {
			return feeds[i].symbol < feeds[j].symbol
		}

		return feeds[i].tf < feeds[j].tf
	})

	for _, key := range feeds {
		if err := c.openFeed(ctx, key); err != nil {
			return errors.Wrapf(errors.ErrCodeSubscribeFailed, err, "restore %s %s feed", key.symbol, key.tf)
		}
	}

	for _, id := range contracts {
		req := proposalOpenContractRequest{
			ProposalOpenContract: 1,
			ContractID:           id,
			Subscribe:            1,
			ReqID:                c.nextReqID(),
		}
		if err := c.send(req); err != nil {
			return err
		}
	}

	return nil
}

// openFeed subscribes the symbol's tick stream once, then the candle stream
// for this timeframe, and hands the returned history to the event channel.
func (c *Client) openFeed(ctx context.Context, key feedKey) error {
	c.mu.Lock()
	_, tickSubbed := c.tickSubs[key.symbol]
	c.mu.Unlock()

	if !tickSubbed {
		reqID := c.nextReqID()

		env, err := c.roundTrip(ctx, reqID, ticksRequest{Ticks: key.symbol, Subscribe: 1, ReqID: reqID})
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.tickSubs[key.symbol] = struct{}{}
		c.mu.Unlock()

		// The subscription confirmation doubles as the first observation.
		if env.Tick != nil {
			c.emit(venue.TickEvent{Tick: env.Tick.toTick()})
		}
	}

	reqID := c.nextReqID()
	req := ticksHistoryRequest{
		TicksHistory:    key.symbol,
		AdjustStartTime: 1,
		Count:           c.lookback,
		End:             "latest",
		Style:           "candles",
		Granularity:     key.tf.Granularity(),
		Subscribe:       1,
		ReqID:           reqID,
	}

	env, err := c.roundTrip(ctx, reqID, req)
	if err != nil {
		return err
	}

	wire := env.Candles
	if wire == nil && env.History != nil {
		wire = env.History.Candles
	}

	candles := make([]types.Candle, 0, len(wire))
	for i := range wire {
		candles = append(candles, wire[i].toCandle(key.symbol, key.tf))
	}

	if env.Subscription != nil {
		c.mu.Lock()
		c.streams[env.Subscription.ID] = key
		c.mu.Unlock()
	}

	c.emit(venue.HistoryEvent{Symbol: key.symbol, Timeframe: key.tf, Candles: candles})

	return nil
}

// roundTrip writes one request and waits for the response matching reqID.
func (c *Client) roundTrip(ctx context.Context, reqID int64, payload any) (envelope, error) {
	ch := make(chan rpcResult, 1)

	c.mu.Lock()
	c.waiters[reqID] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, reqID)
		c.mu.Unlock()
	}()

	if err := c.send(payload); err != nil {
		return envelope{}, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return envelope{}, res.err
		}
		if res.env.Error != nil {
			return res.env, res.env.Error.asError()
		}

		return res.env, nil
	case <-ctx.Done():
		return envelope{}, errors.Wrap(errors.ErrCodeReadFailed, "no response from venue", ctx.Err())
	case <-c.runCtx.Done():
		return envelope{}, errors.New(errors.ErrCodeConnectionClosed, "client is closing")
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.readers.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.runCtx.Err() != nil || c.currentConn() != conn {
				return
			}

			c.clearConn(conn)
			lost := errors.Wrap(errors.ErrCodeConnectionClosed, "transport lost", err)
			c.logger.Warn("connection lost", zap.Error(lost))
			c.failWaiters(lost)
			c.emit(venue.ConnectionLostEvent{Err: lost})

			go c.reconnectLoop()

			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("undecodable message from venue", zap.Error(err))

			continue
		}

		c.dispatch(env)
	}
}

// heartbeat keeps the connection alive through idle stretches. The server
// drops sockets that stay silent for a couple of minutes.
func (c *Client) heartbeat(conn *websocket.Conn) {
	defer c.readers.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			if c.currentConn() != conn {
				return
			}

			if err := c.writeTo(conn, pingRequest{Ping: 1, ReqID: c.nextReqID()}); err != nil {
				return
			}
		}
	}
}

func (c *Client) reconnectLoop() {
	attempts := 0

	op := func() error {
		attempts++

		err := c.establish(c.runCtx)
		if err == nil {
			return nil
		}

		if errors.IsFatal(err) {
			return backoff.Permanent(err)
		}

		c.logger.Warn("reconnect attempt failed", zap.Int("attempt", attempts), zap.Error(err))

		return err
	}

	err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), c.runCtx))
	if err != nil {
		if c.runCtx.Err() != nil {
			return
		}

		// Only a fatal error escapes the retry loop; the orchestrator
		// stops the agent when it sees it.
		c.logger.Error("reconnect abandoned", zap.Error(err))
		c.emit(venue.ConnectionLostEvent{Err: err})

		return
	}

	c.logger.Info("connection restored", zap.Int("attempts", attempts))
	c.emit(venue.ConnectionRestoredEvent{Attempts: attempts})
}

// dispatch routes one inbound envelope: first to a waiting round trip, then
// by message type.
func (c *Client) dispatch(env envelope) {
	if env.ReqID != 0 {
		c.mu.Lock()
		ch, ok := c.waiters[env.ReqID]
		if ok {
			delete(c.waiters, env.ReqID)
		}
		c.mu.Unlock()

		if ok {
			ch <- rpcResult{env: env}

			return
		}
	}

	switch env.MsgType {
	case "tick":
		if env.Tick != nil {
			c.emit(venue.TickEvent{Tick: env.Tick.toTick()})
		}
	case "ohlc":
		if env.OHLC != nil {
			c.advanceCandle(env.OHLC)
		}
	case "buy":
		c.resolveBuy(env)
	case "proposal_open_contract":
		c.resolveContract(env)
	case "ping", "pong", "forget_all":
	default:
		if env.Error != nil {
			c.logger.Warn("venue error",
				zap.String("msg_type", env.MsgType),
				zap.Error(env.Error.asError()))
		}
	}
}

// advanceCandle tracks the forming candle of a stream and emits the previous
// one as closed when the bucket start moves forward.
func (c *Client) advanceCandle(cur *wireOHLC) {
	c.mu.Lock()
	key, ok := c.streams[cur.ID]
	if !ok {
		c.mu.Unlock()

		return
	}
	prev := c.forming[key]
	c.forming[key] = cur
	c.mu.Unlock()

	if prev != nil && prev.OpenTime != cur.OpenTime {
		c.emit(venue.CandleEvent{Candle: prev.toCandle(key.tf)})
	}
}

func (c *Client) resolveBuy(env envelope) {
	c.mu.Lock()
	order, ok := c.pending[env.ReqID]
	if ok {
		delete(c.pending, env.ReqID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	order.timer.Stop()

	if env.Error != nil {
		err := errors.Wrapf(errors.ErrCodeOrderRejected, env.Error.asError(),
			"order %s rejected", order.req.RequestID)
		c.logger.Warn("order rejected",
			zap.String("request_id", order.req.RequestID),
			zap.String("symbol", order.req.Symbol),
			zap.Error(err))
		c.emit(venue.TradeResultEvent{
			Result: types.TradeResult{
				RequestID: order.req.RequestID,
				Symbol:    order.req.Symbol,
				Outcome:   types.OutcomeError,
				SettledAt: time.Now(),
			},
			Err: err,
		})

		return
	}

	if env.Buy == nil {
		err := errors.Newf(errors.ErrCodeVenueAPI,
			"buy response for order %s carried no contract", order.req.RequestID)
		c.emit(venue.TradeResultEvent{
			Result: types.TradeResult{
				RequestID: order.req.RequestID,
				Symbol:    order.req.Symbol,
				Outcome:   types.OutcomeError,
				SettledAt: time.Now(),
			},
			Err: err,
		})

		return
	}

	contractID := env.Buy.ContractID
	ackTime := time.Now()
	if env.Buy.PurchaseTime > 0 {
		ackTime = time.Unix(env.Buy.PurchaseTime, 0).UTC()
	}

	ack := types.OrderAck{
		RequestID:  order.req.RequestID,
		Symbol:     order.req.Symbol,
		ContractID: strconv.FormatInt(contractID, 10),
		BuyPrice:   float64(env.Buy.BuyPrice),
		Time:       ackTime,
	}

	contract := &openContract{requestID: order.req.RequestID, symbol: order.req.Symbol}
	contract.timer = time.AfterFunc(order.req.Lifetime()+c.timeouts.SettleGrace(), func() {
		c.expireContract(contractID)
	})

	c.mu.Lock()
	c.open[contractID] = contract
	c.mu.Unlock()

	c.logger.Info("order acknowledged",
		zap.String("request_id", ack.RequestID),
		zap.String("contract_id", ack.ContractID),
		zap.Float64("buy_price", ack.BuyPrice))
	c.emit(venue.OrderAckEvent{Ack: ack})

	poc := proposalOpenContractRequest{
		ProposalOpenContract: 1,
		ContractID:           contractID,
		Subscribe:            1,
		ReqID:                c.nextReqID(),
	}
	if err := c.send(poc); err != nil {
		// A reconnect re-attaches to the contract; the settlement timer
		// still bounds the wait either way.
		c.logger.Warn("could not subscribe to contract updates",
			zap.String("contract_id", ack.ContractID),
			zap.Error(err))
	}
}

func (c *Client) resolveContract(env envelope) {
	upd := env.Contract
	if upd == nil || !bool(upd.IsSold) {
		return
	}

	c.mu.Lock()
	contract, ok := c.open[upd.ContractID]
	if ok {
		delete(c.open, upd.ContractID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	contract.timer.Stop()

	outcome := types.OutcomeLost
	if float64(upd.Profit) > 0 {
		outcome = types.OutcomeWon
	}

	settledAt := time.Now()
	if upd.SellTime > 0 {
		settledAt = time.Unix(upd.SellTime, 0).UTC()
	}

	result := types.TradeResult{
		RequestID:  contract.requestID,
		Symbol:     contract.symbol,
		ContractID: strconv.FormatInt(upd.ContractID, 10),
		Outcome:    outcome,
		ProfitLoss: float64(upd.Profit),
		EntryPrice: float64(upd.EntryTick),
		ExitPrice:  float64(upd.ExitTick),
		SettledAt:  settledAt,
	}

	c.logger.Info("trade settled",
		zap.String("request_id", result.RequestID),
		zap.String("symbol", result.Symbol),
		zap.String("outcome", string(outcome)),
		zap.Float64("profit_loss", result.ProfitLoss))
	c.emit(venue.TradeResultEvent{Result: result})
}

// expireOrder fires when a buy got no acknowledgement inside the ack window.
func (c *Client) expireOrder(reqID int64) {
	c.mu.Lock()
	order, ok := c.pending[reqID]
	if ok {
		delete(c.pending, reqID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	err := errors.Newf(errors.ErrCodeOrderTimeout,
		"order %s had no acknowledgement within %s", order.req.RequestID, c.timeouts.Ack())
	c.logger.Warn("order timed out",
		zap.String("request_id", order.req.RequestID),
		zap.String("symbol", order.req.Symbol))
	c.emit(venue.TradeResultEvent{
		Result: types.TradeResult{
			RequestID: order.req.RequestID,
			Symbol:    order.req.Symbol,
			Outcome:   types.OutcomeError,
			SettledAt: time.Now(),
		},
		Err: err,
	})
}

// expireContract fires when an acknowledged contract never reported a
// settlement inside its lifetime plus grace.
func (c *Client) expireContract(contractID int64) {
	c.mu.Lock()
	contract, ok := c.open[contractID]
	if ok {
		delete(c.open, contractID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	err := errors.Newf(errors.ErrCodeSettlementTimeout,
		"contract %d for order %s never settled", contractID, contract.requestID)
	c.logger.Warn("settlement timed out",
		zap.String("request_id", contract.requestID),
		zap.String("symbol", contract.symbol),
		zap.Int64("contract_id", contractID))
	c.emit(venue.TradeResultEvent{
		Result: types.TradeResult{
			RequestID:  contract.requestID,
			Symbol:     contract.symbol,
			ContractID: strconv.FormatInt(contractID, 10),
			Outcome:    types.OutcomeError,
			SettledAt:  time.Now(),
		},
		Err: err,
	})
}

func (c *Client) failWaiters(err error) {
	c.mu.Lock()
	for id, ch := range c.waiters {
		delete(c.waiters, id)
		ch <- rpcResult{err: err}
	}
	c.mu.Unlock()
}

func (c *Client) emit(ev venue.Event) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()

	if c.isClosed {
		return
	}

	c.events <- ev
}

func (c *Client) send(payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return errors.New(errors.ErrCodeNotConnected, "venue transport is down")
	}

	if err := c.conn.WriteJSON(payload); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "write to venue failed", err)
	}

	return nil
}

func (c *Client) writeTo(conn *websocket.Conn, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteJSON(payload)
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
}

func (c *Client) currentConn() *websocket.Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn
}

func (c *Client) clearConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.writeMu.Unlock()
}

// teardownConn abandons a half-established connection without triggering the
// reconnect path.
func (c *Client) teardownConn(conn *websocket.Conn) {
	c.clearConn(conn)
	conn.Close()
}

func (c *Client) nextReqID() int64 {
	return c.reqSeq.Add(1)
}

func (c *Client) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.reconnect.BaseDelay()
	bo.MaxInterval = c.reconnect.MaxDelay()
	bo.MaxElapsedTime = 0

	return bo
}
