package feed

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// wsKlineServe matches the SDK stream entry point so tests can inject a
// scripted stream.
type wsKlineServe func(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// Binance streams live binance kline updates as ticks. Each update of the
// forming one-minute kline becomes one observation at its close price, so
// the simulator trades against real market movement without any venue
// credentials.
type Binance struct {
	symbols []string
	client  *binance.Client
	serve   wsKlineServe
	logger  *logger.Logger
}

// NewBinance builds a feed over the public binance market data API. No API
// keys are needed for klines.
func NewBinance(symbols []string, log *logger.Logger) *Binance {
	return &Binance{
		symbols: symbols,
		client:  binance.NewClient("", ""),
		serve:   binance.WsKlineServe,
		logger:  log,
	}
}

// History fetches the most recent count klines over REST.
func (b *Binance) History(ctx context.Context, symbol string, tf types.Timeframe, count int) ([]types.Candle, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(tf)).
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeVenueAPI, err, "fetching %s %s klines", symbol, tf)
	}

	return klinesToCandles(symbol, tf, klines)
}

// Start opens one kline stream per symbol and merges them into a single
// tick channel.
func (b *Binance) Start(ctx context.Context) (<-chan types.Tick, error) {
	out := make(chan types.Tick)

	stops := make([]chan struct{}, 0, len(b.symbols))
	dones := make([]chan struct{}, 0, len(b.symbols))

	for _, symbol := range b.symbols {
		doneC, stopC, err := b.serve(symbol, "1m", b.klineHandler(ctx, symbol, out), b.streamErrHandler(symbol))
		if err != nil {
			for _, stop := range stops {
				close(stop)
			}

			return nil, errors.Wrapf(errors.ErrCodeConnectionFailed, err, "starting %s kline stream", symbol)
		}

		stops = append(stops, stopC)
		dones = append(dones, doneC)
	}

	go func() {
		<-ctx.Done()

		for _, stop := range stops {
			close(stop)
		}
		for _, done := range dones {
			<-done
		}

		close(out)
	}()

	return out, nil
}

func (b *Binance) klineHandler(ctx context.Context, symbol string, out chan<- types.Tick) binance.WsKlineHandler {
	return func(event *binance.WsKlineEvent) {
		price, err := strconv.ParseFloat(event.Kline.Close, 64)
		if err != nil || price <= 0 {
			return
		}

		tick := types.Tick{
			Symbol: symbol,
			Price:  price,
			Time:   time.UnixMilli(event.Time).UTC(),
		}

		select {
		case out <- tick:
		case <-ctx.Done():
		}
	}
}

func (b *Binance) streamErrHandler(symbol string) binance.ErrHandler {
	return func(err error) {
		b.logger.Warn("kline stream error", zap.String("symbol", symbol), zap.Error(err))
	}
}

func klinesToCandles(symbol string, tf types.Timeframe, klines []*binance.Kline) ([]types.Candle, error) {
	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePx, _ := strconv.ParseFloat(k.Close, 64)

		start := time.UnixMilli(k.OpenTime).UTC()
		candle := types.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Start:     start,
			End:       start.Add(tf.Duration()),
		}

		if err := candle.Validate(); err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	return candles, nil
}
