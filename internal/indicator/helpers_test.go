package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-pilot/internal/types"
)

var testStart = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// closesToCandles builds a chronological candle run where each candle opens
// at the previous close and spans half a point above and below.
func closesToCandles(symbol string, tf types.Timeframe, start time.Time, closes ...float64) []types.Candle {
	candles := make([]types.Candle, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		high := open
		if c > open {
			high = c
		}

		low := open
		if c < open {
			low = c
		}

		bucket := start.Add(time.Duration(i) * tf.Duration())
		candles[i] = types.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			Open:      open,
			High:      high + 0.5,
			Low:       low - 0.5,
			Close:     c,
			Start:     bucket,
			End:       bucket.Add(tf.Duration()),
		}
	}

	return candles
}

// ohlcCandle builds one candle with explicit prices for shape-sensitive
// indicator tests.
func ohlcCandle(symbol string, tf types.Timeframe, start time.Time, o, h, l, c float64) types.Candle {
	return types.Candle{
		Symbol:    symbol,
		Timeframe: tf,
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Start:     start,
		End:       start.Add(tf.Duration()),
	}
}

func feedCloses(ind Indicator, closes ...float64) {
	for _, candle := range closesToCandles("R_50", types.Timeframe1m, testStart, closes...) {
		ind.Update(candle)
	}
}
