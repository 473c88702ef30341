package deriv

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

type MessagesTestSuite struct {
	suite.Suite
}

func TestMessagesSuite(t *testing.T) {
	suite.Run(t, new(MessagesTestSuite))
}

func (suite *MessagesTestSuite) TestWireFloatAcceptsNumbersAndStrings() {
	var f wireFloat

	suite.Require().NoError(json.Unmarshal([]byte(`213.803`), &f))
	suite.InDelta(213.803, float64(f), 1e-9)

	suite.Require().NoError(json.Unmarshal([]byte(`"176.5000"`), &f))
	suite.InDelta(176.5, float64(f), 1e-9)

	suite.Require().NoError(json.Unmarshal([]byte(`null`), &f))
	suite.Zero(float64(f))

	suite.Error(json.Unmarshal([]byte(`"not a number"`), &f))
}

func (suite *MessagesTestSuite) TestWireBoolAcceptsFlagsAndBooleans() {
	var b wireBool

	suite.Require().NoError(json.Unmarshal([]byte(`1`), &b))
	suite.True(bool(b))

	suite.Require().NoError(json.Unmarshal([]byte(`0`), &b))
	suite.False(bool(b))

	suite.Require().NoError(json.Unmarshal([]byte(`true`), &b))
	suite.True(bool(b))

	suite.Require().NoError(json.Unmarshal([]byte(`false`), &b))
	suite.False(bool(b))
}

func (suite *MessagesTestSuite) TestTickEnvelopeDecodes() {
	payload := `{
		"msg_type": "tick",
		"subscription": {"id": "c84a66ae-5d7a-59a2-9a5c-5a1d5b30e0a6"},
		"tick": {
			"symbol": "R_50",
			"quote": 184.9212,
			"epoch": 1724578800,
			"id": "c84a66ae-5d7a-59a2-9a5c-5a1d5b30e0a6"
		}
	}`

	var env envelope
	suite.Require().NoError(json.Unmarshal([]byte(payload), &env))
	suite.Equal("tick", env.MsgType)
	suite.Require().NotNil(env.Tick)

	tick := env.Tick.toTick()
	suite.Equal("R_50", tick.Symbol)
	suite.InDelta(184.9212, tick.Price, 1e-9)
	suite.Equal(time.Unix(1724578800, 0).UTC(), tick.Time)
	suite.NoError(tick.Validate())
}

func (suite *MessagesTestSuite) TestOHLCEnvelopeDecodesStringPrices() {
	payload := `{
		"msg_type": "ohlc",
		"ohlc": {
			"symbol": "R_50",
			"id": "stream-1",
			"epoch": 1724578859,
			"open_time": 1724578800,
			"granularity": 60,
			"open": "184.1000",
			"high": "185.2000",
			"low": "183.9000",
			"close": "184.8000"
		}
	}`

	var env envelope
	suite.Require().NoError(json.Unmarshal([]byte(payload), &env))
	suite.Require().NotNil(env.OHLC)

	candle := env.OHLC.toCandle(types.Timeframe1m)
	suite.Equal("R_50", candle.Symbol)
	suite.Equal(types.Timeframe1m, candle.Timeframe)
	suite.InDelta(184.1, candle.Open, 1e-9)
	suite.InDelta(185.2, candle.High, 1e-9)
	suite.InDelta(183.9, candle.Low, 1e-9)
	suite.InDelta(184.8, candle.Close, 1e-9)
	suite.Equal(time.Unix(1724578800, 0).UTC(), candle.Start)
	suite.Equal(time.Unix(1724578860, 0).UTC(), candle.End)
	suite.NoError(candle.Validate())
}

func (suite *MessagesTestSuite) TestHistoryCandleConversion() {
	wire := wireCandle{Epoch: 1724578800, Open: 100, High: 101.5, Low: 99.5, Close: 101}

	candle := wire.toCandle("R_100", types.Timeframe5m)
	suite.Equal("R_100", candle.Symbol)
	suite.Equal(types.Timeframe5m, candle.Timeframe)
	suite.Equal(time.Unix(1724578800, 0).UTC(), candle.Start)
	suite.Equal(time.Unix(1724578800, 0).UTC().Add(5*time.Minute), candle.End)
	suite.NoError(candle.Validate())
}

func (suite *MessagesTestSuite) TestAPIErrorCoding() {
	tokenErr := apiError{Code: "InvalidToken", Message: "The token is invalid."}
	suite.True(errors.HasCode(tokenErr.asError(), errors.ErrCodeAuthFailed))
	suite.True(errors.IsFatal(tokenErr.asError()))

	authErr := apiError{Code: "AuthorizationRequired", Message: "Please log in."}
	suite.True(errors.HasCode(authErr.asError(), errors.ErrCodeAuthFailed))

	balanceErr := apiError{Code: "InsufficientBalance", Message: "Balance too low."}
	suite.True(errors.HasCode(balanceErr.asError(), errors.ErrCodeVenueAPI))
	suite.False(errors.IsFatal(balanceErr.asError()))
}

func (suite *MessagesTestSuite) TestContractTypeMapping() {
	suite.Equal("CALL", contractTypeFor(types.DirectionBuy))
	suite.Equal("PUT", contractTypeFor(types.DirectionSell))
}

func (suite *MessagesTestSuite) TestBuyRequestWireShape() {
	req := buyRequest{
		Buy:   1,
		Price: 12.5,
		Parameters: buyParameters{
			Amount:       12.5,
			Basis:        "stake",
			ContractType: "CALL",
			Currency:     "USD",
			Duration:     5,
			DurationUnit: "t",
			Symbol:       "R_50",
		},
		Passthrough: passthrough{RequestID: "6a1a2a77-52cb-4be1-a9c7-07cf54a1c0fd"},
		ReqID:       7,
	}

	data, err := json.Marshal(req)
	suite.Require().NoError(err)

	var decoded map[string]interface{}
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.EqualValues(1, decoded["buy"])
	suite.EqualValues(7, decoded["req_id"])

	params, ok := decoded["parameters"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("CALL", params["contract_type"])
	suite.Equal("stake", params["basis"])
	suite.Equal("t", params["duration_unit"])
	suite.Equal("R_50", params["symbol"])

	pt, ok := decoded["passthrough"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("6a1a2a77-52cb-4be1-a9c7-07cf54a1c0fd", pt["request_id"])
}
