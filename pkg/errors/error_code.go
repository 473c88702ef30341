package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation and configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidType          ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidTimeframe     ErrorCode = 105
	ErrCodeInvalidClockTime     ErrorCode = 106
	ErrCodeInvalidTradeRequest  ErrorCode = 107
	ErrCodeConfigVersion        ErrorCode = 108

	// Market data errors (200-299)
	ErrCodeMalformedTick      ErrorCode = 200
	ErrCodeMalformedCandle    ErrorCode = 201
	ErrCodeInsufficientData   ErrorCode = 202
	ErrCodeHistoryFetchFailed ErrorCode = 203
	ErrCodeUnknownSymbol      ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeSignalEvaluation ErrorCode = 400
	ErrCodeInvalidWeights   ErrorCode = 401

	// Trading errors (500-599)
	ErrCodeOrderRejected     ErrorCode = 500
	ErrCodeOrderTimeout      ErrorCode = 501
	ErrCodeSettlementTimeout ErrorCode = 502
	ErrCodeDuplicateRequest  ErrorCode = 503
	ErrCodeTradeNotFound     ErrorCode = 504
	ErrCodeNotRunning        ErrorCode = 505
	ErrCodeAlreadyRunning    ErrorCode = 506

	// Venue and connection errors (700-799)
	ErrCodeConnectionFailed ErrorCode = 700
	ErrCodeConnectionClosed ErrorCode = 701
	ErrCodeAuthFailed       ErrorCode = 702
	ErrCodeSubscribeFailed  ErrorCode = 703
	ErrCodeWriteFailed      ErrorCode = 704
	ErrCodeReadFailed       ErrorCode = 705
	ErrCodeVenueAPI         ErrorCode = 706
	ErrCodeInvalidVenue     ErrorCode = 707
	ErrCodeNotConnected     ErrorCode = 708
)

// transientCodes are connection-level failures that the venue layer retries
// with backoff. Auth failures are deliberately excluded.
var transientCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeConnectionClosed: true,
	ErrCodeWriteFailed:      true,
	ErrCodeReadFailed:       true,
	ErrCodeNotConnected:     true,
}

// fatalCodes stop the agent: bad credentials and unusable configuration.
var fatalCodes = map[ErrorCode]bool{
	ErrCodeAuthFailed:           true,
	ErrCodeInvalidConfiguration: true,
	ErrCodeConfigVersion:        true,
}
