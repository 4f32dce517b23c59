package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOpenRequest   ErrorCode = 102
	ErrCodeInvalidPendingOrder  ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidTakeProfit    ErrorCode = 105
	ErrCodeInvalidVolume        ErrorCode = 106
	ErrCodeNonImprovingStop     ErrorCode = 107
	ErrCodeMissingParameter     ErrorCode = 108
	ErrCodeInvalidVersion       ErrorCode = 109

	// Cache/snapshot errors (200-299)
	ErrCodeQuoteUnavailable ErrorCode = 200
	ErrCodeSnapshotFailed   ErrorCode = 201
	ErrCodeCacheKeyUnknown  ErrorCode = 202

	// Strategy/configuration errors (400-499)
	ErrCodeUnknownStrategy     ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeVersionMismatch     ErrorCode = 402

	// Venue errors (500-599)
	ErrCodeVenueUnreachable ErrorCode = 500
	ErrCodeVenueRejected    ErrorCode = 501
	ErrCodeTicketNotFound   ErrorCode = 502
	ErrCodeOrderFailed      ErrorCode = 503
	ErrCodeCancelFailed     ErrorCode = 504

	// OCO errors (600-699)
	ErrCodePairNotFound     ErrorCode = 600
	ErrCodePairNotActive    ErrorCode = 601
	ErrCodePairRegistration ErrorCode = 602

	// Scheduler errors (700-799)
	ErrCodeSchedulerStopped ErrorCode = 700
	ErrCodeShutdownTimeout  ErrorCode = 701
)
