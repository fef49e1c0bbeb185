package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeValidation         ErrorCode = 100
	ErrCodeUnknownParameter   ErrorCode = 101
	ErrCodeTypeMismatch       ErrorCode = 102
	ErrCodeOutOfBounds        ErrorCode = 103
	ErrCodeOutOfEnum          ErrorCode = 104
	ErrCodeInvalidRequest     ErrorCode = 105
	ErrCodeInvalidConfigFile  ErrorCode = 106

	// Schema errors (200-299)
	ErrCodeUnknownStrategy ErrorCode = 200
	ErrCodeEmptySchema     ErrorCode = 201

	// Store errors (300-399)
	ErrCodeNotFound           ErrorCode = 300
	ErrCodeQueryFailed        ErrorCode = 301
	ErrCodeStoreUnavailable   ErrorCode = 302
	ErrCodeImportFailed       ErrorCode = 303
	ErrCodeFormatIncompatible ErrorCode = 304

	// Resolver errors (400-499)
	ErrCodeStrategyMismatch ErrorCode = 400

	// Backtest errors (500-599)
	ErrCodeBacktestConfig    ErrorCode = 500
	ErrCodeBacktestNoData    ErrorCode = 501
	ErrCodeBacktestRun       ErrorCode = 502
	ErrCodeInsufficientFunds ErrorCode = 503

	// Market data errors (600-699)
	ErrCodeDataSourceUnavailable ErrorCode = 600
	ErrCodeDataParseFailed       ErrorCode = 601
	ErrCodeQuoteFetchFailed      ErrorCode = 602

	// Notification errors (700-799)
	ErrCodeNotifyFailed ErrorCode = 700
)
