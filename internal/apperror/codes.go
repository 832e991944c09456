package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
	CodeCancelled     Code = "CANCELLED"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeConfigMissing      Code = "CONFIG_MISSING"
)

// Transport error codes
const (
	CodeNetworkError      Code = "NETWORK_ERROR"
	CodeServiceTimeout    Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeCircuitOpen       Code = "CIRCUIT_OPEN"
)

// Sync engine error codes
const (
	CodeStreamConnectFailed Code = "STREAM_CONNECT_FAILED"
	CodeStreamClosed        Code = "STREAM_CLOSED"
	CodeMalformedEvent      Code = "MALFORMED_EVENT"
	CodePollFailed          Code = "POLL_FAILED"
)

// Indexer API error codes
const (
	CodeIndexerRequestFailed Code = "INDEXER_REQUEST_FAILED"
	CodeInvalidAddress       Code = "INVALID_ADDRESS"
	CodeInvalidHash          Code = "INVALID_HASH"
	CodeInvalidPage          Code = "INVALID_PAGE"
)

// Client-local storage
const (
	CodePrefsError Code = "PREFS_ERROR"
)
