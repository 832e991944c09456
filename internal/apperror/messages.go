package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:  "Invalid input provided",
	CodeNotFound:      "Resource not found",
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",
	CodeCancelled:     "Operation cancelled",

	CodeConfigurationError: "Configuration error",
	CodeConfigMissing:      "Required configuration value is missing",

	CodeNetworkError:      "Network error",
	CodeServiceTimeout:    "Request timed out",
	CodeRateLimitExceeded: "Rate limit exceeded",
	CodeCircuitOpen:       "Circuit breaker is open",

	CodeStreamConnectFailed: "Failed to open event stream",
	CodeStreamClosed:        "Event stream closed",
	CodeMalformedEvent:      "Malformed block event",
	CodePollFailed:          "Status poll failed",

	CodeIndexerRequestFailed: "Indexer request failed",
	CodeInvalidAddress:       "Invalid address",
	CodeInvalidHash:          "Invalid hash",
	CodeInvalidPage:          "Invalid page request",

	CodePrefsError: "Preference store error",
}
