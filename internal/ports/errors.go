package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price API Errors
	ErrTransport            = errors.New("transport failure calling price API")
	ErrBadResponse          = errors.New("unexpected response shape from price API")
	ErrRateLimited          = errors.New("price API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("price API rejected the credential")

	// ErrHistoryUnavailable means the bulk-history capability is not configured.
	// It marks an absent optional feature, not a failed call.
	ErrHistoryUnavailable = errors.New("bulk history fetch is not available")

	// ErrSourceUnavailable means a prior-series source (remote copy, local file)
	// could not be read. Always recoverable; the loader falls through.
	ErrSourceUnavailable = errors.New("history source unavailable")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
