package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling.
var (
	// ErrNoSymbol is returned when no ticker symbol is specified.
	ErrNoSymbol = errors.New("no symbol specified: provide a ticker symbol such as AAPL")

	// ErrInvalidExpirationCount is returned when the number of expirations to
	// crawl is not positive.
	ErrInvalidExpirationCount = errors.New("invalid expiration count: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is negative.
	// Use 0 to disable the timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrEmptyDirectory is returned when the archive, report or log directory
	// is an empty string.
	ErrEmptyDirectory = errors.New("empty directory: archive, report and log directories must be set")

	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidProxyURL is returned when the proxy is not an http, https or
	// socks5 URL with a host.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: use http://, https:// or socks5://host:port")
)
