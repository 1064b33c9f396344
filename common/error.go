package common

import "errors"

// ErrNotImplemented .
var (
	ErrNotImplemented = errors.New("not implemented")
	// ErrSourceUnavailable means the log source cannot be reached at all,
	// e.g. the helper script is missing or not executable
	ErrSourceUnavailable = errors.New("log source unavailable")
	// ErrSourceTimeout means the source did not answer in time
	ErrSourceTimeout = errors.New("log source timeout")
	// ErrSourceNonZeroExit means the source command exited with a failure status
	ErrSourceNonZeroExit = errors.New("log source exited with non-zero status")
	// ErrClearFailed is returned to the caller when the log could not be cleared
	ErrClearFailed = errors.New("failed to clear log")
	// ErrInvalidSourceType .
	ErrInvalidSourceType = errors.New("unknown source type")
	// ErrEmptyCommand .
	ErrEmptyCommand = errors.New("empty command")
	// ErrSessionNotFound .
	ErrSessionNotFound = errors.New("session not found")
	// ErrWatcherStopped .
	ErrWatcherStopped = errors.New("log watcher stopped")
)

// ErrorKind maps an error to a short label for logs and metrics
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrClearFailed):
		return "clear_failed"
	case errors.Is(err, ErrSourceTimeout):
		return "timeout"
	case errors.Is(err, ErrSourceNonZeroExit):
		return "non_zero_exit"
	case errors.Is(err, ErrSourceUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
