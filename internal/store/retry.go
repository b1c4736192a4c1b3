package store

import (
	"log/slog"
	"strings"
	"time"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// isConflict reports whether err is a SQLite concurrency error (SQLITE_BUSY
// or "database is locked") that warrants a retry.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// withRetry runs op up to retryAttempts times, backing off exponentially
// (100ms, 200ms, 400ms) while op keeps failing with a SQLite concurrency
// error. Other errors are returned immediately.
func withRetry(name string, op func() error) error {
	var err error
	for i := 0; i < retryAttempts; i++ {
		err = op()
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return err
		}
		if i < retryAttempts-1 {
			delay := retryBaseDelay * time.Duration(1<<i)
			slog.Debug("sqlite busy, retrying", "op", name, "attempt", i+1, "delay", delay)
			time.Sleep(delay)
		}
	}
	return err
}
