package websocket

import (
	"os"
	"strconv"
	"sync"
	"time"

	"filedeck/logging"
)

const (
	timeoutName           = "FILEDECK_CONNECTION_TIMEOUT"
	defaultTimeoutMinutes = 10
)

var (
	timeoutOnce sync.Once
	idleTimeout time.Duration
)

// connectionTimeout returns the idle cutoff, configurable in minutes via
// $FILEDECK_CONNECTION_TIMEOUT.
func connectionTimeout() time.Duration {
	timeoutOnce.Do(func() {
		idleTimeout = time.Duration(envTimeoutMinutes()) * time.Minute
	})
	return idleTimeout
}

func envTimeoutMinutes() int {
	raw := os.Getenv(timeoutName)
	if raw == "" {
		return defaultTimeoutMinutes
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		logging.S().Warnw("invalid connection timeout, using default",
			"value", raw, "default_minutes", defaultTimeoutMinutes)
		return defaultTimeoutMinutes
	}
	return minutes
}
