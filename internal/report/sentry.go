package report

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initialises the global Sentry client. An empty DSN leaves
// reporting disabled, which is what tests and local runs use.
func SetupSentry(dsn, env, release string) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	if dsn != "" {
		sentry.CaptureMessage("Route generator started")
	}
	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
