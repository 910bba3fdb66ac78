package calcwkr

import (
	"time"

	"exusiai.dev/bgstats/internal/pkg/observability"
)

func observeSweepDuration(entity string, f func() error) error {
	start := time.Now()
	defer func() {
		dur := time.Since(start)
		observability.WorkerSweepDuration.WithLabelValues(entity).Set(dur.Seconds())
	}()
	return f()
}
