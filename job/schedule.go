package job

import (
	"context"
	"fmt"
	"time"
)

// DefaultDailyTime is when the camera upload is expected to be complete
const DefaultDailyTime = "20:30"

// ParseDailyTime parses a HH:MM time of day
func ParseDailyTime(s string) (hour, minute int, err error) {

	t, err := time.Parse("15:04", s)

	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", s, err)
	}

	return t.Hour(), t.Minute(), nil
}

// NextRun returns the first time after now at the given time of day in now's
// location
func NextRun(now time.Time, hour, minute int) time.Time {

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0,
		now.Location())

	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0,
			now.Location())
	}

	return next
}

// Serve runs a cycle every day at the HH:MM time of day until the context is
// done.  A failed run is logged and the next day is waited for, retrying is
// left to the next cycle
func (r *Runner) Serve(ctx context.Context, at string) error {

	hour, minute, err := ParseDailyTime(at)

	if err != nil {
		return err
	}

	after := r.after

	if after == nil {
		after = time.After
	}

	log := r.logger()

	for {
		now := r.now()
		next := NextRun(now, hour, minute)

		log.Info("next run scheduled", "at", next)

		select {
		case <-ctx.Done():
			return nil
		case <-after(next.Sub(now)):
		}

		// errors are logged by Run
		_, _ = r.Run(ctx)
	}
}
