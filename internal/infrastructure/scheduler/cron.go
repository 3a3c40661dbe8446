package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"TragedyWatch/internal/ports"
)

// DefaultExpression polls every 300 seconds.
const DefaultExpression = "@every 5m"

// CronSchedule computes poll ticks from a standard five-field cron expression
// or a descriptor such as "@every 5m" / "@hourly".
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
	location *time.Location
}

var _ ports.Schedule = (*CronSchedule)(nil)

// ErrNeverFires is returned for expressions that match no calendar date.
var ErrNeverFires = errors.New("schedule never fires")

// NewCronSchedule parses expr; an empty expression falls back to DefaultExpression.
// A nil location means UTC.
func NewCronSchedule(expr string, location *time.Location) (*CronSchedule, error) {
	if expr == "" {
		expr = DefaultExpression
	}
	if location == nil {
		location = time.UTC
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	if schedule.Next(time.Now().In(location)).IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrNeverFires, expr)
	}

	return &CronSchedule{expr: expr, schedule: schedule, location: location}, nil
}

// Next returns the first tick strictly after t, or the zero time when the
// expression has no further activation.
func (c *CronSchedule) Next(t time.Time) time.Time {
	return c.schedule.Next(t.In(c.location))
}

// String returns the source expression.
func (c *CronSchedule) String() string {
	return c.expr
}
