package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// DefaultPollInterval is the fixed rate used when no schedule is configured.
const DefaultPollInterval = time.Second

// Schedule computes when the next poll tick is due.
type Schedule interface {
	Next(after time.Time) (time.Time, error)
}

// IntervalSchedule fires at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Next returns after plus the interval.
func (s IntervalSchedule) Next(after time.Time) (time.Time, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return after.Add(interval), nil
}

func (s IntervalSchedule) String() string {
	return "every " + s.Interval.String()
}

// CronSchedule fires on a cron expression.
type CronSchedule struct {
	expr string
}

// NewCronSchedule validates expr and returns its schedule.
func NewCronSchedule(expr string) (*CronSchedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("cron expression is required")
	}
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	return &CronSchedule{expr: expr}, nil
}

// Next returns the first cron tick strictly after after.
func (s *CronSchedule) Next(after time.Time) (time.Time, error) {
	next, err := gronx.NextTickAfter(s.expr, after, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("next tick for %q: %w", s.expr, err)
	}
	return next, nil
}

func (s *CronSchedule) String() string {
	return "cron " + s.expr
}

// NewSchedule picks the cron schedule when cronExpr is set and the fixed
// interval otherwise.
func NewSchedule(interval time.Duration, cronExpr string) (Schedule, error) {
	if strings.TrimSpace(cronExpr) != "" {
		return NewCronSchedule(cronExpr)
	}
	if interval < 0 {
		return nil, fmt.Errorf("poll interval must not be negative")
	}
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return IntervalSchedule{Interval: interval}, nil
}
