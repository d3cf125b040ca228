package main

import (
	"errors"
	"fmt"
	"time"
)

// Resolver picks the content index that is eligible on a given civil date.
type Resolver interface {
	Resolve(today time.Time, progress ProgressRecord) (int, error)
	// DailyLimit reports whether a chat may reveal at most once per day.
	DailyLimit() bool
	// RecordsMiss reports whether a failed resolution still counts as today's open.
	RecordsMiss(err error) bool
	// Advances reports whether a reveal moves the chat's unlocked index forward.
	Advances() bool
}

func newResolver(cfg *Config, n int) (Resolver, error) {
	if n <= 0 {
		return nil, errors.New("resolver needs at least one day of content")
	}
	switch cfg.Policy {
	case PolicyCyclic:
		return &CyclicResolver{Start: cfg.start, N: n}, nil
	case PolicyWindow:
		return &WindowResolver{Start: cfg.start, End: cfg.end, N: n, MarkOnMiss: cfg.WindowMarkOnMiss}, nil
	case PolicySequential:
		return &SequentialResolver{N: n}, nil
	}
	return nil, fmt.Errorf("unknown policy %q", cfg.Policy)
}

// CyclicResolver walks the content in a loop, one day per calendar day.
type CyclicResolver struct {
	Start time.Time
	N     int
}

func (r *CyclicResolver) Resolve(today time.Time, _ ProgressRecord) (int, error) {
	d := daysBetween(r.Start, today) % r.N
	if d < 0 {
		d += r.N
	}
	return d, nil
}

func (r *CyclicResolver) DailyLimit() bool { return false }
func (r *CyclicResolver) RecordsMiss(error) bool { return false }
func (r *CyclicResolver) Advances() bool { return false }

// WindowResolver maps the calendar window [Start, End] onto the content.
// A zero End means the window closes after the last day of content.
type WindowResolver struct {
	Start      time.Time
	End        time.Time
	N          int
	MarkOnMiss bool
}

func (r *WindowResolver) lastDay() time.Time {
	if r.End.IsZero() {
		return r.Start.AddDate(0, 0, r.N-1)
	}
	return r.End
}

func (r *WindowResolver) Resolve(today time.Time, _ ProgressRecord) (int, error) {
	if today.Before(r.Start) {
		return 0, ErrBeforeStart
	}
	idx := daysBetween(r.Start, today)
	if today.After(r.lastDay()) || idx >= r.N {
		return 0, ErrAfterEnd
	}
	return idx, nil
}

func (r *WindowResolver) DailyLimit() bool { return true }

func (r *WindowResolver) RecordsMiss(err error) bool {
	return r.MarkOnMiss && (errors.Is(err, ErrBeforeStart) || errors.Is(err, ErrAfterEnd))
}

func (r *WindowResolver) Advances() bool { return false }

// SequentialResolver ignores the calendar and hands out days in order.
type SequentialResolver struct {
	N int
}

func (r *SequentialResolver) Resolve(_ time.Time, progress ProgressRecord) (int, error) {
	if progress.UnlockedIndex >= r.N {
		return 0, ErrExhaustedContent
	}
	if progress.UnlockedIndex < 0 {
		return 0, nil
	}
	return progress.UnlockedIndex, nil
}

func (r *SequentialResolver) DailyLimit() bool { return true }
func (r *SequentialResolver) RecordsMiss(error) bool { return false }
func (r *SequentialResolver) Advances() bool { return true }
