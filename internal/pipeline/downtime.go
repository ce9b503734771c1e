package pipeline

import (
	"fmt"
	"time"
)

// DowntimeWindow is the vendor's daily blackout range in the business
// timezone. The window may wrap past midnight.
type DowntimeWindow struct {
	startMinutes int
	endMinutes   int
	loc          *time.Location
}

func NewDowntimeWindow(start, end, timezone string) (*DowntimeWindow, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", timezone, err)
	}

	startMinutes, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("invalid downtime start: %w", err)
	}
	endMinutes, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("invalid downtime end: %w", err)
	}

	return &DowntimeWindow{startMinutes: startMinutes, endMinutes: endMinutes, loc: loc}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a HH:MM clock time", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (w *DowntimeWindow) Location() *time.Location {
	return w.loc
}

// Contains reports whether t falls inside the blackout window.
func (w *DowntimeWindow) Contains(t time.Time) bool {
	local := t.In(w.loc)
	minutes := local.Hour()*60 + local.Minute()

	if w.startMinutes <= w.endMinutes {
		return minutes >= w.startMinutes && minutes < w.endMinutes
	}
	// Wraps past midnight.
	return minutes >= w.startMinutes || minutes < w.endMinutes
}

// StartOn returns the downtime start on t's calendar day in the business
// timezone.
func (w *DowntimeWindow) StartOn(t time.Time) time.Time {
	local := t.In(w.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		w.startMinutes/60, w.startMinutes%60, 0, 0, w.loc)
}
