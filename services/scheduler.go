package services

import (
	"strings"
	"time"
)

// Gate decides once per invocation whether today is a reporting day.
type Gate struct {
	days map[time.Weekday]bool
	loc  *time.Location
}

// NewGate creates a Gate that opens on the given weekdays, evaluated in loc.
// A nil loc means time.Local.
func NewGate(days []time.Weekday, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	g := &Gate{days: make(map[time.Weekday]bool, len(days)), loc: loc}
	for _, d := range days {
		g.days[d] = true
	}
	return g
}

// ShouldRun reports whether now falls on a scheduled weekday.
func (g *Gate) ShouldRun(now time.Time) bool {
	return g.days[g.Weekday(now)]
}

// Weekday returns the day of the week of now in the gate's location.
func (g *Gate) Weekday(now time.Time) time.Weekday {
	return now.In(g.loc).Weekday()
}

// Days returns the scheduled weekdays as a readable list.
func (g *Gate) Days() string {
	names := make([]string, 0, len(g.days))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if g.days[d] {
			names = append(names, d.String())
		}
	}
	return strings.Join(names, ", ")
}
