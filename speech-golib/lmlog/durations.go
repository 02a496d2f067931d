package lmlog

import (
	"time"

	"go.uber.org/zap"
)

type duration struct {
	name     string
	duration time.Duration
}

// Durations tracks how long each named stage of a run took
type Durations []duration

// Record records a duration
func (t *Durations) Record(name string, d time.Duration) {
	*t = append(*t, duration{name, d})
}

// Since records the time elapsed since start
func (t *Durations) Since(name string, start time.Time) {
	t.Record(name, time.Since(start))
}

// Get returns the recorded duration for name
func (t Durations) Get(name string) (time.Duration, bool) {
	for _, entry := range t {
		if entry.name == name {
			return entry.duration, true
		}
	}
	return 0, false
}

// Total sums all recorded durations
func (t Durations) Total() time.Duration {
	var total time.Duration
	for _, entry := range t {
		total += entry.duration
	}
	return total
}

// Flush writes one log line with every recorded duration and resets the tracker
func (t *Durations) Flush(l *zap.Logger) {
	fields := make([]zap.Field, 0, len(*t)+1)
	for _, entry := range *t {
		fields = append(fields, zap.Duration(entry.name, entry.duration))
	}
	fields = append(fields, zap.Duration("total", t.Total()))
	OrNop(l).Info("durations", fields...)
	*t = nil
}
