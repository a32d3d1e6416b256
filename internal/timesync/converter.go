package timesync

import "time"

// Converter maps one session's monotonic timestamps to wall-clock time.
type Converter struct {
	base     time.Time
	origin   uint64
	anchored bool
}

// NewConverter creates an unanchored converter. The anchor is taken from the
// first timestamp passed to ToWallClock (or set explicitly with AnchorAt).
func NewConverter() *Converter {
	return &Converter{}
}

// AnchorAt pins a monotonic timestamp to a known wall-clock instant.
func (c *Converter) AnchorAt(monotonicNanos uint64, wallClock time.Time) {
	c.base = wallClock
	c.origin = monotonicNanos
	c.anchored = true
}

// ToWallClock converts a monotonic timestamp to wall-clock time. The first
// call anchors the converter at the current wall clock.
func (c *Converter) ToWallClock(monotonicNanos uint64) time.Time {
	if !c.anchored {
		c.AnchorAt(monotonicNanos, time.Now())
	}
	//nolint:gosec // uint64 to int64 conversion for time.Duration is safe for reasonable timestamps
	if monotonicNanos >= c.origin {
		return c.base.Add(time.Duration(monotonicNanos - c.origin))
	}
	return c.base.Add(-time.Duration(c.origin - monotonicNanos))
}

// Anchored reports whether the converter has pinned its origin yet.
func (c *Converter) Anchored() bool {
	return c.anchored
}
