// Package timeline replays one coroutine's event subsequence into a derived
// timing summary with per-suspension durations.
package timeline

import "coroviz/internal/wire"

// Suspension is one suspended/resumed pair from the coroutine's history.
// Duration is omitted, not guessed, when the stream ends while the
// coroutine is still suspended.
type Suspension struct {
	Function    string  `json:"function,omitempty"`
	Location    string  `json:"location,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	SuspendedAt uint64  `json:"suspendedAt"`
	ResumedAt   *uint64 `json:"resumedAt,omitempty"`
	Duration    *uint64 `json:"durationNanos,omitempty"`
}

// Timeline is the derived timing view of a single coroutine.
type Timeline struct {
	CoroutineID      string       `json:"coroutineId"`
	TotalDuration    uint64       `json:"totalDurationNanos"`
	ActiveTime       uint64       `json:"activeTimeNanos"`
	SuspendedTime    uint64       `json:"suspendedTimeNanos"`
	ActivePercent    float64      `json:"activePercent"`
	SuspendedPercent float64      `json:"suspendedPercent"`
	Suspensions      []Suspension `json:"suspensions,omitempty"`
	EventCount       int          `json:"eventCount"`
}

// Reconstruct replays the ordered event subsequence of one coroutine into a
// Timeline. Events naming other coroutines are filtered out, so the full
// session log can be passed as-is. Each resumed event is paired with the
// immediately preceding suspended event; everything else contributes only to
// the running active/suspended totals.
func Reconstruct(coroutineID string, events []*wire.Record) *Timeline {
	tl := &Timeline{CoroutineID: coroutineID}

	var (
		firstTs, lastTs uint64
		haveFirst       bool
		markTs          uint64
		running         bool
		suspended       bool
		open            *Suspension
	)

	account := func(ts uint64) {
		if ts > markTs {
			d := ts - markTs
			if running {
				tl.ActiveTime += d
			} else if suspended {
				tl.SuspendedTime += d
			}
		}
		markTs = ts
	}

	for _, rec := range events {
		if rec == nil || rec.CoroutineID != coroutineID {
			continue
		}
		tl.EventCount++
		if !haveFirst {
			firstTs = rec.TsNanos
			markTs = rec.TsNanos
			haveFirst = true
		}
		lastTs = rec.TsNanos

		switch rec.Kind {
		case wire.KindStarted:
			account(rec.TsNanos)
			running, suspended = true, false

		case wire.KindSuspended:
			account(rec.TsNanos)
			running, suspended = false, true
			tl.Suspensions = append(tl.Suspensions, Suspension{
				Function:    rec.Function,
				Location:    rec.Location,
				Reason:      rec.Reason,
				SuspendedAt: rec.TsNanos,
			})
			open = &tl.Suspensions[len(tl.Suspensions)-1]

		case wire.KindResumed:
			account(rec.TsNanos)
			running, suspended = true, false
			// Adjacency match against the preceding suspended event.
			if open != nil {
				resumedAt := rec.TsNanos
				open.ResumedAt = &resumedAt
				if resumedAt >= open.SuspendedAt {
					d := resumedAt - open.SuspendedAt
					open.Duration = &d
				}
				open = nil
			}

		case wire.KindCompleted, wire.KindCancelled, wire.KindFailed:
			account(rec.TsNanos)
			running, suspended = false, false
		}
	}

	if haveFirst && lastTs > firstTs {
		tl.TotalDuration = lastTs - firstTs
	}
	if tl.TotalDuration > 0 {
		// Percentages are defined as 0, not NaN, for empty timelines.
		tl.ActivePercent = float64(tl.ActiveTime) / float64(tl.TotalDuration) * 100
		tl.SuspendedPercent = float64(tl.SuspendedTime) / float64(tl.TotalDuration) * 100
	}
	return tl
}
