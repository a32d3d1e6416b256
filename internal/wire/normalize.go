package wire

// legacyKinds maps every legacy UpperCamel type name to its canonical kind.
// The table is closed: anything not listed here is not a known legacy name.
var legacyKinds = map[string]string{
	"CoroutineCreated":         KindCreated,
	"CoroutineStarted":         KindStarted,
	"CoroutineSuspended":       KindSuspended,
	"CoroutineResumed":         KindResumed,
	"CoroutineBodyCompleted":   KindBodyCompleted,
	"CoroutineCompleted":       KindCompleted,
	"CoroutineCancelled":       KindCancelled,
	"CoroutineFailed":          KindFailed,
	"ThreadAssigned":           KindThreadAssigned,
	"DispatcherSelected":       KindDispatcherSelected,
	"JobStateChanged":          KindJobStateChanged,
	"JobCancellationRequested": KindJobCancellationRequested,
	"JobJoinRequested":         KindJobJoinRequested,
	"JobJoinCompleted":         KindJobJoinCompleted,
	"WaitingForChildren":       KindWaitingForChildren,
	"DeferredCompleted":        KindDeferredCompleted,
	"DeferredAwaited":          KindDeferredAwaited,
}

// Normalize resolves the record's discriminator into the canonical Kind
// field and clears the legacy one. Records already carrying a kind pass
// through untouched. Unknown legacy names are carried over verbatim so that
// consumers see (and explicitly ignore) them. Normalize never fails and
// never drops a record.
func Normalize(rec *Record) *Record {
	if rec == nil {
		return nil
	}
	if rec.Kind != "" {
		return rec
	}
	if canonical, ok := legacyKinds[rec.LegacyType]; ok {
		rec.Kind = canonical
	} else {
		rec.Kind = rec.LegacyType
	}
	rec.LegacyType = ""
	return rec
}
