package attributes

import (
	"crypto/sha256"

	"go.opentelemetry.io/otel/trace"
)

// SessionTraceID derives a deterministic trace id from a session id, so
// every span exported for one session lands in one trace regardless of
// which process reconstructs it. Session ids that already are valid
// 32-char hex trace ids are used directly; anything else is reduced with
// SHA-256 to a valid id.
func SessionTraceID(sessionID string) trace.TraceID {
	if len(sessionID) == 32 {
		if tid, err := trace.TraceIDFromHex(sessionID); err == nil {
			return tid
		}
	}

	sum := sha256.Sum256([]byte("coroviz:" + sessionID))
	var tid trace.TraceID
	copy(tid[:], sum[:16])
	return tid
}

// SessionRootSpanID derives the synthetic parent span id under which a
// session's root coroutines are grouped.
func SessionRootSpanID(sessionID string) trace.SpanID {
	sum := sha256.Sum256([]byte("coroviz:root:" + sessionID))
	var sid trace.SpanID
	copy(sid[:], sum[:8])
	return sid
}
