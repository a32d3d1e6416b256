package export

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coroviz/internal/attributes"
	"coroviz/internal/hierarchy"
	"coroviz/internal/session"
	"coroviz/internal/wire"
)

// spanInfo holds span and context information for one live coroutine.
type spanInfo struct {
	span    trace.Span
	spanCtx trace.SpanContext
}

// SpanBridge formats applied events as OpenTelemetry spans.
type SpanBridge struct {
	tracer    trace.Tracer
	evaluator *attributes.Evaluator

	mu    sync.Mutex
	spans map[string]map[string]*spanInfo // session id -> coroutine id -> span
}

// NewSpanBridge creates a new SpanBridge. evaluator may be nil when no
// custom attributes are configured.
func NewSpanBridge(tracer trace.Tracer, evaluator *attributes.Evaluator) *SpanBridge {
	return &SpanBridge{
		tracer:    tracer,
		evaluator: evaluator,
		spans:     make(map[string]map[string]*spanInfo),
	}
}

// HandleApplied maps one applied record onto the span lifecycle of its
// coroutine: created opens a span, suspended/resumed become span events,
// a terminal node state closes the span.
func (b *SpanBridge) HandleApplied(rec *wire.Record, sess *session.Session) error {
	node := sess.Snapshot()[rec.CoroutineID]
	if node == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sessionSpans := b.spans[rec.SessionID]
	if sessionSpans == nil {
		sessionSpans = make(map[string]*spanInfo)
		b.spans[rec.SessionID] = sessionSpans
	}

	info := sessionSpans[rec.CoroutineID]
	if info == nil && !node.State.Terminal() {
		info = b.startSpan(rec, node, sess, sessionSpans)
	}
	if info == nil {
		return nil
	}

	ts := sess.Clock().ToWallClock(rec.TsNanos)

	switch rec.Kind {
	case wire.KindSuspended:
		info.span.AddEvent("suspended", trace.WithTimestamp(ts),
			trace.WithAttributes(
				attribute.String("suspend.function", rec.Function),
				attribute.String("suspend.reason", rec.Reason),
			))
	case wire.KindResumed:
		info.span.AddEvent("resumed", trace.WithTimestamp(ts))
	case wire.KindJobCancellationRequested:
		info.span.AddEvent("cancellation-requested", trace.WithTimestamp(ts))
	}

	if node.State.Terminal() {
		b.endSpan(info, node, sess)
		delete(sessionSpans, rec.CoroutineID)
	}
	return nil
}

// startSpan opens the coroutine's span under its parent coroutine's span
// context, or under the session's synthetic root context for top-level
// coroutines.
func (b *SpanBridge) startSpan(rec *wire.Record, node *hierarchy.CoroutineNode, sess *session.Session, sessionSpans map[string]*spanInfo) *spanInfo {
	var parentCtx trace.SpanContext
	if node.ParentID != "" {
		if parent := sessionSpans[node.ParentID]; parent != nil {
			parentCtx = parent.spanCtx
		}
	}
	if !parentCtx.IsValid() {
		parentCtx = trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    attributes.SessionTraceID(rec.SessionID),
			SpanID:     attributes.SessionRootSpanID(rec.SessionID),
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
	}

	ctx := trace.ContextWithSpanContext(context.Background(), parentCtx)

	name := node.Label
	if name == "" {
		name = "coroutine"
	}

	startTime := sess.Clock().ToWallClock(node.CreatedAt)
	_, span := b.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(startTime),
	)

	info := &spanInfo{span: span, spanCtx: span.SpanContext()}
	sessionSpans[rec.CoroutineID] = info
	return info
}

func (b *SpanBridge) endSpan(info *spanInfo, node *hierarchy.CoroutineNode, sess *session.Session) {
	//nolint:gosec // uint64 to int64 conversion for durations is safe
	attrs := []attribute.KeyValue{
		attribute.String("coroutine.id", node.ID),
		attribute.String("coroutine.job_id", node.JobID),
		attribute.String("coroutine.scope_id", node.ScopeID),
		attribute.String("coroutine.state", string(node.State)),
		attribute.String("coroutine.dispatcher", node.DispatcherName),
		attribute.Int64("coroutine.active_ns", int64(node.ActiveTime)),
		attribute.Int64("coroutine.suspended_ns", int64(node.SuspendedTime)),
		attribute.Int("coroutine.suspensions", len(node.SuspensionPoints)),
		attribute.Int("coroutine.children", len(node.ChildrenIDs)),
	}
	if node.ParentID != "" {
		attrs = append(attrs, attribute.String("coroutine.parent_id", node.ParentID))
	}
	if custom := b.evaluator.Evaluate(node); len(custom) > 0 {
		attrs = append(attrs, custom...)
	}
	info.span.SetAttributes(attrs...)

	switch node.State {
	case hierarchy.StateFailed:
		// Failure propagates cancellation to parent and siblings in the
		// runtime; here it only colors the span.
		info.span.SetStatus(codes.Error, node.FailureMessage)
	case hierarchy.StateCancelled:
		info.span.SetStatus(codes.Error, "cancelled")
	default:
		info.span.SetStatus(codes.Ok, "")
	}

	info.span.End(trace.WithTimestamp(sess.Clock().ToWallClock(node.CompletedAt)))
}

// DropSession releases span bookkeeping for a torn-down session, ending any
// spans still open.
func (b *SpanBridge) DropSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, info := range b.spans[sessionID] {
		info.span.End()
	}
	delete(b.spans, sessionID)
}
