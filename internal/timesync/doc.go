// Package timesync anchors the monotonic nanosecond timestamps carried by
// session events to wall-clock time.
//
// Instrumented runtimes stamp events with a monotonic clock whose origin is
// arbitrary. The converter pins the first observed timestamp to the local
// wall clock and derives every later timestamp from that anchor, which is
// what the span exporter needs for explicit start/end times.
package timesync
