// Package output renders engine snapshots as indented text for the CLI.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"coroviz/internal/hierarchy"
	"coroviz/internal/projection"
	"coroviz/internal/timeline"
)

// Formatter writes plain-text views of projections.
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// WriteTree renders a projected forest, one node per line.
func (f *Formatter) WriteTree(forest []*projection.TreeNode) {
	for _, root := range forest {
		f.writeNode(root, 0)
	}
}

func (f *Formatter) writeNode(t *projection.TreeNode, depth int) {
	n := t.Node
	label := n.Label
	if label == "" {
		label = n.ID
	}
	var extra string
	if n.ActiveChildrenCount > 0 {
		extra = fmt.Sprintf(" children=%d", n.ActiveChildrenCount)
	}
	fmt.Fprintf(f.w, "%s%s [%s]%s active=%s suspended=%s\n",
		strings.Repeat("  ", depth), label, n.State, extra,
		time.Duration(n.ActiveTime), time.Duration(n.SuspendedTime)) //nolint:gosec
	for _, c := range t.Children {
		f.writeNode(c, depth+1)
	}
}

// WriteStats renders aggregate counts.
func (f *Formatter) WriteStats(s *projection.Stats) {
	fmt.Fprintf(f.w, "coroutines: %d, max depth: %d\n", s.Total, s.MaxDepth)

	states := make([]string, 0, len(s.ByState))
	for st := range s.ByState {
		states = append(states, string(st))
	}
	sort.Strings(states)
	for _, st := range states {
		fmt.Fprintf(f.w, "  %-22s %d\n", st, s.ByState[hierarchy.State(st)])
	}

	dispatchers := make([]string, 0, len(s.ByDispatcher))
	for d := range s.ByDispatcher {
		dispatchers = append(dispatchers, d)
	}
	sort.Strings(dispatchers)
	for _, d := range dispatchers {
		fmt.Fprintf(f.w, "  dispatcher %-15s %d\n", d, s.ByDispatcher[d])
	}
}

// WriteTimeline renders one coroutine's timing summary.
func (f *Formatter) WriteTimeline(tl *timeline.Timeline) {
	fmt.Fprintf(f.w, "%s: total=%s active=%s (%.1f%%) suspended=%s (%.1f%%)\n",
		tl.CoroutineID,
		time.Duration(tl.TotalDuration), //nolint:gosec
		time.Duration(tl.ActiveTime),    //nolint:gosec
		tl.ActivePercent,
		time.Duration(tl.SuspendedTime), //nolint:gosec
		tl.SuspendedPercent)
	for _, s := range tl.Suspensions {
		if s.Duration != nil {
			fmt.Fprintf(f.w, "  suspended %s at %s (%s)\n", time.Duration(*s.Duration), s.Function, s.Reason) //nolint:gosec
		} else {
			fmt.Fprintf(f.w, "  suspended (still open) at %s (%s)\n", s.Function, s.Reason)
		}
	}
}
