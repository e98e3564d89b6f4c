package scan

import (
	"sort"
	"sync"

	"alsrescue/internal/classify"
	"alsrescue/internal/organize"
)

// ProgressState is a consistent snapshot of scan progress. Counters only ever
// increase; readers never observe a partially applied increment.
type ProgressState struct {
	FilesExamined    int64
	MatchesByKind    map[classify.Kind]int64
	ErrorsByCategory map[ErrorCategory]int64
	CopiesSucceeded  int64
	CopiesFailed     int64
}

// TotalMatches sums matches across kinds.
func (p ProgressState) TotalMatches() int64 {
	var total int64
	for _, n := range p.MatchesByKind {
		total += n
	}
	return total
}

// TotalErrors sums recoverable errors across categories.
func (p ProgressState) TotalErrors() int64 {
	var total int64
	for _, n := range p.ErrorsByCategory {
		total += n
	}
	return total
}

// Aggregator merges classification results, copy outcomes, and error events
// arriving concurrently from all workers. A single mutex guards every merge
// so no update is lost and final counts exactly equal the sum of per-worker
// contributions.
type Aggregator struct {
	mu       sync.Mutex
	state    ProgressState
	matches  []classify.Result
	outcomes []organize.Outcome
	events   []ErrorEvent
}

// NewAggregator constructs an empty aggregator for one scan run.
func NewAggregator() *Aggregator {
	return &Aggregator{
		state: ProgressState{
			MatchesByKind:    make(map[classify.Kind]int64),
			ErrorsByCategory: make(map[ErrorCategory]int64),
		},
	}
}

// RecordExamined counts one candidate considered by a worker.
func (a *Aggregator) RecordExamined() {
	a.mu.Lock()
	a.state.FilesExamined++
	a.mu.Unlock()
}

// RecordMatch stores a non-none classification result.
func (a *Aggregator) RecordMatch(result classify.Result) {
	a.mu.Lock()
	a.state.MatchesByKind[result.Kind]++
	a.matches = append(a.matches, result)
	a.mu.Unlock()
}

// RecordError stores a recoverable error event.
func (a *Aggregator) RecordError(event ErrorEvent) {
	a.mu.Lock()
	a.state.ErrorsByCategory[event.Category]++
	a.events = append(a.events, event)
	a.mu.Unlock()
}

// RecordOutcome stores a terminal copy outcome.
func (a *Aggregator) RecordOutcome(outcome organize.Outcome) {
	a.mu.Lock()
	if outcome.Succeeded {
		a.state.CopiesSucceeded++
	} else {
		a.state.CopiesFailed++
	}
	a.outcomes = append(a.outcomes, outcome)
	a.mu.Unlock()
}

// Snapshot returns a copy of the current progress state. Safe to call while
// workers are still recording.
func (a *Aggregator) Snapshot() ProgressState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.clone()
}

// Matches returns the accumulated match list sorted by path, so the final
// view is stable for a given tree regardless of worker interleaving.
func (a *Aggregator) Matches() []classify.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]classify.Result, len(a.matches))
	copy(out, a.matches)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Outcomes returns the accumulated copy outcomes sorted by source path.
func (a *Aggregator) Outcomes() []organize.Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]organize.Outcome, len(a.outcomes))
	copy(out, a.outcomes)
	sort.Slice(out, func(i, j int) bool { return out[i].Plan.SourcePath < out[j].Plan.SourcePath })
	return out
}

// Events returns the accumulated error events in arrival order.
func (a *Aggregator) Events() []ErrorEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ErrorEvent, len(a.events))
	copy(out, a.events)
	return out
}

func (p ProgressState) clone() ProgressState {
	cp := p
	cp.MatchesByKind = make(map[classify.Kind]int64, len(p.MatchesByKind))
	for k, v := range p.MatchesByKind {
		cp.MatchesByKind[k] = v
	}
	cp.ErrorsByCategory = make(map[ErrorCategory]int64, len(p.ErrorsByCategory))
	for k, v := range p.ErrorsByCategory {
		cp.ErrorsByCategory[k] = v
	}
	return cp
}
