package conversation

import (
	"sync"

	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

// Tracker maps a turn's log position to the lifecycle outcome of its
// generated query. Keys are fixed at dispatch time; an absent key means the
// turn carried no query, which is distinct from pending.
//
// Clear advances a generation counter so that query executions still in
// flight when the conversation is reset cannot write stale outcomes into the
// fresh state.
type Tracker struct {
	mu         sync.RWMutex
	outcomes   map[int]model.QueryOutcome
	generation uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{outcomes: make(map[int]model.QueryOutcome)}
}

// Generation returns the current reset generation. Asynchronous writers
// capture it at dispatch and pass it back with their record calls.
func (t *Tracker) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// MarkPending records a pending outcome at index. The analyst turn and its
// query are 1:1, so overwriting an existing entry is defined behavior
// rather than an error.
func (t *Tracker) MarkPending(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes[index] = model.QueryOutcome{State: model.OutcomePending}
}

// RecordSuccess transitions index to succeeded. The write is dropped and
// false returned when generation no longer matches, meaning the
// conversation was reset while the query was executing.
func (t *Tracker) RecordSuccess(generation uint64, index int, columns []string, rows []model.Row) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		return false
	}
	t.outcomes[index] = model.QueryOutcome{
		State:    model.OutcomeSucceeded,
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}
	return true
}

// RecordFailure transitions index to failed, subject to the same
// generation guard as RecordSuccess.
func (t *Tracker) RecordFailure(generation uint64, index int, message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation {
		return false
	}
	t.outcomes[index] = model.QueryOutcome{State: model.OutcomeFailed, Message: message}
	return true
}

// Get returns the outcome at index, or false when the turn has no query.
func (t *Tracker) Get(index int) (model.QueryOutcome, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	outcome, ok := t.outcomes[index]
	return outcome, ok
}

// Clear empties the mapping and advances the generation.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = make(map[int]model.QueryOutcome)
	t.generation++
}
