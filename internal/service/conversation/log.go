package conversation

import (
	"sync"

	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

// Log is the append-only ordered sequence of turns for one conversation.
// Entries are never edited in place; the only way to shrink it is Reset.
type Log struct {
	mu    sync.RWMutex
	turns []model.Turn
}

// NewLog returns an empty conversation log.
func NewLog() *Log {
	return &Log{turns: make([]model.Turn, 0, 16)}
}

// Append adds a turn at the end and returns the index it now occupies.
// The returned index is the correlation key for any tracker entry tied to
// this turn; callers must capture it here rather than recompute it later.
func (l *Log) Append(turn model.Turn) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, turn)
	return len(l.turns) - 1
}

// Len reports the current number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Snapshot returns a copied, read-only view of the log for rendering and
// for collaborator calls. Consumers never mutate it.
func (l *Log) Snapshot() []model.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	copied := make([]model.Turn, len(l.turns))
	copy(copied, l.turns)
	return copied
}

// Reset empties the log. Callers reset the associated tracker in the same
// operation; see Dispatcher.Reset.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = l.turns[:0]
}
