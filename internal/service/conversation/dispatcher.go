package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

var (
	// ErrEmptyInput rejects blank submissions before any state changes.
	ErrEmptyInput = errors.New("input is empty")
	// ErrBusy rejects a submission while a prior round trip is in flight.
	// The submission is dropped, not queued.
	ErrBusy = errors.New("a submission is already in flight")
)

// Analyst is the collaborator that turns a conversation snapshot into the
// next analyst turn. Calls may run for minutes.
type Analyst interface {
	SubmitConversation(ctx context.Context, turns []model.Turn, semanticModel string) (model.Turn, error)
}

// QueryExecutor is the collaborator that runs a generated statement against
// the warehouse.
type QueryExecutor interface {
	ExecuteQuery(ctx context.Context, statement string) (model.QueryResult, error)
}

// AnalystError is an application-level error payload returned by the analyst
// collaborator: a message plus optional structured detail for display.
type AnalystError struct {
	Message string
	Detail  map[string]any
}

func (e *AnalystError) Error() string {
	return e.Message
}

// OutcomeFunc observes tracker transitions for a dispatcher, keyed by the
// turn index they belong to. Used to push updates to renderers.
type OutcomeFunc func(index int, outcome model.QueryOutcome)

// Dispatcher orchestrates one round trip per user submission: append the
// user turn, await the analyst turn, and run at most the first generated
// query asynchronously against a position captured at dispatch time.
//
// A dispatcher is single-flight: one analyst round trip at a time. Query
// execution does not hold the busy flag, so the user may submit again while
// an earlier query is still running; each execution resolves into its own
// captured index.
type Dispatcher struct {
	log           *Log
	tracker       *Tracker
	analyst       Analyst
	executor      QueryExecutor
	semanticModel string
	onOutcome     OutcomeFunc

	mu   sync.Mutex
	busy bool
}

// NewDispatcher wires a dispatcher to its owned state and collaborators.
// onOutcome may be nil.
func NewDispatcher(log *Log, tracker *Tracker, analyst Analyst, executor QueryExecutor, semanticModel string, onOutcome OutcomeFunc) *Dispatcher {
	return &Dispatcher{
		log:           log,
		tracker:       tracker,
		analyst:       analyst,
		executor:      executor,
		semanticModel: semanticModel,
		onOutcome:     onOutcome,
	}
}

// Log exposes the dispatcher's conversation log for read-only projection.
func (d *Dispatcher) Log() *Log { return d.log }

// Tracker exposes the dispatcher's query tracker for read-only projection.
func (d *Dispatcher) Tracker() *Tracker { return d.tracker }

// Busy reports whether an analyst round trip is currently in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Submit runs one round trip and returns the index of the analyst turn (or
// of the synthetic error turn). Collaborator failures are converted into a
// visible error turn; they never fail the session.
func (d *Dispatcher) Submit(ctx context.Context, input string) (int, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return 0, ErrEmptyInput
	}

	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return 0, ErrBusy
	}
	d.busy = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
	}()

	d.log.Append(model.UserTurn(text))

	turn, err := d.analyst.SubmitConversation(ctx, d.log.Snapshot(), d.semanticModel)
	if err != nil {
		index := d.log.Append(errorTurn(err))
		logrus.WithFields(logrus.Fields{"index": index, "error": err}).Warn("analyst call failed")
		return index, nil
	}

	// Append returns the position the turn occupies; that index is the
	// correlation key for everything below. Recomputing it after the query
	// resolves would race with later submissions.
	targetIndex := d.log.Append(turn)

	if statement, ok := turn.FirstQuery(); ok {
		d.tracker.MarkPending(targetIndex)
		d.emit(targetIndex)
		generation := d.tracker.Generation()
		// Detach from the request context: execution outlives the HTTP
		// round trip that triggered it.
		go d.execute(context.WithoutCancel(ctx), generation, targetIndex, statement)
	}

	return targetIndex, nil
}

// Reset clears the log and the tracker together. In-flight collaborator
// calls are not aborted; the tracker's generation guard discards their
// late writes.
func (d *Dispatcher) Reset() {
	d.tracker.Clear()
	d.log.Reset()
}

func (d *Dispatcher) execute(ctx context.Context, generation uint64, index int, statement string) {
	result, err := d.executor.ExecuteQuery(ctx, statement)
	if err != nil {
		if d.tracker.RecordFailure(generation, index, err.Error()) {
			logrus.WithFields(logrus.Fields{"index": index, "error": err}).Warn("query execution failed")
			d.emit(index)
		}
		return
	}

	if d.tracker.RecordSuccess(generation, index, result.Columns, result.Rows) {
		logrus.WithFields(logrus.Fields{"index": index, "rows": len(result.Rows)}).Info("query execution succeeded")
		d.emit(index)
	}
}

func (d *Dispatcher) emit(index int) {
	if d.onOutcome == nil {
		return
	}
	if outcome, ok := d.tracker.Get(index); ok {
		d.onOutcome(index, outcome)
	}
}

// errorTurn synthesizes an analyst turn describing a failed analyst call so
// the failure stays visible in the transcript.
func errorTurn(err error) model.Turn {
	text := fmt.Sprintf("Sorry, I could not process that request: %v", err)

	var analystErr *AnalystError
	if errors.As(err, &analystErr) && len(analystErr.Detail) > 0 {
		if detail, marshalErr := json.MarshalIndent(analystErr.Detail, "", "  "); marshalErr == nil {
			text = fmt.Sprintf("Sorry, I could not process that request: %s\n%s", analystErr.Message, detail)
		}
	}

	return model.Turn{Role: model.RoleAnalyst, Content: []model.Segment{model.TextSegment(text)}}
}
