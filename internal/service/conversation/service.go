package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	model "github.com/dampiermike/cortex-chat/backend/internal/model/conversation"
)

var (
	ErrModelRequired   = errors.New("semantic model is required")
	ErrSessionNotFound = errors.New("session not found")
)

// TurnView is the renderer projection of one turn: the turn itself merged
// with the outcome of its query, when it has one.
type TurnView struct {
	Index int                 `json:"index"`
	Turn  model.Turn          `json:"turn"`
	Query *model.QueryOutcome `json:"query,omitempty"`
}

// Event notifies subscribers that the query outcome at Index changed.
type Event struct {
	SessionID string             `json:"sessionId"`
	Index     int                `json:"index"`
	Outcome   model.QueryOutcome `json:"outcome"`
}

type session struct {
	meta       model.Session
	dispatcher *Dispatcher
}

// Service owns conversation state, one (log, tracker, dispatcher) triple per
// session. All state is in-memory and lives for the duration of the process.
type Service struct {
	analyst  Analyst
	executor QueryExecutor

	mu       sync.RWMutex
	sessions map[string]*session

	subMu       sync.Mutex
	subscribers map[string]map[chan Event]struct{}
}

// NewService bootstraps the in-memory conversation service.
func NewService(analyst Analyst, executor QueryExecutor) *Service {
	return &Service{
		analyst:     analyst,
		executor:    executor,
		sessions:    make(map[string]*session),
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// CreateSession provisions a session bound to a semantic model path.
func (s *Service) CreateSession(_ context.Context, semanticModel string) (model.Session, error) {
	if semanticModel == "" {
		return model.Session{}, ErrModelRequired
	}

	meta := model.Session{
		ID:            uuid.NewString(),
		SemanticModel: semanticModel,
		CreatedAt:     time.Now().UTC(),
	}

	dispatcher := NewDispatcher(
		NewLog(),
		NewTracker(),
		s.analyst,
		s.executor,
		semanticModel,
		func(index int, outcome model.QueryOutcome) {
			s.broadcast(Event{SessionID: meta.ID, Index: index, Outcome: outcome})
		},
	)

	s.mu.Lock()
	s.sessions[meta.ID] = &session{meta: meta, dispatcher: dispatcher}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"session": meta.ID, "model": semanticModel}).Info("session created")
	return meta, nil
}

// GetSession retrieves session metadata by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (model.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return model.Session{}, err
	}
	return sess.meta, nil
}

// Submit runs one dispatcher round trip for the session. ErrEmptyInput and
// ErrBusy pass through for the handler to map onto status codes.
func (s *Service) Submit(ctx context.Context, sessionID, input string) (int, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.dispatcher.Submit(ctx, input)
}

// Busy reports whether the session's dispatcher has a round trip in flight.
func (s *Service) Busy(sessionID string) (bool, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	return sess.dispatcher.Busy(), nil
}

// Transcript returns the read-only merged view of the session's log and
// tracker, ordered by turn position.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]TurnView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	turns := sess.dispatcher.Log().Snapshot()
	views := make([]TurnView, 0, len(turns))
	for i, turn := range turns {
		view := TurnView{Index: i, Turn: turn}
		if outcome, ok := sess.dispatcher.Tracker().Get(i); ok {
			view.Query = &outcome
		}
		views = append(views, view)
	}
	return views, nil
}

// Reset clears the session's log and tracker together.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.dispatcher.Reset()
	logrus.WithField("session", sessionID).Info("session reset")
	return nil
}

// Subscribe registers for query outcome events on a session. The returned
// cancel function must be called when the consumer goes away.
func (s *Service) Subscribe(sessionID string) (<-chan Event, func(), error) {
	if _, err := s.lookup(sessionID); err != nil {
		return nil, nil, err
	}

	ch := make(chan Event, 16)

	s.subMu.Lock()
	subs, ok := s.subscribers[sessionID]
	if !ok {
		subs = make(map[chan Event]struct{})
		s.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if subs, ok := s.subscribers[sessionID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(s.subscribers, sessionID)
			}
		}
		s.subMu.Unlock()
	}

	return ch, cancel, nil
}

func (s *Service) broadcast(event Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
			// Slow consumer; drop rather than stall the dispatcher.
		}
	}
}

func (s *Service) lookup(sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
