package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/availability"
	"github.com/xaulosky/travel-suites-app/internal/quote"
	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// DefaultIdleTimeout is how long an untouched session is kept.
const DefaultIdleTimeout = 2 * time.Hour

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// LoadFunc loads the merged occupancy of a property and the number of
// sources that failed.
type LoadFunc func(ctx context.Context, p models.Property) ([]models.CalendarEvent, int, error)

// Session is one dashboard. All methods are safe for concurrent use; the
// mutex serializes reducer application.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	lastSeen time.Time
	now      func() time.Time
}

func newSession(f *quote.Formatter, now func() time.Time) *Session {
	return &Session{
		ID:       uuid.New().String(),
		state:    NewState(f),
		lastSeen: now(),
		now:      now,
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectProperty switches the session to p and starts loading its occupancy
// in the background. Any load still running for a previous selection is
// cancelled. The returned channel is closed once this load has been applied
// or discarded.
func (s *Session) SelectProperty(ctx context.Context, p models.Property, load LoadFunc) (State, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.state = SelectProperty(s.state, p)
	s.lastSeen = s.now()
	token := s.state.LoadToken

	// The load outlives the request that started it.
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		events, failed, err := load(lctx, p)
		s.finishLoad(token, p.ID, events, failed, err)
	}()

	return s.state, done
}

func (s *Session) finishLoad(token uint64, propertyID string, events []models.CalendarEvent, failed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied bool
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		s.state, applied = FailLoad(s.state, token, propertyID, err)
		if applied {
			log.Warn().Err(err).Str("session", s.ID).Str("property_id", propertyID).Msg("Occupancy load failed")
		}
	default:
		s.state, applied = ApplyEvents(s.state, token, propertyID, events, failed)
	}
	if !applied {
		log.Debug().Str("session", s.ID).Uint64("token", token).Msg("Discarding stale occupancy load")
	}
}

// Click applies a date click.
func (s *Session) Click(d time.Time, mode availability.Mode, today time.Time) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Click(s.state, d, mode, today)
	s.state = next
	s.lastSeen = s.now()
	return next, err
}

// ClearSelection empties the date selection.
func (s *Session) ClearSelection() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = ClearSelection(s.state)
	s.lastSeen = s.now()
	return s.state
}

// SetGuests changes the guest count.
func (s *Session) SetGuests(n int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := SetGuests(s.state, n)
	s.state = next
	s.lastSeen = s.now()
	return next, err
}

// Close cancels any running load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// Store keeps the live sessions.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	idle      time.Duration
	formatter *quote.Formatter
	now       func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTimeout sets how long untouched sessions survive.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(st *Store) {
		if d > 0 {
			st.idle = d
		}
	}
}

// WithFormatter sets the currency formatter used for quotes.
func WithFormatter(f *quote.Formatter) StoreOption {
	return func(st *Store) { st.formatter = f }
}

// WithClock overrides the clock used for idle expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(st *Store) { st.now = now }
}

// NewStore creates an empty session store.
func NewStore(opts ...StoreOption) *Store {
	st := &Store{
		sessions: make(map[string]*Session),
		idle:     DefaultIdleTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := newSession(st.formatter, st.now)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with id and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete closes and removes the session with id.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Expire removes sessions idle for longer than the idle timeout and returns
// how many were removed.
func (st *Store) Expire() int {
	cutoff := st.now().Add(-st.idle)

	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		log.Debug().Int("expired", len(expired)).Msg("Expired idle sessions")
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close cancels every running load and drops all sessions.
func (st *Store) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
