package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/pricing"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// LocaleResolver resolves a visitor's pricing locale once.
type LocaleResolver interface {
	Resolve(ctx context.Context, clientIP string) pricing.Locale
}

// Observer tracks the live session count. Implemented by the metrics package.
type Observer interface {
	SessionStarted()
	SessionEnded()
}

// Store keeps sessions in memory and ends them after an idle period.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State

	resolver LocaleResolver
	logger   *logging.Logger
	observer Observer
	idleTTL  time.Duration
	boardOps []notify.Option
	now      func() time.Time
	newID    func() string

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithIdleTTL sets how long an untouched session lives.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithBoardOptions configures every session's notification board.
func WithBoardOptions(opts ...notify.Option) Option {
	return func(s *Store) { s.boardOps = append(s.boardOps, opts...) }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store. resolver may be nil, in which case every
// session keeps the default locale.
func NewStore(resolver LocaleResolver, logger *logging.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	root, cancel := context.WithCancel(context.Background())
	s := &Store{
		sessions: make(map[string]*State),
		resolver: resolver,
		logger:   logger,
		idleTTL:  30 * time.Minute,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		root:     root,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session and kicks off its one-shot locale resolution. The
// session context keeps ctx's values but not its cancellation; it ends with
// the session or the store.
func (s *Store) Create(ctx context.Context, clientIP string) *State {
	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	st := newState(sessCtx, cancel, s.newID(), notify.NewBoard(s.boardOps...), s.now)
	st.stop = context.AfterFunc(s.root, cancel)

	s.mu.Lock()
	s.sessions[st.id] = st
	s.mu.Unlock()
	if s.observer != nil {
		s.observer.SessionStarted()
	}
	s.logger.Debug("session created", "session_id", st.id)

	if s.resolver == nil {
		st.SetLocale(pricing.LocaleDefault)
		return st
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		locale := s.resolver.Resolve(st.ctx, clientIP)
		if st.ctx.Err() != nil {
			return
		}
		st.SetLocale(locale)
		s.logger.Debug("session locale resolved", "session_id", st.id, "locale", locale)
	}()
	return st
}

// Get returns a live session and marks it as used.
func (s *Store) Get(id string) (*State, bool) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if st.idleSince(s.now()) >= s.idleTTL {
		s.End(id)
		return nil, false
	}
	st.touch()
	return st, true
}

// End removes a session and cancels everything bound to its context.
func (s *Store) End(id string) bool {
	s.mu.Lock()
	st, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	st.end()
	if s.observer != nil {
		s.observer.SessionEnded()
	}
	s.logger.Debug("session ended", "session_id", id)
	return true
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep ends every session idle for longer than the TTL and returns how many
// were ended.
func (s *Store) Sweep() int {
	now := s.now()
	var expired []string
	s.mu.RLock()
	for id, st := range s.sessions {
		if st.idleSince(now) >= s.idleTTL {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if s.End(id) {
			n++
		}
	}
	if n > 0 {
		s.logger.Info("idle sessions swept", "count", n)
	}
	return n
}

// Run sweeps idle sessions until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close ends every session and waits for pending locale lookups.
func (s *Store) Close() {
	s.cancel()
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		s.End(id)
	}
	s.wg.Wait()
}
