// Package session holds the per-visitor application state: resolved locale,
// cart, notifications, auth token and the payment loading flag, all bound to
// one lifetime context.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wolfman30/consult-booking/internal/auth"
	"github.com/wolfman30/consult-booking/internal/cart"
	"github.com/wolfman30/consult-booking/internal/catalog"
	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/pricing"
)

var (
	// ErrUnknownPlan is returned when selecting a plan the catalog does not list.
	ErrUnknownPlan = errors.New("session: unknown plan")
	// ErrUnknownAddon is returned when toggling an add-on the catalog does not list.
	ErrUnknownAddon = errors.New("session: unknown add-on")
)

// State is one visitor's application state. Cart operations are serialised by
// the state mutex; the locale and loading flag are read without it.
type State struct {
	id      string
	created time.Time

	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	mu       sync.Mutex
	cart     *cart.Cart
	token    string
	recovery *auth.ForgotFlow

	board    *notify.Board
	locale   atomic.Value
	resolved chan struct{}
	once     sync.Once
	loading  atomic.Bool
	lastSeen atomic.Int64
	now      func() time.Time
}

func newState(ctx context.Context, cancel context.CancelFunc, id string, board *notify.Board, now func() time.Time) *State {
	s := &State{
		id:       id,
		created:  now(),
		ctx:      ctx,
		cancel:   cancel,
		board:    board,
		cart:     cart.New(board),
		resolved: make(chan struct{}),
		now:      now,
	}
	s.locale.Store(pricing.LocaleDefault)
	s.touch()
	return s
}

// ID is the session identifier carried in the cookie.
func (s *State) ID() string { return s.id }

// Context is cancelled when the session ends.
func (s *State) Context() context.Context { return s.ctx }

// Board is the session's notification board.
func (s *State) Board() *notify.Board { return s.board }

// Locale is the pricing locale; LocaleDefault until resolution completes.
func (s *State) Locale() pricing.Locale {
	return s.locale.Load().(pricing.Locale)
}

// LocaleResolved is closed once the one-shot resolution has finished.
func (s *State) LocaleResolved() <-chan struct{} { return s.resolved }

// SetLocale records the resolved locale and reprices the cart. Only the
// first call has any effect.
func (s *State) SetLocale(l pricing.Locale) {
	s.once.Do(func() {
		s.mu.Lock()
		s.locale.Store(l)
		s.cart.Reprice(catalog.For(l))
		s.mu.Unlock()
		close(s.resolved)
	})
}

// Catalog derives the plans and add-ons for the current locale.
func (s *State) Catalog() catalog.Catalog {
	return catalog.For(s.Locale())
}

// Token returns the auth token, dropping it first if it has expired.
func (s *State) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && auth.TokenExpired(s.token, s.now()) {
		s.token = ""
	}
	return s.token
}

// SetToken stores the token returned by login or registration.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Logout forgets the token.
func (s *State) Logout() { s.SetToken("") }

// Recovery returns the visitor's password recovery flow, starting a new one
// with start when none is active or the previous one finished.
func (s *State) Recovery(start func() *auth.ForgotFlow) *auth.ForgotFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recovery == nil || s.recovery.Stage() == auth.StageDone {
		s.recovery = start()
	}
	return s.recovery
}

// EndRecovery discards the recovery flow.
func (s *State) EndRecovery() {
	s.mu.Lock()
	s.recovery = nil
	s.mu.Unlock()
}

// Loading reports whether a payment request is in flight.
func (s *State) Loading() bool { return s.loading.Load() }

// BeginPayment claims the loading flag.
func (s *State) BeginPayment() bool { return s.loading.CompareAndSwap(false, true) }

// EndPayment releases the loading flag.
func (s *State) EndPayment() { s.loading.Store(false) }

// CompletePayment empties the cart after a verified payment.
func (s *State) CompletePayment() {
	s.mu.Lock()
	s.cart.Reset()
	s.mu.Unlock()
}

// Notify posts a notification on the session board.
func (s *State) Notify(kind notify.Kind, message string) {
	s.board.Post(kind, message)
}

// SelectPlan selects the named plan at the current locale's price. The
// catalog is read under the mutex so a concurrent SetLocale cannot leave a
// stale price behind.
func (s *State) SelectPlan(name string) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Catalog().Plan(name)
	if !ok {
		return cart.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownPlan, name)
	}
	s.cart.SelectPlan(p)
	return s.cart.Snapshot(), nil
}

// ToggleAddon toggles the named add-on.
func (s *State) ToggleAddon(name string) (cart.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Catalog().Addon(name)
	if !ok {
		return cart.Snapshot{}, false, fmt.Errorf("%w: %s", ErrUnknownAddon, name)
	}
	added, err := s.cart.ToggleAddon(a)
	return s.cart.Snapshot(), added, err
}

// RemoveItem drops a cart line by name.
func (s *State) RemoveItem(name string) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.cart.RemoveItem(name)
	return s.cart.Snapshot(), err
}

// ClearCart empties the cart.
func (s *State) ClearCart() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	return s.cart.Snapshot()
}

// Cart renders the cart.
func (s *State) Cart() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

// Total is the cart total at current prices.
func (s *State) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Ended reports whether the session has been ended.
func (s *State) Ended() bool { return s.ctx.Err() != nil }

func (s *State) touch() { s.lastSeen.Store(s.now().UnixNano()) }

func (s *State) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

func (s *State) end() {
	if s.stop != nil {
		s.stop()
	}
	s.cancel()
	s.board.Close()
	s.EndPayment()
}
