package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays on screen.
const DefaultTTL = 3 * time.Second

// Kind classifies a notification for display.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is an ephemeral message shown to the visitor.
type Notification struct {
	Kind     Kind      `json:"kind"`
	Message  string    `json:"message"`
	PostedAt time.Time `json:"posted_at"`
}

// EventType distinguishes board changes on the subscriber stream.
type EventType string

const (
	EventPosted  EventType = "posted"
	EventCleared EventType = "cleared"
)

// Event is delivered to subscribers on every board change.
type Event struct {
	Type         EventType     `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f after d. time.AfterFunc in production.
type Scheduler func(d time.Duration, f func()) Stopper

func afterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Board holds at most one notification. A new post replaces the current one
// and arms its own dismissal timer; earlier timers keep running and clear the
// board when they fire. Clearing is idempotent.
type Board struct {
	mu       sync.Mutex
	current  *Notification
	ttl      time.Duration
	schedule Scheduler
	now      func() time.Time
	timers   map[int]Stopper
	nextID   int
	subs     map[int]chan Event
	closed   bool
}

// Option customises a Board.
type Option func(*Board)

// WithTTL overrides the dismissal delay.
func WithTTL(ttl time.Duration) Option {
	return func(b *Board) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithScheduler overrides the timer implementation (for testing).
func WithScheduler(s Scheduler) Option {
	return func(b *Board) {
		if s != nil {
			b.schedule = s
		}
	}
}

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBoard creates an empty board.
func NewBoard(opts ...Option) *Board {
	b := &Board{
		ttl:      DefaultTTL,
		schedule: afterFunc,
		now:      time.Now,
		timers:   make(map[int]Stopper),
		subs:     make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Post replaces the current notification and schedules its dismissal.
func (b *Board) Post(kind Kind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	n := &Notification{Kind: kind, Message: message, PostedAt: b.now()}
	b.current = n

	id := b.nextID
	b.nextID++
	b.timers[id] = b.schedule(b.ttl, func() { b.expire(id) })

	copied := *n
	b.publishLocked(Event{Type: EventPosted, Notification: &copied})
}

// Success posts a success notification.
func (b *Board) Success(message string) { b.Post(KindSuccess, message) }

// Info posts an informational notification.
func (b *Board) Info(message string) { b.Post(KindInfo, message) }

// Warning posts a warning notification.
func (b *Board) Warning(message string) { b.Post(KindWarning, message) }

// Error posts a failure notification.
func (b *Board) Error(message string) { b.Post(KindError, message) }

// Current returns the notification on display, if any.
func (b *Board) Current() (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notification{}, false
	}
	return *b.current, true
}

// Clear removes the current notification immediately.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked()
}

func (b *Board) expire(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.timers, id)
	if b.closed {
		return
	}
	b.clearLocked()
}

func (b *Board) clearLocked() {
	if b.current == nil {
		return
	}
	b.current = nil
	b.publishLocked(Event{Type: EventCleared})
}

// Subscribe returns a stream of board events and a cancel func. Events are
// dropped for subscribers that fall behind.
func (b *Board) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 8)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *Board) publishLocked(ev Event) {
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close stops pending timers and ends all subscriptions.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.current = nil
}

// Pending reports the number of armed dismissal timers.
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.timers)
}
