package doctors

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wolfman30/consult-booking/internal/backend"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// ErrDoctorNotFound is returned when no doctor has the requested id.
var ErrDoctorNotFound = errors.New("doctors: doctor not found")

// Doctor is a consultant shown on the appointment page.
type Doctor = backend.Doctor

// Lister fetches the doctor list from the backend.
type Lister interface {
	ListDoctors(ctx context.Context) ([]backend.Doctor, error)
}

// Directory caches the backend's doctor list for a fixed TTL. Concurrent
// refreshes collapse into one backend call.
type Directory struct {
	lister Lister
	ttl    time.Duration
	logger *logging.Logger
	now    func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	doctors   []Doctor
	fetchedAt time.Time
}

// NewDirectory creates a directory. A non-positive ttl refetches on every read.
func NewDirectory(lister Lister, ttl time.Duration, logger *logging.Logger) *Directory {
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{
		lister: lister,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// List returns all doctors. When a refresh fails and a previous list is
// cached, the stale list is served.
func (d *Directory) List(ctx context.Context) ([]Doctor, error) {
	if cached, ok := d.fresh(); ok {
		return cached, nil
	}

	v, err, _ := d.group.Do("list", func() (any, error) {
		docs, err := d.lister.ListDoctors(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.doctors = docs
		d.fetchedAt = d.now()
		d.mu.Unlock()
		d.logger.Debug("doctor directory refreshed", "count", len(docs))
		return docs, nil
	})
	if err != nil {
		d.mu.RLock()
		stale := d.doctors
		d.mu.RUnlock()
		if stale != nil {
			d.logger.Warn("doctor directory refresh failed, serving cached list", "error", err)
			return clone(stale), nil
		}
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	return clone(v.([]Doctor)), nil
}

// Get returns the doctor with id.
func (d *Directory) Get(ctx context.Context, id string) (Doctor, error) {
	docs, err := d.List(ctx)
	if err != nil {
		return Doctor{}, err
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return Doctor{}, fmt.Errorf("%w: %s", ErrDoctorNotFound, id)
}

// Warm loads the directory ahead of the first request.
func (d *Directory) Warm(ctx context.Context) error {
	_, err := d.List(ctx)
	return err
}

func (d *Directory) fresh() ([]Doctor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.doctors == nil || d.ttl <= 0 {
		return nil, false
	}
	if d.now().Sub(d.fetchedAt) >= d.ttl {
		return nil, false
	}
	return clone(d.doctors), true
}

func clone(docs []Doctor) []Doctor {
	out := make([]Doctor, len(docs))
	copy(out, docs)
	return out
}
