package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

// Repository persists whole cart aggregates keyed by session.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
}

// Store owns every cart mutation. It serializes load-mutate-save per
// session and hands out snapshots only.
type Store struct {
	repo  Repository
	logg  *logger.Logger
	now   func() time.Time
	loads singleflight.Group

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore builds the cart store over repo.
func NewStore(repo Repository, logg *logger.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		repo:  repo,
		logg:  logg,
		now:   time.Now,
		locks: make(map[string]*sessionLock),
	}, nil
}

// Get returns a snapshot of the session's cart. Concurrent loads of the
// same session share one repository read.
func (s *Store) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	v, err, _ := s.loads.Do(sessionID, func() (interface{}, error) {
		return s.repo.Load(ctx, sessionID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return v.(*Cart).Snapshot(), nil
}

// AddItem adds quantity of item to the cart.
func (s *Store) AddItem(ctx context.Context, sessionID string, item Item, quantity int) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		return c.AddItem(item, quantity)
	})
}

// RemoveItem drops a product from the cart.
func (s *Store) RemoveItem(ctx context.Context, sessionID string, productID int64) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// UpdateQuantity sets a product's quantity, clamped to its stock.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.UpdateQuantity(productID, quantity)
		return nil
	})
}

// Clear empties the cart and persists it as empty.
func (s *Store) Clear(ctx context.Context, sessionID string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// RemoveOrdered takes the lines of a placed order out of the cart under the
// session lock, keeping anything added while the order was in flight.
func (s *Store) RemoveOrdered(ctx context.Context, sessionID string, ordered []Line) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveOrdered(ordered)
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, sessionID string, fn func(*Cart) error) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}

	unlock := s.lock(sessionID)
	defer unlock()

	current, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	working := current.Snapshot()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, sessionID, working); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	s.loads.Forget(sessionID)

	ctx = s.logg.WithFields(ctx, map[string]any{"lines": len(working.Lines), "total_items": working.TotalItems()})
	s.logg.Debug(ctx, "cart.saved")
	return working.Snapshot(), nil
}

func (s *Store) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
