package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

const defaultDraftTTL = 2 * time.Hour

type draftEntry struct {
	mu         sync.Mutex
	seq        *Sequencer
	submitting bool
	touched    time.Time
}

// DraftStore keeps one in-memory sequencer per cart session. Entries idle
// for longer than the TTL are dropped by Sweep.
type DraftStore struct {
	policy *paymentmethods.Policy
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*draftEntry
}

func NewDraftStore(policy *paymentmethods.Policy, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftStore{
		policy:  policy,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*draftEntry),
	}
}

func (d *DraftStore) entry(sessionID string) *draftEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[sessionID]
	if !ok || d.expired(e) {
		e = &draftEntry{seq: NewSequencer(d.policy), touched: d.now()}
		d.entries[sessionID] = e
	}
	return e
}

// expired is called with d.mu held.
func (d *DraftStore) expired(e *draftEntry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.submitting && d.now().Sub(e.touched) > d.ttl
}

// With runs fn against the session's sequencer under its lock. Mutations
// are refused while an order for the session is being submitted.
func (d *DraftStore) With(sessionID string, fn func(*Sequencer) error) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	e := d.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitting {
		return pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	e.touched = d.now()
	return fn(e.seq)
}

// View runs fn for reading; it is allowed during a submission.
func (d *DraftStore) View(sessionID string, fn func(*Sequencer)) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	e := d.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.seq)
	return nil
}

// BeginSubmit closes the session's submission gate and returns the draft to
// submit. finish must be called exactly once: finish(true) drops the draft,
// finish(false) reopens the gate and leaves the draft as it was.
func (d *DraftStore) BeginSubmit(sessionID string) (Draft, func(success bool), error) {
	if sessionID == "" {
		return Draft{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	e := d.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitting {
		return Draft{}, nil, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	}
	if err := e.seq.Ready(); err != nil {
		return Draft{}, nil, err
	}
	e.submitting = true
	e.touched = d.now()

	var once sync.Once
	finish := func(success bool) {
		once.Do(func() {
			if success {
				d.mu.Lock()
				if d.entries[sessionID] == e {
					delete(d.entries, sessionID)
				}
				d.mu.Unlock()
			}
			e.mu.Lock()
			e.submitting = false
			if success {
				e.seq = NewSequencer(d.policy)
			}
			e.touched = d.now()
			e.mu.Unlock()
		})
	}
	return e.seq.Draft(), finish, nil
}

// Drop forgets the session's draft.
func (d *DraftStore) Drop(sessionID string) {
	d.mu.Lock()
	delete(d.entries, sessionID)
	d.mu.Unlock()
}

// Len is the number of live drafts.
func (d *DraftStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Sweep removes expired drafts and reports how many were removed.
func (d *DraftStore) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for id, e := range d.entries {
		if d.expired(e) {
			delete(d.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (d *DraftStore) Run(ctx context.Context, interval time.Duration, logg *logger.Logger) {
	if interval <= 0 {
		interval = d.ttl / 4
	}
	if logg == nil {
		logg = logger.Nop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(); n > 0 {
				logg.Debug(logg.WithField(ctx, "expired", n), "checkout.drafts_swept")
			}
		}
	}
}
