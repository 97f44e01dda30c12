package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/mis"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/staff"
	"github.com/google/uuid"
)

type entry struct {
	ctrl      *mis.Controller
	viewer    staff.Viewer
	available []string
	lastUsed  time.Time
}

// Registry maps session IDs to live report controllers. Every change is
// written through to the Store; sessions missing from memory are restored
// from it on first use.
type Registry struct {
	src      mis.Source
	store    Store
	pageSize int

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(src mis.Source, store Store, pageSize int) *Registry {
	return &Registry{
		src:      src,
		store:    store,
		pageSize: pageSize,
		sessions: make(map[string]*entry),
	}
}

func (r *Registry) put(id string, e *entry) {
	r.mu.Lock()
	r.sessions[id] = e
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.UpdateActiveSessions(n)
}

func (r *Registry) lookup(ctx context.Context, id string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		e.lastUsed = time.Now()
	}
	r.mu.Unlock()

	if ok {
		return e, nil
	}

	sess, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	ctrl := mis.NewController(r.src, sess.State.PageSize)
	ctrl.Restore(sess.State)
	restored := &entry{ctrl: ctrl, viewer: sess.Viewer, available: sess.Available, lastUsed: time.Now()}

	r.mu.Lock()
	if existing, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.sessions[id] = restored
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	log.Printf("restored MIS session %s from store", id)
	return restored, nil
}

func (r *Registry) snapshot(id string, e *entry) *Session {
	return &Session{
		ID:        id,
		Viewer:    e.viewer,
		Available: append([]string(nil), e.available...),
		State:     e.ctrl.Snapshot(),
		UpdatedAt: time.Now(),
	}
}

func (r *Registry) persist(ctx context.Context, id string, e *entry) *Session {
	sess := r.snapshot(id, e)
	if err := r.store.Save(ctx, sess); err != nil {
		log.Printf("failed to save MIS session %s: %v", id, err)
	}
	return sess
}

// Create opens a report for viewer and loads its first page. Nothing is kept
// if the first page cannot be loaded.
func (r *Registry) Create(ctx context.Context, viewer staff.Viewer, filter string) (*Session, error) {
	available, err := mis.Available(ctx, r.src, viewer)
	if err != nil {
		return nil, err
	}

	e := &entry{
		ctrl:      mis.NewController(r.src, r.pageSize),
		viewer:    viewer,
		available: available,
		lastUsed:  time.Now(),
	}
	if err := e.ctrl.Reset(ctx, filter); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	r.put(id, e)
	return r.persist(ctx, id, e), nil
}

func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	e, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.snapshot(id, e), nil
}

// SetFilter restarts the report for a new staff filter. A failed first page
// still leaves the cleared report in place.
func (r *Registry) SetFilter(ctx context.Context, id, filter string) (*Session, error) {
	e, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	err = e.ctrl.Reset(ctx, filter)
	if errors.Is(err, mis.ErrSuperseded) {
		err = nil
	}

	return r.persist(ctx, id, e), err
}

// LoadMore appends the next page. It reports whether a page was fetched.
func (r *Registry) LoadMore(ctx context.Context, id string) (*Session, bool, error) {
	e, err := r.lookup(ctx, id)
	if err != nil {
		return nil, false, err
	}

	loaded, err := e.ctrl.LoadMore(ctx)
	if errors.Is(err, mis.ErrSuperseded) {
		err = nil
	}
	if !loaded {
		return r.snapshot(id, e), false, nil
	}

	return r.persist(ctx, id, e), true, err
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return r.store.Delete(ctx, id)
}

// Sweep drops sessions idle for longer than maxIdle from memory. Their
// snapshots stay in the store until it expires them.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
