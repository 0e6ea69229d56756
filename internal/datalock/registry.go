package datalock

import (
	"log/slog"
	"sync"

	"screen-ocr/internal/domain"
)

// Key identifies one exclusive-access domain.
type Key struct {
	EngineID string
	DataDir  string
}

// Registry tracks data locks and lock observers per key. Entries live while
// at least one Lock or Observer references them.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*entry
	logger  *slog.Logger
}

// entry is the shared state of one key.
type entry struct {
	refs      int
	locked    bool
	nextID    int
	observers []*Observer
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		entries: make(map[Key]*entry),
		logger:  logger,
	}
}

// Acquire takes the lock for key. It fails with domain.ErrDataLocked when the
// key is already locked. Observers' before callbacks run synchronously, in
// registration order, before Acquire returns.
func (r *Registry) Acquire(key Key) (*Lock, error) {
	r.mu.Lock()
	e := r.ref(key)
	if e.locked {
		r.unref(key, e)
		r.mu.Unlock()
		return nil, domain.ErrDataLocked
	}
	e.locked = true
	observers := append([]*Observer(nil), e.observers...)
	r.mu.Unlock()

	r.logger.Debug("data lock acquired", "engine", key.EngineID, "dataDir", key.DataDir, "observers", len(observers))
	for _, o := range observers {
		if o.before != nil {
			o.before()
		}
	}

	return &Lock{registry: r, key: key}, nil
}

// Observe registers a callback pair for key. before runs when a lock is about
// to be handed out, after runs once it is released.
func (r *Registry) Observe(key Key, before, after func()) *Observer {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.ref(key)
	e.nextID++
	o := &Observer{
		registry: r,
		key:      key,
		id:       e.nextID,
		before:   before,
		after:    after,
	}
	e.observers = append(e.observers, o)
	return o
}

// Len returns the number of live keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Locked reports whether a lock is held for key.
func (r *Registry) Locked(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return ok && e.locked
}

// release unlocks key and runs after callbacks outside the registry mutex.
func (r *Registry) release(key Key) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.locked = false
	observers := append([]*Observer(nil), e.observers...)
	r.unref(key, e)
	r.mu.Unlock()

	r.logger.Debug("data lock released", "engine", key.EngineID, "dataDir", key.DataDir)
	for _, o := range observers {
		if o.after != nil {
			o.after()
		}
	}
}

// removeObserver drops o from its key.
func (r *Registry) removeObserver(o *Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[o.key]
	if !ok {
		return
	}
	for i, cur := range e.observers {
		if cur.id == o.id {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			r.unref(o.key, e)
			return
		}
	}
}

// ref returns the entry for key, creating it, and counts one reference.
// Callers hold r.mu.
func (r *Registry) ref(key Key) *entry {
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	e.refs++
	return e
}

// unref drops one reference and prunes the entry at zero. Callers hold r.mu.
func (r *Registry) unref(key Key, e *entry) {
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, key)
	}
}

// Lock is an acquired data lock. Release it exactly once; extra calls are no-ops.
type Lock struct {
	registry *Registry
	key      Key
	once     sync.Once
}

// Key returns the locked key.
func (l *Lock) Key() Key {
	return l.key
}

// Release unlocks the key and notifies observers.
func (l *Lock) Release() {
	l.once.Do(func() {
		l.registry.release(l.key)
	})
}

// Observer is a registered callback pair for one key.
type Observer struct {
	registry *Registry
	key      Key
	id       int
	before   func()
	after    func()
	once     sync.Once
}

// IsLocked reports whether a lock is currently held for the observed key.
func (o *Observer) IsLocked() bool {
	return o.registry.Locked(o.key)
}

// Close unregisters the observer.
func (o *Observer) Close() {
	o.once.Do(func() {
		o.registry.removeObserver(o)
	})
}
