package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
	"github.com/vboxkit/vboxkit/internal/progress"
)

// Registry owns every session entity and keeps them reconciled against
// the hypervisor's live machine list. The open-session index holds
// non-owning references, ordered by open order.
//
// Mutating methods (Allocate, Open, Close, Delete, LoadSessions) are not
// internally synchronized beyond the hypervisor lock table; callers run
// them from a single control thread.
type Registry struct {
	hv    Hypervisor
	store *Store
	log   *slog.Logger

	sessions map[string]*Session
	open     []*Session
	loaded   bool
}

// NewRegistry returns an empty registry backed by the given store. A nil
// logger uses slog.Default().
func NewRegistry(hv Hypervisor, store *Store, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		hv:       hv,
		store:    store,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// LoadSessions rebuilds the in-memory registry from persisted descriptors
// and reconciles it against the hypervisor's live machine list, in four
// phases under the session-update lock:
//
//  1. reload every descriptor from disk into a fresh map, skipping
//     malformed ones with a warning;
//  2. enumerate live machines, dropping inaccessible entries;
//  3. remove every session whose machine is absent from the enumeration,
//     cascading to storage and the open index;
//  4. notify open sessions that no longer exist in the registry and drop
//     them from the open index.
//
// A failed machine enumeration aborts the pass with ErrQuery before
// phases 3 and 4 run. The phase-1 reload has already replaced the
// in-memory map at that point; callers must retry a failed pass before
// trusting registry contents.
func (r *Registry) LoadSessions(pf progress.Task) error {
	if pf == nil {
		pf = progress.Discard
	}

	unlock := r.hv.Lock(hypervisor.LockSessionUpdate)
	defer unlock()

	pf.SetMax(4)
	pf.Doing("Loading sessions from disk")

	// [1] Rebuild the map from persisted descriptors.
	r.sessions = make(map[string]*Session)
	ids, err := r.store.Enum()
	if err != nil {
		return err
	}
	for _, id := range ids {
		d, err := r.store.Load(id)
		if err != nil {
			r.log.Warn("skipping malformed session descriptor", "id", id, "error", err)
			continue
		}
		r.sessions[d.UUID] = newSession(d, r.hv)
	}

	// [2] Collect the live machine enumeration.
	vms, err := r.hv.ListVMs()
	if err != nil {
		return fmt.Errorf("listing machines: %w", hypervisor.ErrQuery)
	}

	pf.Done("Sessions loaded")
	pf.Doing("Cleaning up expired sessions")

	// [3] Drop sessions whose machine was destroyed externally. Removal
	// candidates are collected first so the map is never mutated while
	// being iterated; the sweep repeats until no candidates remain,
	// since Delete can itself shrink the open index.
	for {
		var stale []*Session
		for _, sess := range r.sessions {
			if _, live := vms[sess.ExternalID]; !live {
				stale = append(stale, sess)
			}
		}
		if len(stale) == 0 {
			break
		}
		for _, sess := range stale {
			r.log.Warn("session machine destroyed externally", "id", sess.InternalID, "name", sess.Name)
			r.Delete(sess)
		}
	}

	pf.Done("Expired sessions cleaned up")
	pf.Doing("Releasing lost open sessions")

	// [4] Open sessions that did not survive phase 3 are notified and
	// dropped from the open index.
	for {
		removed := false
		for i, sess := range r.open {
			if _, ok := r.sessions[sess.InternalID]; !ok {
				sess.NotifyDestroyed()
				r.open = append(r.open[:i], r.open[i+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			break
		}
	}

	pf.Done("Lost open sessions released")
	r.loaded = true
	return nil
}

// Loaded reports whether a full load has completed since startup.
func (r *Registry) Loaded() bool {
	return r.loaded
}

// EnsureLoaded runs LoadSessions once. Subsequent calls report the
// already-done state without touching the registry.
func (r *Registry) EnsureLoaded(pf progress.Task) (alreadyDone bool, err error) {
	if r.loaded {
		return true, nil
	}
	return false, r.LoadSessions(pf)
}

// Allocate creates a session with a fresh identity, persists its
// descriptor and registers it.
func (r *Registry) Allocate(name string) (*Session, error) {
	d := &Descriptor{
		UUID:  uuid.NewString(),
		Name:  name,
		State: StateMissing,
	}
	if err := r.store.Save(d); err != nil {
		return nil, err
	}

	sess := newSession(d, r.hv)
	r.sessions[sess.InternalID] = sess
	return sess, nil
}

// Open checks out a session for the given parameters, reusing a
// registered session with a matching name or allocating a fresh one. The
// checkout count is incremented, the progress task attached and the
// session's state refreshed before it is returned.
func (r *Registry) Open(params map[string]string, pf progress.Task) (*Session, error) {
	name := params["name"]
	if name == "" {
		return nil, fmt.Errorf("open: %w: name", hypervisor.ErrMissingField)
	}

	var sess *Session
	for _, candidate := range r.sessions {
		if candidate.Name == name {
			sess = candidate
			break
		}
	}
	if sess == nil {
		var err error
		sess, err = r.Allocate(name)
		if err != nil {
			return nil, err
		}
	}

	for k, v := range params {
		sess.Parameters[k] = v
	}

	sess.openRefs++
	if sess.openRefs == 1 {
		r.open = append(r.open, sess)
	}

	sess.UseProgress(pf)
	sess.Refresh()
	return sess, nil
}

// Persist writes the session's current descriptor back to storage.
func (r *Registry) Persist(sess *Session) error {
	return r.store.Save(sess.Descriptor())
}

// Close releases one checkout of the session. Only the last release
// aborts the session and removes it from the open index; a session left
// in the Missing state at that point is deleted entirely.
func (r *Registry) Close(sess *Session) {
	if sess.openRefs > 0 {
		sess.openRefs--
	}
	if sess.openRefs > 0 {
		return
	}

	sess.Abort()

	for i, open := range r.open {
		if open.InternalID == sess.InternalID {
			r.open = append(r.open[:i], r.open[i+1:]...)
			break
		}
	}

	if sess.State == StateMissing {
		r.Delete(sess)
	}
}

// Delete removes the session from the registry, the open index (with a
// destruction notification if it was open) and persisted storage. Deleting
// an unknown session is a no-op.
func (r *Registry) Delete(sess *Session) {
	if _, ok := r.sessions[sess.InternalID]; !ok {
		return
	}

	for i, open := range r.open {
		if open.InternalID == sess.InternalID {
			r.open = append(r.open[:i], r.open[i+1:]...)
			sess.NotifyDestroyed()
			break
		}
	}

	delete(r.sessions, sess.InternalID)

	if err := r.store.Delete(sess.InternalID); err != nil {
		r.log.Warn("failed to delete session descriptor", "id", sess.InternalID, "error", err)
	}
}

// FindByExternalID returns the session bound to the given hypervisor
// machine identifier, or nil when no session is.
func (r *Registry) FindByExternalID(externalID string) *Session {
	if externalID == "" {
		return nil
	}
	for _, sess := range r.sessions {
		if sess.ExternalID == externalID {
			return sess
		}
	}
	return nil
}

// Get returns the session with the given internal ID, or nil.
func (r *Registry) Get(internalID string) *Session {
	return r.sessions[internalID]
}

// Sessions returns all registered sessions. The slice is a copy; the
// registry keeps ownership of the sessions themselves.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// OpenSessions returns the open index in open order.
func (r *Registry) OpenSessions() []*Session {
	return append([]*Session(nil), r.open...)
}

// Abort aborts every open session and empties the registry, preparing
// for shutdown.
func (r *Registry) Abort() {
	for _, sess := range r.open {
		sess.Abort()
	}
	r.open = nil
	r.sessions = make(map[string]*Session)
}
