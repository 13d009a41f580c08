package session

import (
	"strings"
	"time"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
	"github.com/vboxkit/vboxkit/internal/progress"
)

// State is a session's lifecycle state. Missing means the session exists
// as a descriptor but its machine is gone from the hypervisor.
type State string

const (
	StateMissing    State = "missing"
	StateCreated    State = "created"
	StatePoweredOff State = "poweredoff"
	StateSaved      State = "saved"
	StatePaused     State = "paused"
	StateRunning    State = "running"
	StateAborted    State = "aborted"
)

// Descriptor is the persisted form of a session. Name and UUID are
// required; a descriptor missing either is rejected at load time.
type Descriptor struct {
	UUID       string            `json:"uuid"`
	ExternalID string            `json:"external_id,omitempty"`
	Name       string            `json:"name"`
	State      State             `json:"state"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Hypervisor is the slice of the command adapter the session layer needs.
// Implemented by hypervisor.Instance.
type Hypervisor interface {
	// ListVMs returns the live machine enumeration as externalId -> name.
	ListVMs() (map[string]string, error)

	// MachineInfo returns the machine info dump as a key/value map. A
	// tool failure is reported through the hypervisor.InfoErrorKey
	// sentinel entry carrying the exit code, so callers can tell "not
	// found" from "tool broken".
	MachineInfo(externalID string, timeout time.Duration) (map[string]string, error)

	// Lock acquires a named exclusive lock and returns its release.
	Lock(name string) func()
}

// Session is one managed virtual-machine handle. The registry is its sole
// owner; the open-session index references it by identity. Mutations are
// serialized by the caller.
type Session struct {
	// InternalID is the engine-assigned identity, stable for the life of
	// the descriptor.
	InternalID string

	// ExternalID is the hypervisor-assigned machine identifier, empty
	// until the machine is created.
	ExternalID string

	// Name is the user-facing display name.
	Name string

	// State is the last observed lifecycle state.
	State State

	// Parameters carries caller-supplied configuration for the machine.
	Parameters map[string]string

	hv       Hypervisor
	pf       progress.Task
	openRefs int
}

// newSession builds a session from a loaded or freshly created descriptor.
func newSession(d *Descriptor, hv Hypervisor) *Session {
	params := d.Parameters
	if params == nil {
		params = make(map[string]string)
	}
	state := d.State
	if state == "" {
		state = StateMissing
	}
	return &Session{
		InternalID: d.UUID,
		ExternalID: d.ExternalID,
		Name:       d.Name,
		State:      state,
		Parameters: params,
		hv:         hv,
		pf:         progress.Discard,
	}
}

// Descriptor returns the persistable form of the session.
func (s *Session) Descriptor() *Descriptor {
	return &Descriptor{
		UUID:       s.InternalID,
		ExternalID: s.ExternalID,
		Name:       s.Name,
		State:      s.State,
		Parameters: s.Parameters,
	}
}

// OpenRefs returns the current checkout count.
func (s *Session) OpenRefs() int {
	return s.openRefs
}

// UseProgress attaches the progress task that state transitions report
// through. A nil task detaches.
func (s *Session) UseProgress(pf progress.Task) {
	if pf == nil {
		pf = progress.Discard
	}
	s.pf = pf
}

// Refresh polls the hypervisor for the machine's current state. A session
// with no bound machine, or whose machine the tool no longer knows, moves
// to Missing.
func (s *Session) Refresh() {
	if s.ExternalID == "" {
		s.State = StateMissing
		return
	}

	info, err := s.hv.MachineInfo(s.ExternalID, 0)
	if err != nil {
		return
	}
	if _, failed := info[hypervisor.InfoErrorKey]; failed {
		s.State = StateMissing
		return
	}
	s.State = stateFromInfo(info["State"])
}

// stateFromInfo maps a machine info "State" value, e.g.
// "running (since 2014-06-11T10:04:48)", to a lifecycle state.
func stateFromInfo(value string) State {
	value = strings.ToLower(value)
	switch {
	case strings.HasPrefix(value, "running"):
		return StateRunning
	case strings.HasPrefix(value, "saved"):
		return StateSaved
	case strings.HasPrefix(value, "paused"):
		return StatePaused
	case strings.HasPrefix(value, "powered off"):
		return StatePoweredOff
	case strings.HasPrefix(value, "aborted"):
		return StateAborted
	}
	return StateCreated
}

// Abort stops any in-flight session activity and detaches progress
// plumbing. Called when the last checkout is released or at shutdown.
func (s *Session) Abort() {
	s.pf = progress.Discard
}

// NotifyDestroyed tells the session its machine was destroyed behind the
// engine's back. The external binding is dropped so the identifier can be
// reused by the hypervisor.
func (s *Session) NotifyDestroyed() {
	s.State = StateMissing
	s.ExternalID = ""
}
