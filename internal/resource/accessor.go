package resource

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle position of a named resource.
type State int

const (
	Unopened State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unopened"
	}
}

// Result is the outcome of Acquire: a descriptor or a typed failure.
type Result struct {
	Descriptor *Descriptor
	Err        error
}

// OK reports whether the acquisition succeeded.
func (r Result) OK() bool { return r.Err == nil && r.Descriptor != nil }

// Reason classifies the failure, ReasonNone on success.
func (r Result) Reason() FailureReason { return Reason(r.Err) }

// Accessor acquires and releases descriptors through a Manager and records
// the lifecycle of every name it has seen.
type Accessor struct {
	mgr    Manager
	logger zerolog.Logger

	mu     sync.Mutex
	states map[string]State
}

// NewAccessor returns an Accessor over mgr.
func NewAccessor(mgr Manager, logger zerolog.Logger) *Accessor {
	return &Accessor{
		mgr:    mgr,
		logger: logger,
		states: make(map[string]State),
	}
}

// State reports the lifecycle state of name.
func (a *Accessor) State(name string) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.states[name]
}

// Names lists the bundled resources the manager can serve.
func (a *Accessor) Names(ctx context.Context) ([]string, error) {
	return a.mgr.List(ctx)
}

// Acquire opens name. Failures are logged and returned in the Result; Acquire
// never panics on a manager error.
func (a *Accessor) Acquire(ctx context.Context, name string) Result {
	if a.State(name) == Open {
		a.logger.Warn().Str("name", name).Msg("getRawFd on a descriptor that is already open")
		return Result{Err: ErrAlreadyOpen}
	}

	d, err := a.mgr.GetRawFd(ctx, name)
	if err != nil {
		a.logger.Error().Err(err).
			Str("name", name).
			Stringer("reason", Reason(err)).
			Msg("getRawFd failed")
		return Result{Err: err}
	}
	d.Lease = uuid.NewString()

	a.mu.Lock()
	a.states[name] = Open
	a.mu.Unlock()

	a.logger.Info().
		Str("name", name).
		Str("lease", d.Lease).
		Int("fd", d.FD).
		Int64("offset", d.Offset).
		Int64("length", d.Length).
		Msg("getRawFd success")
	return Result{Descriptor: &d}
}

// Release closes name. Releasing a name that is not open is a no-op that
// logs a warning and returns nil. An issued close is not cancelled by ctx, and
// the name stays Open if the manager fails to close it.
func (a *Accessor) Release(ctx context.Context, name string) error {
	if state := a.State(name); state != Open {
		a.logger.Warn().Str("name", name).Stringer("state", state).Msg("closeRawFd without an open descriptor")
		return nil
	}

	err := a.mgr.CloseRawFd(context.WithoutCancel(ctx), name)
	if err != nil && !errors.Is(err, ErrNotOpen) {
		a.logger.Error().Err(err).
			Str("name", name).
			Stringer("reason", Reason(err)).
			Msg("closeRawFd failed")
		return err
	}

	a.mu.Lock()
	a.states[name] = Closed
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn().Str("name", name).Msg("closeRawFd on a descriptor the manager already closed")
		return nil
	}
	a.logger.Info().Str("name", name).Msg("closeRawFd success")
	return nil
}

// ReleaseAll closes every descriptor this accessor still holds.
func (a *Accessor) ReleaseAll(ctx context.Context) {
	a.mu.Lock()
	var open []string
	for name, s := range a.states {
		if s == Open {
			open = append(open, name)
		}
	}
	a.mu.Unlock()

	for _, name := range open {
		_ = a.Release(ctx, name)
	}
}

// OpenFileDescriptor is the never-failing form of Acquire: it returns nil
// when the resource could not be opened. The reason is only in the log.
func (a *Accessor) OpenFileDescriptor(ctx context.Context, name string) *Descriptor {
	res := a.Acquire(ctx, name)
	if !res.OK() {
		return nil
	}
	return res.Descriptor
}

// CloseFileDescriptor is the never-failing form of Release.
func (a *Accessor) CloseFileDescriptor(ctx context.Context, name string) {
	_ = a.Release(ctx, name)
}
