package collection

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/target/crud-console/internal/apiclient"
	apperrors "github.com/target/crud-console/internal/errors"
)

// DetailsOptions configures a Details view.
type DetailsOptions[T any] struct {
	// Validate runs before Update reaches the backend. Defaults to the
	// record's Validate method when it has one.
	Validate func(T) error
	// OnLoaded receives each successfully fetched record.
	OnLoaded func(T)
	// OnError receives every failed operation's error.
	OnError func(error)
	Logger  *slog.Logger
}

// Details tracks one selected record. Safe for concurrent use.
type Details[T any, K apiclient.Key] struct {
	backend  DetailsBackend[T, K]
	validate func(T) error
	onLoaded func(T)
	onError  func(error)
	logger   *slog.Logger

	mutating atomic.Bool

	mu        sync.RWMutex
	id        K
	selected  bool
	gen       uint64
	record    T
	hasRecord bool
	state     State
	inflight  int
	err       error
	message   string
}

// NewDetails builds a Details view with nothing selected. It performs no I/O.
func NewDetails[T any, K apiclient.Key](backend DetailsBackend[T, K], opts DetailsOptions[T]) *Details[T, K] {
	validate := opts.Validate
	if validate == nil {
		validate = defaultValidate[T]()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Details[T, K]{
		backend:  backend,
		validate: validate,
		onLoaded: opts.OnLoaded,
		onError:  opts.OnError,
		logger:   logger,
	}
}

// Select points the view at id and fetches it. The zero id clears the
// selection without I/O. Selecting the current id again is a no-op.
func (d *Details[T, K]) Select(ctx context.Context, id K) error {
	var zero K
	d.mu.Lock()
	if id == zero {
		d.gen++
		d.id, d.selected = zero, false
		d.clearRecordLocked()
		d.err, d.message = nil, ""
		d.state = StateIdle
		d.mu.Unlock()
		return nil
	}
	if d.selected && d.id == id {
		d.mu.Unlock()
		return nil
	}
	d.gen++
	d.id, d.selected = id, true
	d.clearRecordLocked()
	gen := d.gen
	d.mu.Unlock()

	return d.fetch(ctx, id, gen)
}

// Refresh re-fetches the selected record. Without a selection it does nothing.
func (d *Details[T, K]) Refresh(ctx context.Context) error {
	d.mu.RLock()
	id, selected, gen := d.id, d.selected, d.gen
	d.mu.RUnlock()
	if !selected {
		return nil
	}
	return d.fetch(ctx, id, gen)
}

// Update puts rec at the selected id and stores the canonical record.
func (d *Details[T, K]) Update(ctx context.Context, rec T) (T, error) {
	var zero T
	if !d.mutating.CompareAndSwap(false, true) {
		return zero, apperrors.Busy(MsgBusy)
	}
	defer d.mutating.Store(false)

	d.mu.Lock()
	id, selected, gen := d.id, d.selected, d.gen
	if !selected {
		d.mu.Unlock()
		return zero, apperrors.Validation(MsgNoSelection)
	}
	d.beginLocked()
	d.mu.Unlock()

	if err := d.validate(rec); err != nil {
		d.fail(ctx, err, MsgUpdateFailed)
		return zero, err
	}
	updated, err := d.backend.Update(ctx, id, rec)
	if err != nil {
		d.fail(ctx, err, MsgUpdateFailed)
		return zero, err
	}

	d.mu.Lock()
	if d.gen == gen {
		d.record, d.hasRecord = updated, true
	}
	d.succeedLocked()
	d.mu.Unlock()
	return updated, nil
}

// Record returns the loaded record, if any.
func (d *Details[T, K]) Record() (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.record, d.hasRecord
}

// ID returns the selected identifier, if any.
func (d *Details[T, K]) ID() (K, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id, d.selected
}

// State returns the lifecycle state of the latest operation.
func (d *Details[T, K]) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Loading reports whether a fetch or update is in flight.
func (d *Details[T, K]) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.inflight > 0
}

// Err returns the error of the latest failed operation, or nil.
func (d *Details[T, K]) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// ErrorMessage returns the display message of the latest failure, or "".
func (d *Details[T, K]) ErrorMessage() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.message
}

// ResetError clears the stored failure.
func (d *Details[T, K]) ResetError() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err, d.message = nil, ""
	if d.state == StateFailed {
		d.state = StateIdle
	}
}

// fetch loads id and stores it only if the selection has not moved on.
func (d *Details[T, K]) fetch(ctx context.Context, id K, gen uint64) error {
	d.mu.Lock()
	d.beginLocked()
	d.mu.Unlock()

	rec, err := d.backend.Get(ctx, id)
	if err != nil {
		d.mu.Lock()
		stale := d.gen != gen
		if stale {
			d.settleStaleLocked()
		}
		d.mu.Unlock()
		if stale {
			d.logger.DebugContext(ctx, "discarding stale fetch error", "id", apiclient.KeyString(id), "error", err)
			return nil
		}
		d.fail(ctx, err, MsgLoadOne)
		return err
	}

	d.mu.Lock()
	stale := d.gen != gen
	if stale {
		d.settleStaleLocked()
	} else {
		d.record, d.hasRecord = rec, true
		d.succeedLocked()
	}
	d.mu.Unlock()

	if stale {
		d.logger.DebugContext(ctx, "discarding stale record", "id", apiclient.KeyString(id))
		return nil
	}
	if d.onLoaded != nil {
		d.onLoaded(rec)
	}
	return nil
}

func (d *Details[T, K]) clearRecordLocked() {
	var zero T
	d.record, d.hasRecord = zero, false
}

func (d *Details[T, K]) beginLocked() {
	d.inflight++
	d.state = StateLoading
}

func (d *Details[T, K]) succeedLocked() {
	d.inflight--
	d.err, d.message = nil, ""
	if d.inflight == 0 {
		d.state = StateReady
	}
}

// settleStaleLocked retires a superseded fetch without touching the outcome
// recorded for the current selection.
func (d *Details[T, K]) settleStaleLocked() {
	d.inflight--
	if d.inflight == 0 && d.state == StateLoading {
		d.state = StateReady
	}
}

func (d *Details[T, K]) fail(ctx context.Context, err error, fallback string) {
	msg := apperrors.UserMessage(err, fallback)
	d.mu.Lock()
	d.inflight--
	d.err, d.message = err, msg
	d.state = StateFailed
	d.mu.Unlock()

	d.logger.WarnContext(ctx, "record operation failed", "message", msg, "error", err)
	if d.onError != nil {
		d.onError(err)
	}
}
