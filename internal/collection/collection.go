package collection

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/target/crud-console/internal/apiclient"
	apperrors "github.com/target/crud-console/internal/errors"
)

// Options configures a Collection.
type Options[T any, K apiclient.Key] struct {
	// InitialData seeds the snapshot before the first fetch.
	InitialData []T
	// KeyFunc extracts the identifier. Defaults to ResourceKey(), then a
	// json:"id" or ID field.
	KeyFunc func(T) K
	// Validate runs before Create reaches the backend. Defaults to the
	// record's Validate method when it has one.
	Validate func(T) error
	// OnLoaded receives the sorted snapshot after each successful fetch.
	OnLoaded func([]T)
	// OnError receives every failed operation's error.
	OnError func(error)
	Logger  *slog.Logger
}

// Collection is a local copy of a remote collection keyed by identifier.
// Successful remote mutations are mirrored into the snapshot; failures leave
// it untouched and record a display message. Safe for concurrent use.
type Collection[T any, K apiclient.Key] struct {
	backend  Backend[T, K]
	keyOf    func(T) K
	validate func(T) error
	onLoaded func([]T)
	onError  func(error)
	logger   *slog.Logger

	fetches  singleflight.Group
	mutating atomic.Bool

	mu       sync.RWMutex
	items    map[string]T
	state    State
	inflight int
	err      error
	message  string
}

// New builds a Collection over backend. It performs no I/O. New panics when
// no identifier extractor can be derived for T and opts.KeyFunc is nil.
func New[T any, K apiclient.Key](backend Backend[T, K], opts Options[T, K]) *Collection[T, K] {
	keyOf := opts.KeyFunc
	if keyOf == nil {
		fn, err := defaultKeyFunc[T, K]()
		if err != nil {
			panic(err)
		}
		keyOf = fn
	}
	validate := opts.Validate
	if validate == nil {
		validate = defaultValidate[T]()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Collection[T, K]{
		backend:  backend,
		keyOf:    keyOf,
		validate: validate,
		onLoaded: opts.OnLoaded,
		onError:  opts.OnError,
		logger:   logger,
		items:    make(map[string]T, len(opts.InitialData)),
	}
	for _, rec := range opts.InitialData {
		c.items[apiclient.KeyString(keyOf(rec))] = rec
	}
	return c
}

// FetchAll replaces the snapshot with the backend's current contents.
// Concurrent callers share a single round-trip. The shared request is not
// tied to any one caller's cancellation; a caller whose ctx ends stops
// waiting and fails with ErrCodeCanceled while the others still receive
// the result.
func (c *Collection[T, K]) FetchAll(ctx context.Context) error {
	c.begin()
	ch := c.fetches.DoChan("list", func() (any, error) {
		return c.backend.List(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		err := apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "fetch canceled")
		c.fail(ctx, err, MsgLoadFailed)
		return err
	}
	if res.Err != nil {
		c.fail(ctx, res.Err, MsgLoadFailed)
		return res.Err
	}

	items, _ := res.Val.([]T)
	c.mu.Lock()
	c.items = make(map[string]T, len(items))
	for _, rec := range items {
		c.items[apiclient.KeyString(c.keyOf(rec))] = rec
	}
	c.succeedLocked()
	snapshot := c.sortedLocked()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "collection loaded", "count", len(snapshot), "shared", res.Shared)
	if c.onLoaded != nil {
		c.onLoaded(snapshot)
	}
	return nil
}

// Create validates rec, posts it and inserts the canonical record.
func (c *Collection[T, K]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := c.acquire(); err != nil {
		return zero, err
	}
	defer c.release()

	c.begin()
	if err := c.validate(rec); err != nil {
		c.fail(ctx, err, MsgCreateFailed)
		return zero, err
	}
	created, err := c.backend.Create(ctx, rec)
	if err != nil {
		c.fail(ctx, err, MsgCreateFailed)
		return zero, err
	}
	var noKey K
	key := c.keyOf(created)
	if key == noKey {
		err := apperrors.New(apperrors.ErrCodeDecode, "created record has no identifier")
		c.fail(ctx, err, MsgCreateFailed)
		return zero, err
	}

	c.mu.Lock()
	c.items[apiclient.KeyString(key)] = created
	c.succeedLocked()
	c.mu.Unlock()
	return created, nil
}

// Update puts rec at id. On success the snapshot entry for id is replaced by
// the canonical record; an absent id leaves the snapshot unchanged.
func (c *Collection[T, K]) Update(ctx context.Context, id K, rec T) (T, error) {
	var zero T
	if err := c.acquire(); err != nil {
		return zero, err
	}
	defer c.release()

	c.begin()
	if err := c.validate(rec); err != nil {
		c.fail(ctx, err, MsgUpdateFailed)
		return zero, err
	}
	updated, err := c.backend.Update(ctx, id, rec)
	if err != nil {
		c.fail(ctx, err, MsgUpdateFailed)
		return zero, err
	}

	key := apiclient.KeyString(id)
	c.mu.Lock()
	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		c.items[apiclient.KeyString(c.keyOf(updated))] = updated
	}
	c.succeedLocked()
	c.mu.Unlock()
	return updated, nil
}

// Delete removes id remotely and then locally.
func (c *Collection[T, K]) Delete(ctx context.Context, id K) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.begin()
	if err := c.backend.Delete(ctx, id); err != nil {
		c.fail(ctx, err, MsgDeleteFailed)
		return err
	}

	c.mu.Lock()
	delete(c.items, apiclient.KeyString(id))
	c.succeedLocked()
	c.mu.Unlock()
	return nil
}

// Get looks id up in the local snapshot.
func (c *Collection[T, K]) Get(id K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.items[apiclient.KeyString(id)]
	return rec, ok
}

// Items returns the snapshot ordered by the string form of each identifier,
// compared byte-wise. Numeric keys therefore order as text ("10" < "2").
func (c *Collection[T, K]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

// Len returns the number of records in the snapshot.
func (c *Collection[T, K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Replace overwrites the snapshot without contacting the backend.
func (c *Collection[T, K]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]T, len(items))
	for _, rec := range items {
		c.items[apiclient.KeyString(c.keyOf(rec))] = rec
	}
}

// State returns the lifecycle state of the latest operation.
func (c *Collection[T, K]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Loading reports whether any operation is in flight.
func (c *Collection[T, K]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

// Err returns the error of the latest failed operation, or nil.
func (c *Collection[T, K]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// ErrorMessage returns the display message of the latest failure, or "".
func (c *Collection[T, K]) ErrorMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message
}

// ResetError clears the stored failure.
func (c *Collection[T, K]) ResetError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	c.message = ""
	if c.state == StateFailed {
		c.state = StateIdle
	}
}

func (c *Collection[T, K]) acquire() error {
	if !c.mutating.CompareAndSwap(false, true) {
		return apperrors.Busy(MsgBusy)
	}
	return nil
}

func (c *Collection[T, K]) release() { c.mutating.Store(false) }

func (c *Collection[T, K]) begin() {
	c.mu.Lock()
	c.inflight++
	c.state = StateLoading
	c.mu.Unlock()
}

func (c *Collection[T, K]) succeedLocked() {
	c.inflight--
	c.err = nil
	c.message = ""
	if c.inflight == 0 {
		c.state = StateReady
	}
}

func (c *Collection[T, K]) fail(ctx context.Context, err error, fallback string) {
	msg := apperrors.UserMessage(err, fallback)
	c.mu.Lock()
	c.inflight--
	c.err = err
	c.message = msg
	c.state = StateFailed
	c.mu.Unlock()

	c.logger.WarnContext(ctx, "collection operation failed", "message", msg, "error", err)
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Collection[T, K]) sortedLocked() []T {
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, len(keys))
	for i, k := range keys {
		out[i] = c.items[k]
	}
	return out
}
