// Package syncer relays Entity Store changes to the document backend and
// applies remote documents back onto the store.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/studyd/internal/logging"
	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/storage"
	"github.com/sandeepkv93/studyd/internal/store"
)

const DefaultDebounce = time.Second

var ErrStopped = errors.New("syncer: engine stopped")

// Keys names the two backend documents of one account.
type Keys struct {
	Data     string
	Settings string
}

func (k Keys) of(kind store.ChangeKind) string {
	if kind == store.ChangeSettings {
		return k.Settings
	}
	return k.Data
}

type Options struct {
	Debounce     time.Duration
	StatusBuffer int
	WriteTimeout time.Duration
	// Origin tags every write so logs can tell devices apart.
	Origin string
	Logger *log.Logger
}

var kinds = []store.ChangeKind{store.ChangeData, store.ChangeSettings}

type docState struct {
	// observed is the newest local store revision the engine has seen.
	observed    uint64
	dirty       bool
	inflight    bool
	lastWritten int64
	parked      *storage.Document
	// seen is set once any version of the key, absent included, has been
	// applied or written.
	seen bool
}

// Engine debounces local changes into full-snapshot writes and applies newer
// remote documents. One goroutine owns the debounce timer; writes are
// serialized by flushMu.
type Engine struct {
	store   *store.Store
	backend storage.DocumentStore
	keys    Keys
	opts    Options
	log     *log.Logger

	mu       sync.Mutex
	docs     map[store.ChangeKind]*docState
	deadline time.Time
	started  bool
	stopped  bool
	unwatch  func()
	unsubs   []func()

	flushMu  sync.Mutex
	out      chan Status
	wakeup   chan struct{}
	stopCh   chan struct{}
	loopDone chan struct{}
	doneCh   chan struct{}
	dropped  uint64
}

func NewEngine(st *store.Store, backend storage.DocumentStore, keys Keys, opts Options) *Engine {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.StatusBuffer <= 0 {
		opts.StatusBuffer = 1
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	docs := make(map[store.ChangeKind]*docState, len(kinds))
	for _, k := range kinds {
		docs[k] = &docState{}
	}
	return &Engine{
		store:    st,
		backend:  backend,
		keys:     keys,
		opts:     opts,
		log:      logging.OrDiscard(opts.Logger).WithPrefix("sync"),
		docs:     docs,
		out:      make(chan Status, opts.StatusBuffer),
		wakeup:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// C delivers status events. It is never closed; select on Done as well.
func (e *Engine) C() <-chan Status {
	return e.out
}

// Done is closed once Stop has finished.
func (e *Engine) Done() <-chan struct{} {
	return e.doneCh
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// Start subscribes to local changes and to both backend documents.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	unwatch := e.store.Subscribe(e.onLocalChange)
	unsubs := make([]func(), 0, len(kinds))
	for _, kind := range kinds {
		kind := kind
		key := e.keys.of(kind)
		unsubs = append(unsubs, e.backend.Subscribe(key,
			func(doc storage.Document) { e.onRemote(kind, doc) },
			func(err error) { e.onSubscribeError(key, err) },
		))
	}

	e.mu.Lock()
	e.unwatch = unwatch
	e.unsubs = unsubs
	e.mu.Unlock()

	go e.loop()
	e.log.Debug("engine started", "data", e.keys.Data, "settings", e.keys.Settings)
}

// Load reads both documents once and applies them so the store is filled
// before the first render. It emits nothing, and later deliveries of the same
// versions are ignored.
func (e *Engine) Load(ctx context.Context) error {
	for _, kind := range kinds {
		key := e.keys.of(kind)
		doc, err := e.backend.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			doc = storage.Document{Key: key}
		} else if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		e.receive(kind, doc, false)
	}
	return nil
}

// Stop flushes pending changes, drops every subscription and ends the loop.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	started := e.started
	unwatch, unsubs := e.unwatch, e.unsubs
	e.unwatch, e.unsubs = nil, nil
	close(e.stopCh)
	e.mu.Unlock()
	defer close(e.doneCh)
	if !started {
		return nil
	}

	<-e.loopDone
	// Store listener first so nothing new turns dirty during the flush.
	if unwatch != nil {
		unwatch()
	}
	err := e.flush(ctx)
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	e.log.Debug("engine stopped", "err", err)
	return err
}

// Flush writes every dirty document now instead of waiting for the timer.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	return e.flush(ctx)
}

// Pending reports whether some local change has not reached the backend,
// including changes whose last write failed.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range e.docs {
		if d.dirty {
			return true
		}
	}
	return false
}

func (e *Engine) onLocalChange(c store.Change) {
	if c.Origin != store.OriginLocal {
		return
	}
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	wasIdle := e.deadline.IsZero()
	d := e.docs[c.Kind]
	d.dirty = true
	if c.Revision > d.observed {
		d.observed = c.Revision
	}
	e.deadline = time.Now().Add(e.opts.Debounce)
	e.signalWakeup()
	e.mu.Unlock()

	if wasIdle {
		e.emit(Status{State: StatePending, Key: e.keys.of(c.Kind)})
	}
}

func (e *Engine) loop() {
	defer close(e.loopDone)

	var timer *time.Timer
	for {
		deadline, armed := e.peek()
		if !armed {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(deadline)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			if e.due(time.Now()) {
				ctx, cancel := context.WithTimeout(context.Background(), e.opts.WriteTimeout)
				_ = e.flush(ctx)
				cancel()
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deadline, !e.deadline.IsZero()
}

// due reports whether the armed deadline has passed. A mutation that re-armed
// the timer while it was firing pushes the deadline out again.
func (e *Engine) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.deadline.IsZero() && !now.Before(e.deadline)
}

type writeResult struct {
	kind store.ChangeKind
	doc  storage.Document
	err  error
}

func (e *Engine) flush(ctx context.Context) error {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	e.mu.Lock()
	e.deadline = time.Time{}
	pending := make([]store.ChangeKind, 0, len(kinds))
	for _, kind := range kinds {
		d := e.docs[kind]
		if !d.dirty {
			continue
		}
		d.dirty = false
		d.inflight = true
		pending = append(pending, kind)
	}
	e.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	snap := e.store.Snapshot()
	e.emit(Status{State: StateSyncing})

	results := make([]writeResult, len(pending))
	var g errgroup.Group
	for i, kind := range pending {
		i, kind := i, kind
		g.Go(func() error {
			key := e.keys.of(kind)
			body, err := encode(kind, snap)
			if err == nil {
				results[i].doc, err = e.backend.Set(ctx, key, body, e.opts.Origin)
			}
			results[i].kind = kind
			results[i].err = err
			return err
		})
	}
	err := g.Wait()

	parked := make([]writeResult, 0)
	e.mu.Lock()
	for _, res := range results {
		d := e.docs[res.kind]
		d.inflight = false
		if res.err != nil {
			// Stays dirty without a timer; the next local change re-arms it.
			d.dirty = true
		} else {
			d.seen = true
			if res.doc.Version > d.lastWritten {
				d.lastWritten = res.doc.Version
			}
		}
		if d.parked != nil {
			parked = append(parked, writeResult{kind: res.kind, doc: *d.parked})
			d.parked = nil
		}
	}
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("write failed", "err", err)
		e.emit(Status{State: StateFailed, Err: err})
	} else {
		e.log.Debug("write done", "docs", len(results), "revision", snap.Revision)
		e.emit(Status{State: StateSynced})
	}

	for _, p := range parked {
		e.onRemote(p.kind, p.doc)
	}
	return err
}

func encode(kind store.ChangeKind, snap store.Snapshot) ([]byte, error) {
	if kind == store.ChangeSettings {
		return model.EncodeSettings(snap.Settings)
	}
	return json.Marshal(snap.Data)
}

// onRemote applies a backend document unless it is our own echo or older
// than what we last wrote. While a write for the same key is in flight the
// document waits until the write reports its version.
func (e *Engine) onRemote(kind store.ChangeKind, doc storage.Document) {
	e.receive(kind, doc, true)
}

// receive is onRemote with the StateReceived event optional.
func (e *Engine) receive(kind store.ChangeKind, doc storage.Document, announce bool) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	d := e.docs[kind]
	if d.inflight {
		if d.parked == nil || doc.Version > d.parked.Version {
			parked := doc
			d.parked = &parked
		}
		e.mu.Unlock()
		return
	}
	if doc.Exists() && doc.Version <= d.lastWritten {
		e.mu.Unlock()
		return
	}
	if !doc.Exists() && (d.seen || d.dirty || d.lastWritten > 0) {
		e.mu.Unlock()
		return
	}
	d.seen = true
	d.dirty = false
	if d.lastWritten < doc.Version {
		d.lastWritten = doc.Version
	}
	since := d.observed
	e.mu.Unlock()

	applied, err := e.apply(kind, doc, since)
	if err != nil {
		e.log.Error("decode remote document", "key", doc.Key, "err", err)
		e.emit(Status{State: StateFailed, Key: doc.Key, Err: err})
		return
	}
	if !applied {
		// A local change landed first; it is dirty and will be written.
		e.log.Debug("remote superseded by local change", "key", doc.Key, "version", doc.Version)
		return
	}
	e.log.Debug("remote applied", "key", doc.Key, "version", doc.Version, "origin", doc.Origin)
	if announce {
		e.emit(Status{State: StateReceived, Key: doc.Key})
	}
}

func (e *Engine) apply(kind store.ChangeKind, doc storage.Document, since uint64) (bool, error) {
	if kind == store.ChangeSettings {
		settings := model.DefaultSettings()
		if doc.Exists() {
			decoded, err := model.DecodeSettings(doc.Body)
			if err != nil {
				return false, err
			}
			settings = decoded
		}
		return e.store.ApplyRemoteSettings(settings, since), nil
	}

	data := model.NewDataDocument()
	if doc.Exists() {
		if err := json.Unmarshal(doc.Body, &data); err != nil {
			return false, fmt.Errorf("decode %s: %w", doc.Key, err)
		}
	}
	return e.store.ApplyRemoteData(data, since), nil
}

func (e *Engine) onSubscribeError(key string, err error) {
	e.log.Warn("subscription error", "key", key, "err", err)
	e.emit(Status{State: StateSubscribeFailed, Key: key, Err: err})
}

func (e *Engine) emit(s Status) {
	if s.At.IsZero() {
		s.At = time.Now()
	}
	select {
	case e.out <- s:
	default:
		atomic.AddUint64(&e.dropped, 1)
	}
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
