// Package viewport reconciles map widget events with search state.
//
// Bounds updates are debounced behind a single timer that every new event
// resets. User interaction (drag, zoom) is only recognised after the map
// reports its initial load, and it flips two flags synchronously: Dirty, which
// lets the UI offer "search this area" while a destination is active, and
// AutoFitSuppressed, which stops programmatic camera moves until the view is
// reset or a new destination is chosen.
package viewport

import (
	"sync"
	"time"

	"staymap/internal/domain"
)

const DefaultDebounce = 300 * time.Millisecond

type Option func(*Reconciler)

func WithDebounce(d time.Duration) Option { return func(r *Reconciler) { r.debounce = d } }

// WithOnBounds registers a callback for every published bounds snapshot. It
// runs on the timer goroutine without the reconciler lock held.
func WithOnBounds(fn func(domain.MapBounds)) Option { return func(r *Reconciler) { r.onBounds = fn } }

type Reconciler struct {
	mu       sync.Mutex
	debounce time.Duration
	onBounds func(domain.MapBounds)

	timer   *time.Timer
	seq     uint64 // bumped per raw event; a timer only publishes its own seq
	pending domain.MapBounds
	bounds  *domain.MapBounds

	loaded         bool
	hasDestination bool
	dirty          bool
	suppressed     bool
	stopped        bool
}

func New(opts ...Option) *Reconciler {
	r := &Reconciler{debounce: DefaultDebounce}
	for _, o := range opts {
		o(r)
	}
	return r
}

// BoundsChanged records a raw bounds event. Only the last event of a burst
// is published, once the debounce window passes without another one.
func (r *Reconciler) BoundsChanged(b domain.MapBounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.seq++
	r.pending = b
	if r.timer != nil {
		r.timer.Stop()
	}
	seq := r.seq
	r.timer = time.AfterFunc(r.debounce, func() { r.publish(seq) })
}

func (r *Reconciler) publish(seq uint64) {
	r.mu.Lock()
	if r.stopped || seq != r.seq {
		r.mu.Unlock()
		return
	}
	b := r.pending
	r.bounds = &b
	r.timer = nil
	fn := r.onBounds
	r.mu.Unlock()

	if fn != nil {
		fn(b)
	}
}

// MapLoaded arms the drag and zoom listeners.
func (r *Reconciler) MapLoaded() {
	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
}

func (r *Reconciler) DragStart()   { r.userInteraction() }
func (r *Reconciler) ZoomChanged() { r.userInteraction() }

func (r *Reconciler) userInteraction() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return
	}
	r.suppressed = true
	if r.hasDestination {
		r.dirty = true
	}
}

// FitBounds applies a programmatic camera move unless the user has taken
// over the map. It reports whether the move was applied. It never marks the
// view dirty.
func (r *Reconciler) FitBounds(b domain.MapBounds) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suppressed || r.stopped {
		return false
	}
	r.seq++ // drop any pending user-driven bounds
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.bounds = &b
	return true
}

// SetDestination records a fresh destination selection (or its removal) and
// re-enables auto-fit.
func (r *Reconciler) SetDestination(active bool) {
	r.mu.Lock()
	r.hasDestination = active
	r.dirty = false
	r.suppressed = false
	r.mu.Unlock()
}

func (r *Reconciler) ResetView() {
	r.mu.Lock()
	r.dirty = false
	r.suppressed = false
	r.mu.Unlock()
}

// Bounds returns the last published snapshot, nil before the first one.
func (r *Reconciler) Bounds() *domain.MapBounds {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bounds == nil {
		return nil
	}
	b := *r.bounds
	return &b
}

func (r *Reconciler) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

func (r *Reconciler) AutoFitSuppressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}

// Stop cancels the pending timer; later events are ignored.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
