package calendarsync

import (
	"context"
	"sync"
	"time"
)

type timer interface {
	Stop() bool
}

// AfterFunc matches time.AfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer { return time.AfterFunc(d, f) }

// ApplyFunc receives the surviving update for a listing.
type ApplyFunc func(ctx context.Context, u Update)

type pending struct {
	update Update
	timer  timer
}

// Debouncer coalesces updates per listing. Each accepted update restarts the
// listing's window; when the window elapses the newest update is applied.
type Debouncer struct {
	delay     time.Duration
	apply     ApplyFunc
	afterFunc AfterFunc
	onDrop    func(Update)

	mu      sync.Mutex
	ctx     context.Context
	pending map[string]*pending
	wg      sync.WaitGroup
	closed  bool
}

func NewDebouncer(ctx context.Context, delay time.Duration, apply ApplyFunc) *Debouncer {
	return &Debouncer{
		delay:     delay,
		apply:     apply,
		afterFunc: realAfterFunc,
		ctx:       ctx,
		pending:   make(map[string]*pending),
	}
}

// WithAfterFunc swaps the timer source.
func (d *Debouncer) WithAfterFunc(f AfterFunc) *Debouncer {
	d.afterFunc = f
	return d
}

// OnDrop registers a callback for updates discarded in favour of a newer one.
func (d *Debouncer) OnDrop(f func(Update)) *Debouncer {
	d.onDrop = f
	return d
}

// Submit queues u. An update whose sequence is not newer than the queued one
// for the same listing is dropped and does not extend the window.
func (d *Debouncer) Submit(u Update) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if p, ok := d.pending[u.ListingID]; ok {
		if u.Sequence <= p.update.Sequence {
			d.mu.Unlock()
			d.dropped(u)
			return
		}
		p.timer.Stop()
		replaced := p.update
		p.update = u
		p.timer = d.schedule(u.ListingID)
		d.mu.Unlock()
		d.dropped(replaced)
		return
	}
	if d.delay <= 0 {
		d.wg.Add(1)
		d.mu.Unlock()
		go func() {
			defer d.wg.Done()
			d.apply(d.ctx, u)
		}()
		return
	}
	d.pending[u.ListingID] = &pending{update: u, timer: d.schedule(u.ListingID)}
	d.mu.Unlock()
}

// schedule must be called with d.mu held.
func (d *Debouncer) schedule(listingID string) timer {
	return d.afterFunc(d.delay, func() { d.fire(listingID) })
}

func (d *Debouncer) fire(listingID string) {
	d.mu.Lock()
	p, ok := d.pending[listingID]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, listingID)
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	d.apply(d.ctx, p.update)
}

func (d *Debouncer) dropped(u Update) {
	if d.onDrop != nil {
		d.onDrop(u)
	}
}

// Pending reports how many listings have a queued update.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close stops accepting updates, applies whatever is queued using ctx and
// waits for in-flight applies.
func (d *Debouncer) Close(ctx context.Context) {
	d.mu.Lock()
	d.closed = true
	queued := make([]Update, 0, len(d.pending))
	for id, p := range d.pending {
		p.timer.Stop()
		queued = append(queued, p.update)
		delete(d.pending, id)
	}
	d.mu.Unlock()

	for _, u := range queued {
		d.apply(ctx, u)
	}
	d.wg.Wait()
}
