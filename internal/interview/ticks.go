package interview

import (
	"sync"
	"time"
)

// TickSource delivers clock ticks to subscribers. The returned stop function
// must be safe to call more than once and must not block on a running fn.
type TickSource interface {
	Subscribe(fn func()) (stop func())
}

// IntervalTicks ticks on a wall-clock interval.
type IntervalTicks struct {
	Interval time.Duration
}

func (t IntervalTicks) Subscribe(fn func()) func() {
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualTicks only ticks when Advance is called.
type ManualTicks struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func NewManualTicks() *ManualTicks {
	return &ManualTicks{subs: make(map[int]func())}
}

func (t *ManualTicks) Subscribe(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Advance delivers n ticks to every current subscriber.
func (t *ManualTicks) Advance(n int) {
	for i := 0; i < n; i++ {
		t.mu.Lock()
		fns := make([]func(), 0, len(t.subs))
		for _, fn := range t.subs {
			fns = append(fns, fn)
		}
		t.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (t *ManualTicks) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
