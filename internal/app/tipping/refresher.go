package tipping

import (
	"context"
	"sync"
	"time"
)

const DefaultRefreshInterval = 30 * time.Second

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Refresher runs tick on every interval until stopped. Ticks run on the loop
// goroutine, so at most one is in flight at a time.
type Refresher struct {
	interval  time.Duration
	newTicker TickerFunc
	tick      func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRefresher(interval time.Duration, newTicker TickerFunc, tick func(ctx context.Context)) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Refresher{
		interval:  interval,
		newTicker: newTicker,
		tick:      tick,
	}
}

// Start launches the loop. It returns false if the loop is already running.
func (r *Refresher) Start(parent context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	ticker := r.newTicker(r.interval)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if ctx.Err() != nil {
					return
				}
				r.tick(ctx)
			}
		}
	}()
	return true
}

// Stop cancels the loop and waits for it to exit. No tick starts after Stop
// returns. Stop must not be called from inside tick.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}
