// Package countdown turns the time left until a go-live instant into a
// once-per-second stream of days, hours, minutes and seconds.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const interval = time.Second

const day = 24 * time.Hour

type Remaining struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// Decompose splits d into whole units. Durations at or below zero yield all
// zero units.
func Decompose(d time.Duration) Remaining {
	if d <= 0 {
		return Remaining{}
	}
	return Remaining{
		Days:    int64(d / day),
		Hours:   int64(d % day / time.Hour),
		Minutes: int64(d % time.Hour / time.Minute),
		Seconds: int64(d % time.Minute / time.Second),
	}
}

func (r Remaining) String() string {
	return fmt.Sprintf("%ddays %dhrs %dmins %dsecs", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// Tick is one update of a running Timer. The last tick has Elapsed set and
// zero units.
type Tick struct {
	At        time.Time
	Remaining Remaining
	Elapsed   bool
}

// Timer delivers ticks on C until the target passes or Stop is called, then
// closes C
type Timer struct {
	C <-chan Tick

	c        chan Tick
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start emits a tick right away and then once per clock second
func Start(clk clock.Clock, target time.Time) *Timer {
	c := make(chan Tick, 1)
	t := &Timer{
		C:    c,
		c:    c,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// The ticker must exist before Start returns so a mock clock advanced
	// right after Start reaches it.
	ticker := clk.Ticker(interval)
	go t.run(clk, ticker, target)

	return t
}

func (t *Timer) run(clk clock.Clock, ticker *clock.Ticker, target time.Time) {
	defer close(t.done)
	defer close(t.c)
	defer ticker.Stop()

	if !t.emit(clk.Now(), target) {
		return
	}
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if !t.emit(clk.Now(), target) {
				return
			}
		}
	}
}

// emit reports whether the timer should keep running
func (t *Timer) emit(now, target time.Time) bool {
	left := target.Sub(now)
	tick := Tick{At: now}
	if left <= 0 {
		tick.Elapsed = true
	} else {
		tick.Remaining = Decompose(left)
	}

	select {
	case t.c <- tick:
	case <-t.stop:
		return false
	}
	return !tick.Elapsed
}

// Stop releases the ticker and waits for the timer goroutine to exit. It is
// safe to call more than once and after the timer has elapsed.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Done is closed once the timer goroutine has exited
func (t *Timer) Done() <-chan struct{} {
	return t.done
}
