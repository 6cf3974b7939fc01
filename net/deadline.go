package net

import (
	"os"
	"sync"
	"time"
)

// pollInterval bounds each readiness wait so that Close never waits long for
// an in-flight Read, Write or Accept to let go of the socket.
const pollInterval = 50 * time.Millisecond

// TimeProvider supplies the clock that deadlines are measured against.
// Tests substitute a fixed clock to make deadline expiry deterministic.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the system clock.
type RealTimeProvider struct{}

// Now returns time.Now().
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

var (
	clockMu      sync.RWMutex
	defaultClock TimeProvider = RealTimeProvider{}
)

// SetDefaultTimeProvider replaces the clock used by adapters that have no
// provider of their own. Passing nil restores the system clock.
func SetDefaultTimeProvider(tp TimeProvider) {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	clockMu.Lock()
	defaultClock = tp
	clockMu.Unlock()
}

// clockFor returns tp, or the package default when tp is nil.
func clockFor(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	clockMu.RLock()
	defer clockMu.RUnlock()
	return defaultClock
}

// deadlineState tracks read and write deadlines for an adapter.
type deadlineState struct {
	mu           sync.RWMutex
	read         time.Time
	write        time.Time
	timeProvider TimeProvider
}

func (d *deadlineState) set(read, write bool, t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if read {
		d.read = t
	}
	if write {
		d.write = t
	}
}

func (d *deadlineState) readWait() (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return nextWait(d.timeProvider, d.read)
}

func (d *deadlineState) writeWait() (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return nextWait(d.timeProvider, d.write)
}

func (d *deadlineState) setTimeProvider(tp TimeProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeProvider = tp
}

// nextWait returns how long the next readiness wait may last. A zero
// deadline means no deadline; a past one yields os.ErrDeadlineExceeded.
func nextWait(tp TimeProvider, deadline time.Time) (time.Duration, error) {
	if deadline.IsZero() {
		return pollInterval, nil
	}
	remaining := deadline.Sub(clockFor(tp).Now())
	if remaining <= 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return min(remaining, pollInterval), nil
}
