package core

import (
	"fmt"
	"sync"
)

// ErrGenerationInProgress is returned when a turn is started while another
// one is still streaming. Callers present it as a "please wait" message.
var ErrGenerationInProgress = fmt.Errorf("a generation is already in progress")

// TargetLock claims the active notebook target for the duration of one
// turn. It replaces ambient module-level state with an explicit handle:
// acquire at prompt submission, release in a deferred path, and fail fast
// with a distinguishable error instead of interleaving two streams.
type TargetLock struct {
	mu     sync.Mutex
	held   bool
	target string
}

// Acquire claims the lock for target. It never blocks: a second turn while
// one is in flight is an error, with the held target named when it differs.
func (l *TargetLock) Acquire(target string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		if l.target != target {
			return fmt.Errorf("%w for %s", ErrGenerationInProgress, l.target)
		}
		return ErrGenerationInProgress
	}
	l.held = true
	l.target = target
	return nil
}

// Release frees the lock. Releasing an unheld lock is a no-op so cleanup
// paths can call it unconditionally.
func (l *TargetLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.target = ""
}

// Held reports whether a turn currently owns the lock.
func (l *TargetLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
