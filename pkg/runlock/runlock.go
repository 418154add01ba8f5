// Package runlock serializes pipeline runs that share an output root.
package runlock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotHeld is returned when releasing a lock that is not held (or has
// expired and been taken by someone else).
var ErrNotHeld = errors.New("runlock: lock not held")

// Locker hands out exclusive named locks. Release must be called exactly
// once per successful Acquire.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func() error, err error)
}

// Local locks within one process.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local { return &Local{slots: map[string]chan struct{}{}} }

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.slots == nil {
		l.slots = map[string]chan struct{}{}
	}
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Acquire blocks until name is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, name string) (func() error, error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() error {
		err := ErrNotHeld
		once.Do(func() {
			<-ch
			err = nil
		})
		return err
	}, nil
}
