// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotHeld is returned when unlocking a lock the caller does not hold.
	ErrNotHeld = errors.New("lock not held")

	// ErrLockTimeout is returned when the context ends before the lock is acquired.
	ErrLockTimeout = errors.New("timed out waiting for lock")
)

// Locker acquires and releases named locks.
// Locks are not reentrant. Implementations must be safe for concurrent use.
type Locker interface {
	// Lock blocks until the named lock is held or ctx is done.
	Lock(ctx context.Context, name string) error

	// Unlock releases the named lock.
	Unlock(ctx context.Context, name string) error
}

// Do runs fn while holding the named lock.
func Do(ctx context.Context, l Locker, name string, fn func(ctx context.Context) error) error {
	if err := l.Lock(ctx, name); err != nil {
		return err
	}
	// Release even when ctx was cancelled during fn.
	defer l.Unlock(context.WithoutCancel(ctx), name)
	return fn(ctx)
}

// Local is an in-process Locker.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

var _ Locker = (*Local)(nil)

// NewLocal creates an in-process Locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Lock blocks until the named lock is free or ctx is done.
func (l *Local) Lock(ctx context.Context, name string) error {
	select {
	case l.slot(name) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrLockTimeout, name, ctx.Err())
	}
}

// Unlock releases the named lock.
func (l *Local) Unlock(_ context.Context, name string) error {
	select {
	case <-l.slot(name):
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNotHeld, name)
	}
}
