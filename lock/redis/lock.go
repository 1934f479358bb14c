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

package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/poiesic/transcriptdb/lock"
	"github.com/redis/go-redis/v9"
)

var _ lock.Locker = (*Lock)(nil)

const (
	lockPrefix = "transcriptdb:lock:"

	// DefaultTTL is how long a lock survives without being extended.
	DefaultTTL = 30 * time.Second

	// DefaultRetryInterval is how often a blocked Lock retries.
	DefaultRetryInterval = 100 * time.Millisecond
)

// Lock implements lock.Locker using Redis SETNX with TTL.
// It uses a unique owner ID to prevent accidental release by other instances,
// and keeps held locks alive by extending their TTL until Unlock.
type Lock struct {
	client        *redis.Client
	ownerID       string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *slog.Logger

	mu   sync.Mutex
	held map[string]chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Lock.
type Option func(*Lock)

// WithTTL sets the lock TTL.
func WithTTL(ttl time.Duration) Option {
	return func(l *Lock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval sets how often a blocked Lock retries.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lock) {
		l.logger = logger
	}
}

// NewLock creates a new Redis-backed lock.
// The owner ID is automatically generated to uniquely identify this instance.
func NewLock(client *redis.Client, opts ...Option) *Lock {
	l := &Lock{
		client:        client,
		ownerID:       generateOwnerID(),
		ttl:           DefaultTTL,
		retryInterval: DefaultRetryInterval,
		logger:        slog.Default(),
		held:          make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "redis-lock")
	return l
}

// generateOwnerID creates a unique identifier for this lock holder.
// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// TryLock attempts to acquire the named lock once.
// Returns true if acquired, false if already held by anyone, including this instance.
func (l *Lock) TryLock(ctx context.Context, name string) (bool, error) {
	acquired, err := l.client.SetNX(ctx, lockPrefix+name, l.ownerID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if acquired {
		l.startKeepAlive(name)
	}
	return acquired, nil
}

// Lock polls until the named lock is acquired or ctx is done.
func (l *Lock) Lock(ctx context.Context, name string) error {
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.TryLock(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %s: %w", lock.ErrLockTimeout, name, ctx.Err())
			}
			return err
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", lock.ErrLockTimeout, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// releaseScript only deletes the lock if the current owner matches,
// preventing accidental release of locks held by other instances.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Unlock releases the named lock if held by this instance.
// Returns lock.ErrNotHeld if the lock expired or belongs to another instance.
func (l *Lock) Unlock(ctx context.Context, name string) error {
	l.stopKeepAlive(name)

	result, err := releaseScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if result == 0 {
		return fmt.Errorf("%w: %s", lock.ErrNotHeld, name)
	}
	return nil
}

// extendScript only extends the TTL if the current owner matches.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend resets the TTL of a currently held lock.
// Returns lock.ErrNotHeld if the lock is not held by this instance.
func (l *Lock) Extend(ctx context.Context, name string) error {
	result, err := extendScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if result == 0 {
		return fmt.Errorf("%w: %s", lock.ErrNotHeld, name)
	}
	return nil
}

func (l *Lock) startKeepAlive(name string) {
	stop := make(chan struct{})
	l.mu.Lock()
	l.held[name] = stop
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := l.Extend(context.Background(), name); err != nil {
					l.logger.Warn("failed to extend lock", "lock", name, "err", err)
					return
				}
			}
		}
	}()
}

func (l *Lock) stopKeepAlive(name string) {
	l.mu.Lock()
	stop, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()
	if ok {
		close(stop)
	}
}

// Close stops all keep-alive goroutines without releasing the locks.
func (l *Lock) Close() {
	l.mu.Lock()
	for name, stop := range l.held {
		close(stop)
		delete(l.held, name)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns the unique identifier for this lock instance.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
