// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/reelrank/internal/metrics"
)

// KeyedMutex serializes operations per key. Operations queued on the same
// key run one at a time in submission order; distinct keys never block each
// other. A key's queue is dropped once it drains.
type KeyedMutex struct {
	mu     sync.Mutex
	queues map[string][]chan struct{}
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{queues: make(map[string][]chan struct{})}
}

// WithLock runs fn once every earlier operation on key has finished. The
// error from fn is returned only to this caller; the next queued operation
// runs regardless. If ctx ends while waiting, fn is not run.
func (m *KeyedMutex) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := m.lock(ctx, key); err != nil {
		return err
	}
	defer m.unlock(key)
	return fn()
}

func (m *KeyedMutex) lock(ctx context.Context, key string) error {
	start := time.Now()
	ticket := make(chan struct{})

	m.mu.Lock()
	q := append(m.queues[key], ticket)
	m.queues[key] = q
	if len(q) == 1 {
		close(ticket)
	}
	m.mu.Unlock()

	select {
	case <-ticket:
		metrics.StorageLockWait.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q = m.queues[key]
	for i, t := range q {
		if t != ticket {
			continue
		}
		if i == 0 {
			// Granted while we were giving up; hand the turn on.
			m.advanceLocked(key)
		} else {
			m.queues[key] = append(q[:i:i], q[i+1:]...)
		}
		break
	}
	return ctx.Err()
}

func (m *KeyedMutex) unlock(key string) {
	m.mu.Lock()
	m.advanceLocked(key)
	m.mu.Unlock()
}

func (m *KeyedMutex) advanceLocked(key string) {
	q := m.queues[key]
	if len(q) <= 1 {
		delete(m.queues, key)
		return
	}
	q = q[1:]
	m.queues[key] = q
	close(q[0])
}

// Len returns the number of keys with queued or running operations.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}
