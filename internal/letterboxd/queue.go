// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/reelrank/internal/models"
)

// DefaultQueueSize bounds the number of pending page fetches.
const DefaultQueueSize = 512

// PageJob is one queued profile page fetch.
type PageJob struct {
	Username string
	PageType models.PageType
	Page     int
}

func (j PageJob) key() string {
	return fmt.Sprintf("%s|%s|%d", j.Username, j.PageType, j.Page)
}

// PageQueue holds pending page fetches. A job already waiting is not
// queued twice. Jobs are drained by a supervised worker at a fixed pace.
type PageQueue struct {
	jobs chan PageJob

	mu      sync.Mutex
	pending map[string]bool
}

// NewPageQueue creates a queue holding up to size jobs.
func NewPageQueue(size int) *PageQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &PageQueue{
		jobs:    make(chan PageJob, size),
		pending: make(map[string]bool),
	}
}

// Enqueue adds job unless it is already pending or the queue is full.
func (q *PageQueue) Enqueue(job PageJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := job.key()
	if q.pending[k] {
		return false
	}
	select {
	case q.jobs <- job:
		q.pending[k] = true
		return true
	default:
		return false
	}
}

// Next blocks until a job is available or ctx ends.
func (q *PageQueue) Next(ctx context.Context) (PageJob, error) {
	select {
	case <-ctx.Done():
		return PageJob{}, ctx.Err()
	case job := <-q.jobs:
		q.mu.Lock()
		delete(q.pending, job.key())
		q.mu.Unlock()
		return job, nil
	}
}

// Len returns the number of queued jobs.
func (q *PageQueue) Len() int {
	return len(q.jobs)
}
