// Package refresh runs background cache refreshes on a small worker pool,
// with at most one job in flight per location key.
package refresh

import (
	"context"
	"sync"
	"time"
)

type Job struct {
	Key      string // canonical location key, used for de-duplication
	Location string // as typed by the user
}

type Refresher struct {
	ch      chan Job
	inFly   sync.Map // key -> struct{}
	wg      sync.WaitGroup
	once    sync.Once
	Timeout time.Duration
	Do      func(ctx context.Context, j Job)
}

func New(capacity int, workerCount int, do func(ctx context.Context, j Job)) *Refresher {
	if capacity <= 0 {
		capacity = 256
	}
	if workerCount <= 0 {
		workerCount = 2
	}
	r := &Refresher{ch: make(chan Job, capacity), Do: do, Timeout: 45 * time.Second}
	r.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go r.worker()
	}
	return r
}

// Enqueue schedules j unless a job for the same key is already queued or
// running. It reports whether the job was accepted; a full queue drops it.
func (r *Refresher) Enqueue(j Job) bool {
	if _, exists := r.inFly.LoadOrStore(j.Key, struct{}{}); exists {
		return false
	}
	select {
	case r.ch <- j:
		return true
	default:
		r.inFly.Delete(j.Key)
		return false
	}
}

// Close stops accepting work and waits for queued jobs to finish.
// Enqueue must not be called after Close.
func (r *Refresher) Close() {
	r.once.Do(func() { close(r.ch) })
	r.wg.Wait()
}

func (r *Refresher) worker() {
	defer r.wg.Done()
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
		func() {
			defer func() {
				r.inFly.Delete(j.Key)
				cancel()
			}()
			if r.Do != nil {
				r.Do(ctx, j)
			}
		}()
	}
}
