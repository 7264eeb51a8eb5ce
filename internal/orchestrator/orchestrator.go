// Package orchestrator runs batch page generation with a fixed worker pool,
// live progress reporting and cooperative cancellation.
package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storybook-backend/internal/generation"
)

// DefaultConcurrency matches what the external service tolerates in
// practice. It is a design constant, not a tunable.
const DefaultConcurrency = 3

// Progress is emitted after every job completion so callers can render live
// status.
type Progress struct {
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Running   []uuid.UUID `json:"currently_running_page_ids"`
}

// Report is the terminal summary of a batch.
type Report struct {
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

// JobFunc executes one page and reports success.
type JobFunc func(ctx context.Context, page generation.PageInput) generation.Result

// ProgressFunc receives live progress; may be nil.
type ProgressFunc func(Progress)

// Batch is a handle to a running batch. Cancel prevents new jobs from
// starting; jobs already in flight are allowed to finish.
type Batch struct {
	mu        sync.Mutex
	queue     []generation.PageInput
	next      int
	running   map[uuid.UUID]struct{}
	completed int
	failed    int
	cancelled bool

	results []generation.Result

	done chan struct{}
}

func (b *Batch) Cancel() {
	b.mu.Lock()
	b.cancelled = true
	b.mu.Unlock()
}

// Done is closed once all workers have drained.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Snapshot returns current progress without blocking workers for long.
func (b *Batch) Snapshot() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progressLocked()
}

// Results returns the per-page outcomes recorded so far.
func (b *Batch) Results() []generation.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]generation.Result, len(b.results))
	copy(out, b.results)
	return out
}

func (b *Batch) progressLocked() Progress {
	running := make([]uuid.UUID, 0, len(b.running))
	for id := range b.running {
		running = append(running, id)
	}
	return Progress{
		Total:     len(b.queue),
		Completed: b.completed,
		Failed:    b.failed,
		Running:   running,
	}
}

// pop atomically takes the next pending page. Returns ok=false when the
// queue is exhausted or cancellation has been requested.
func (b *Batch) pop() (generation.PageInput, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelled || b.next >= len(b.queue) {
		return generation.PageInput{}, false
	}
	page := b.queue[b.next]
	b.next++
	b.running[page.PageID] = struct{}{}
	return page, true
}

func (b *Batch) record(result generation.Result, onProgress ProgressFunc) {
	b.mu.Lock()
	delete(b.running, result.PageID)
	if result.Succeeded() {
		b.completed++
	} else {
		b.failed++
	}
	b.results = append(b.results, result)
	progress := b.progressLocked()
	b.mu.Unlock()

	if onProgress != nil {
		onProgress(progress)
	}
}

// Start launches the batch over the given pages. Queue order determines
// start order within the concurrency window; completion order is unordered.
// The returned Batch can be cancelled and polled while Wait-ing on Done.
func Start(ctx context.Context, pages []generation.PageInput, concurrency int, job JobFunc, onProgress ProgressFunc) *Batch {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	b := &Batch{
		queue:   append([]generation.PageInput(nil), pages...),
		running: make(map[uuid.UUID]struct{}),
		done:    make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					b.Cancel()
					return
				}
				page, ok := b.pop()
				if !ok {
					return
				}
				// One page's failure never aborts its siblings;
				// the job returns a classified failure instead
				// of propagating.
				b.record(job(ctx, page), onProgress)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(b.done)
	}()

	return b
}

// Run executes a batch synchronously and returns the terminal report.
func Run(ctx context.Context, pages []generation.PageInput, concurrency int, job JobFunc, onProgress ProgressFunc) Report {
	b := Start(ctx, pages, concurrency, job, onProgress)
	<-b.Done()
	return b.Report()
}

// Report returns the terminal summary. Valid once Done is closed.
func (b *Batch) Report() Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Report{Completed: b.completed, Failed: b.failed, Cancelled: b.cancelled}
}
