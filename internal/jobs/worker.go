package jobs

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/recognize"
)

// Job is one queued recognition request.
type Job struct {
	ID          string
	Image       image.Image
	LangIndices []int
	Features    domain.Features
	Timestamp   time.Time
}

// pipelineRunner isolates the recognition pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req recognize.Request) (recognize.Result, error)
}

// Worker runs queued jobs one at a time on its own goroutine and buffers
// results until they are fetched. All methods are safe for concurrent use.
type Worker struct {
	pipeline pipelineRunner
	logger   *slog.Logger

	mu           sync.Mutex
	idle         *sync.Cond
	queue        []Job
	active       bool
	cancelActive context.CancelFunc
	status       domain.JobStatus
	progress     domain.Progress
	results      []domain.JobResult

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWorker starts a worker goroutine. A nil logger discards output.
func NewWorker(pipeline pipelineRunner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Worker{
		pipeline: pipeline,
		logger:   logger,
		status:   domain.JobStatusIdle,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// Submit appends job to the queue without blocking. Missing ids and
// timestamps are filled in.
func (w *Worker) Submit(job Job) string {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Timestamp.IsZero() {
		job.Timestamp = time.Now()
	}

	w.mu.Lock()
	w.queue = append(w.queue, job)
	w.progress.TotalJobs++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return job.ID
}

// Progress returns a snapshot of the progress counters.
func (w *Worker) Progress() domain.Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Status returns the stage of the job in flight.
func (w *Worker) Status() domain.JobStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// HasPending reports whether a job is queued or running, or a result is unfetched.
func (w *Worker) HasPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue) > 0 || w.active || len(w.results) > 0
}

// NextResult pops the oldest unfetched result.
func (w *Worker) NextResult() (domain.JobResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.results) == 0 {
		return domain.JobResult{}, false
	}
	result := w.results[0]
	w.results[0] = domain.JobResult{}
	w.results = w.results[1:]
	return result, true
}

// WaitIdle blocks until every queued job has finished. Results are kept.
func (w *Worker) WaitIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.queue) > 0 || w.active {
		w.idle.Wait()
	}
}

// Terminate drops queued jobs, cancels the running one, waits for it to
// unwind, and discards all buffered results.
func (w *Worker) Terminate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	dropped := len(w.queue)
	w.queue = nil
	if w.cancelActive != nil {
		w.cancelActive()
	}
	for w.active {
		w.idle.Wait()
	}
	w.results = nil
	w.progress = domain.Progress{}

	if dropped > 0 {
		w.logger.Debug("dropped queued jobs", "count", dropped)
	}
}

// Close terminates jobs and stops the worker goroutine.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		w.Terminate()
		close(w.quit)
		<-w.done
	})
}

// loop consumes jobs until Close.
func (w *Worker) loop() {
	defer close(w.done)
	for {
		job, ctx, ok := w.next()
		if !ok {
			select {
			case <-w.wake:
				continue
			case <-w.quit:
				return
			}
		}
		w.process(ctx, job)
	}
}

// next dequeues the oldest job and marks it active.
func (w *Worker) next() (Job, context.Context, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return Job{}, nil, false
	}
	job := w.queue[0]
	w.queue[0] = Job{}
	w.queue = w.queue[1:]

	ctx, cancel := context.WithCancel(context.Background())
	w.active = true
	w.cancelActive = cancel
	w.progress.CurJobProgress = 0
	w.progress.CurJob++
	return job, ctx, true
}

// process runs one job and publishes its result.
func (w *Worker) process(ctx context.Context, job Job) {
	out, err := w.pipeline.Run(ctx, recognize.Request{
		JobID:       job.ID,
		Image:       job.Image,
		LangIndices: job.LangIndices,
		Features:    job.Features,
		OnStage:     w.transition,
		OnProgress:  w.setJobProgress,
	})

	result := domain.JobResult{
		JobID:     job.ID,
		Timestamp: job.Timestamp,
	}
	switch {
	case err == nil:
		result.Status = domain.ResultStatusSuccess
		result.Text = out.Text
	case errors.Is(err, context.Canceled):
		result.Status = domain.ResultStatusTerminated
	default:
		result.Status = domain.ResultStatusError
		result.Text = err.Error()
		w.logger.Warn("recognition job failed", "job", job.ID, "err", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.results = append(w.results, result)
	w.cancelActive()
	w.cancelActive = nil
	w.active = false
	w.status = domain.JobStatusIdle
	if len(w.queue) == 0 {
		w.progress = domain.Progress{}
		w.idle.Broadcast()
	}
}

// setJobProgress records the running job's percentage.
func (w *Worker) setJobProgress(percent int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active {
		w.progress.CurJobProgress = percent
	}
}

// transition validates and applies a worker stage change.
func (w *Worker) transition(status domain.JobStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if status == w.status {
		return
	}
	if !isValidTransition(w.status, status) {
		w.logger.Error("invalid worker transition", "from", w.status, "to", status)
		return
	}
	w.status = status
}

// isValidTransition enforces the worker state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch from {
	case domain.JobStatusIdle:
		return to == domain.JobStatusPreprocessing
	case domain.JobStatusPreprocessing:
		return to == domain.JobStatusRecognizing || to == domain.JobStatusIdle
	case domain.JobStatusRecognizing:
		return to == domain.JobStatusIdle
	default:
		return false
	}
}
