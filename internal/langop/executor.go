package langop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"screen-ocr/internal/domain"
)

// Func is a language operation. It observes ctx at its own checkpoints and
// returns domain.ErrOperationCanceled (or ctx.Err()) when asked to stop.
type Func func(ctx context.Context) error

// Executor runs one language operation at a time in the background.
type Executor struct {
	mu     sync.Mutex
	cur    *operation
	logger *slog.Logger
}

// operation is the shared state behind one or more Handles.
type operation struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	status domain.OpStatus
}

// NewExecutor creates an idle executor. A nil logger discards output.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{logger: logger}
}

// Execute waits for the previous operation to finish, then starts fn with a
// fresh cancellation context.
func (e *Executor) Execute(name string, fn Func) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur != nil {
		<-e.cur.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	op := &operation{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.cur = op

	go func() {
		defer close(op.done)
		defer cancel()

		err := fn(ctx)
		op.status = statusFromError(err)
		if op.status.Code.IsError() {
			e.logger.Warn("language operation failed", "op", name, "status", op.status.Code.String(), "err", err)
		} else {
			e.logger.Debug("language operation finished", "op", name, "status", op.status.Code.String())
		}
	}()

	return Handle{op: op}
}

// Close cancels the running operation and waits for it to unwind.
func (e *Executor) Close() {
	e.mu.Lock()
	op := e.cur
	e.mu.Unlock()

	h := Handle{op: op}
	h.RequestCancel()
	h.Wait()
}

// statusFromError maps an operation error to its polled status.
func statusFromError(err error) domain.OpStatus {
	switch {
	case err == nil:
		return domain.OpStatus{Code: domain.OpStatusSuccess}
	case errors.Is(err, domain.ErrOperationCanceled), errors.Is(err, context.Canceled):
		return domain.OpStatus{Code: domain.OpStatusNone}
	case domain.IsNetworkError(err):
		return domain.OpStatus{Code: domain.OpStatusNetworkError, ErrorText: err.Error()}
	default:
		return domain.OpStatus{Code: domain.OpStatusGenericError, ErrorText: err.Error()}
	}
}

// Handle controls one started operation. The zero Handle reports
// domain.OpStatusNone and ignores cancel and wait requests.
type Handle struct {
	op *operation
}

// Status returns the operation status without blocking.
func (h Handle) Status() domain.OpStatus {
	if h.op == nil {
		return domain.OpStatus{Code: domain.OpStatusNone}
	}
	select {
	case <-h.op.done:
		return h.op.status
	default:
		return domain.OpStatus{Code: domain.OpStatusInProgress}
	}
}

// Started reports whether the handle refers to an operation.
func (h Handle) Started() bool {
	return h.op != nil
}

// InProgress reports whether the operation is still running.
func (h Handle) InProgress() bool {
	return h.Status().Code == domain.OpStatusInProgress
}

// RequestCancel asks the operation to stop at its next checkpoint.
func (h Handle) RequestCancel() {
	if h.op != nil {
		h.op.cancel()
	}
}

// Wait blocks until the operation completes.
func (h Handle) Wait() {
	if h.op != nil {
		<-h.op.done
	}
}
