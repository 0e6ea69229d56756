package remotefiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
)

// progressInterval caps how often download progress is reported.
const progressInterval = time.Second / 60

// downloadFile fetches rawURL into path through path+".part". It returns
// domain.ErrOperationCanceled when ctx is done or progress returns false.
func downloadFile(ctx context.Context, client *http.Client, userAgent, rawURL, path string, progress engine.ProgressFunc) error {
	partPath := path + ".part"
	if err := os.Remove(partPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ErrOperationCanceled
		}
		return &connectionError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	reporter := newProgressReporter(resp.ContentLength, progress)
	copyErr := copyWithProgress(ctx, file, resp.Body, reporter)
	if copyErr == nil {
		copyErr = file.Sync()
	}
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(partPath)
		return copyErr
	}
	if closeErr != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("close temporary file: %w", closeErr)
	}

	if err := os.Rename(partPath, path); err != nil {
		_ = os.Remove(partPath)
		return fmt.Errorf("move downloaded file into place: %w", err)
	}
	return nil
}

// copyWithProgress streams src into dst and reports progress between reads.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, reporter *progressReporter) error {
	if !reporter.report(0, false) {
		return domain.ErrOperationCanceled
	}

	buf := make([]byte, 32*1024)
	var written int64
	for {
		if ctx.Err() != nil {
			return domain.ErrOperationCanceled
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write temporary file: %w", err)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return domain.ErrOperationCanceled
			}
			return &connectionError{err: readErr}
		}
		if !reporter.report(written, false) {
			return domain.ErrOperationCanceled
		}
	}

	if !reporter.report(written, true) {
		return domain.ErrOperationCanceled
	}
	return nil
}

// progressReporter converts byte counts to throttled percentages.
type progressReporter struct {
	total    int64
	fn       engine.ProgressFunc
	last     int
	lastTime time.Time
	now      func() time.Time
}

// newProgressReporter creates a reporter; total < 0 means unknown size.
func newProgressReporter(total int64, fn engine.ProgressFunc) *progressReporter {
	return &progressReporter{total: total, fn: fn, last: -2, now: time.Now}
}

// report calls fn when the percentage changed and the throttle interval has
// passed, or unconditionally when final is set. It returns false on cancel.
func (r *progressReporter) report(done int64, final bool) bool {
	if r.fn == nil {
		return true
	}

	percent := -1
	if r.total == 0 {
		percent = 100
	} else if r.total > 0 {
		percent = int(done * 100 / r.total)
	}

	now := r.now()
	if !final {
		if percent == r.last && percent != -1 {
			return true
		}
		if !r.lastTime.IsZero() && now.Sub(r.lastTime) < progressInterval {
			return true
		}
	}

	r.last = percent
	r.lastTime = now
	return r.fn(percent)
}
