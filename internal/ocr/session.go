package ocr

import (
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"screen-ocr/internal/datalock"
	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/jobs"
)

// Session queues recognition jobs for one engine and data directory.
type Session struct {
	id         string
	key        datalock.Key
	recognizer engine.Recognizer
	worker     *jobs.Worker
	observer   *datalock.Observer
	logger     *slog.Logger

	mu    sync.Mutex
	langs []domain.Lang

	// queueMu makes the lock check and submit in QueueJob atomic with
	// respect to drain.
	queueMu sync.Mutex

	closeOnce sync.Once
}

func newSession(key datalock.Key, rec engine.Recognizer, logger *slog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:         id,
		key:        key,
		recognizer: rec,
		logger:     logger.With("session", id, "engine", key.EngineID, "dataDir", key.DataDir),
	}
	s.langs = buildLangs(rec.Langs(), nil)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// EngineID returns the engine the session recognizes with.
func (s *Session) EngineID() string {
	return s.key.EngineID
}

// DefaultLangCode returns the engine's preferred language.
func (s *Session) DefaultLangCode() string {
	return s.recognizer.DefaultLangCode()
}

// Langs returns the session languages sorted by code.
func (s *Session) Langs() []domain.Lang {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.langs)
}

// LangIndex returns the position of code in Langs, or -1.
func (s *Session) LangIndex(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(code)
}

// SetLangActive toggles whether code is used for new jobs.
func (s *Session) SetLangActive(code string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(code)
	if i < 0 {
		return fmt.Errorf("unknown language %q", code)
	}
	s.langs[i].IsActive = active
	return nil
}

// ActiveLangCount returns the number of active languages.
func (s *Session) ActiveLangCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.langs {
		if l.IsActive {
			n++
		}
	}
	return n
}

// ActiveLangCodes returns the active codes in sorted order.
func (s *Session) ActiveLangCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, l := range s.langs {
		if l.IsActive {
			out = append(out, l.Code)
		}
	}
	return out
}

// QueueJob takes ownership of img and queues it for recognition with the
// active languages. The job timestamp is taken at call time. A job accepted
// here is always drained before a concurrent catalog gets the data lock.
func (s *Session) QueueJob(img image.Image, features domain.Features) (string, error) {
	timestamp := time.Now()

	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.observer.IsLocked() {
		return "", domain.ErrDataLocked
	}

	s.mu.Lock()
	var indices []int
	for _, l := range s.langs {
		if l.IsActive {
			indices = append(indices, l.Index)
		}
	}
	s.mu.Unlock()

	if len(indices) == 0 {
		return "", domain.ErrNoActiveLangs
	}

	id := s.worker.Submit(jobs.Job{
		Image:       img,
		LangIndices: indices,
		Features:    features,
		Timestamp:   timestamp,
	})
	s.logger.Debug("job queued", "job", id, "langs", len(indices))
	return id, nil
}

// Progress returns the worker progress without blocking.
func (s *Session) Progress() domain.Progress {
	return s.worker.Progress()
}

// HasPendingResults reports whether a job is queued or running, or a result
// is waiting to be fetched.
func (s *Session) HasPendingResults() bool {
	return s.worker.HasPending()
}

// FetchResult pops the oldest finished job result.
func (s *Session) FetchResult() (domain.JobResult, bool) {
	return s.worker.NextResult()
}

// TerminateJobs cancels the running job and drops queued jobs and results.
func (s *Session) TerminateJobs() {
	s.worker.Terminate()
}

// Close stops the worker and releases the recognizer.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.observer != nil {
			s.observer.Close()
		}
		s.worker.Close()
		if err := s.recognizer.Close(); err != nil {
			s.logger.Warn("recognizer close failed", "err", err)
		}
		s.logger.Info("session closed")
	})
}

// drain runs before a catalog takes the data lock. The lock is already
// marked held, so QueueJob calls waiting on queueMu will reject their jobs.
func (s *Session) drain() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	s.worker.WaitIdle()
}

// reloadLangs rereads the recognizer languages after the data directory was
// unlocked. Active codes that still exist stay active.
func (s *Session) reloadLangs() {
	if err := s.recognizer.ReloadLangs(); err != nil {
		s.logger.Error("language reload failed", "err", &domain.RecognizerError{Op: domain.RecognizerOpReload, Err: err})
	}
	infos := s.recognizer.Langs()

	s.mu.Lock()
	active := make(map[string]bool)
	for _, l := range s.langs {
		if l.IsActive {
			active[l.Code] = true
		}
	}
	s.langs = buildLangs(infos, active)
	s.mu.Unlock()

	s.logger.Info("languages reloaded", "langs", len(infos), "active", len(active))
}

// indexLocked binary-searches the sorted language list. Callers hold s.mu.
func (s *Session) indexLocked(code string) int {
	i, ok := slices.BinarySearchFunc(s.langs, code, func(l domain.Lang, code string) int {
		return strings.Compare(l.Code, code)
	})
	if !ok {
		return -1
	}
	return i
}

// buildLangs maps recognizer languages to session languages sorted by code,
// keeping each language's recognizer index.
func buildLangs(infos []domain.LangInfo, active map[string]bool) []domain.Lang {
	out := make([]domain.Lang, 0, len(infos))
	for i, info := range infos {
		out = append(out, domain.Lang{
			Code:     info.Code,
			Name:     info.Name,
			Index:    i,
			IsActive: active[info.Code],
		})
	}
	slices.SortStableFunc(out, func(a, b domain.Lang) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out
}
