// Package ocr is the entry point used by the desktop shell and the CLI: it
// opens recognition sessions and language catalogs per engine and data
// directory and keeps the two mutually exclusive.
package ocr

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"screen-ocr/internal/datalock"
	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/jobs"
	"screen-ocr/internal/langs"
	"screen-ocr/internal/recognize"
)

// Options configures a Service.
type Options struct {
	UserAgent       string
	InfoFileURL     string
	DumpDebugImages bool
	DebugDir        string
	Logger          *slog.Logger
}

// Service owns the engines and the data lock registry they share.
type Service struct {
	engines []engine.Engine
	locks   *datalock.Registry
	opts    Options
	logger  *slog.Logger
}

// NewService creates a service over engines, listed in preference order.
func NewService(engines []engine.Engine, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		engines: engines,
		locks:   datalock.NewRegistry(logger),
		opts:    opts,
		logger:  logger,
	}
}

// Engines describes the available engines.
func (s *Service) Engines() []engine.Info {
	out := make([]engine.Info, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.Info())
	}
	return out
}

// CreateSession opens a recognition session. It fails with
// domain.ErrDataLocked while a catalog holds the same data directory.
func (s *Service) CreateSession(engineID, dataDir string) (*Session, error) {
	eng, err := s.engine(engineID)
	if err != nil {
		return nil, err
	}
	key := lockKey(engineID, dataDir)
	if s.locks.Locked(key) {
		return nil, domain.ErrDataLocked
	}

	rec, err := eng.CreateRecognizer(dataDir)
	if err != nil {
		return nil, err
	}

	sess := newSession(key, rec, s.logger)
	sess.worker = jobs.NewWorker(recognize.NewPipeline(rec, recognize.Options{
		DebugDump: s.opts.DumpDebugImages,
		DebugDir:  s.opts.DebugDir,
		Logger:    sess.logger,
	}), sess.logger)
	sess.observer = s.locks.Observe(key, sess.drain, sess.reloadLangs)

	if sess.observer.IsLocked() {
		sess.Close()
		return nil, domain.ErrDataLocked
	}

	sess.logger.Info("session created", "langs", len(sess.Langs()))
	return sess, nil
}

// CreateLangCatalog opens the language catalog of a data directory. While
// the catalog is open, sessions for the same directory reject new jobs.
func (s *Service) CreateLangCatalog(engineID, dataDir string) (*langs.Catalog, error) {
	eng, err := s.engine(engineID)
	if err != nil {
		return nil, err
	}
	if !eng.Info().HasLangManager {
		return nil, domain.NewLangManagerError(fmt.Sprintf("engine %q has no language manager", engineID), nil)
	}

	key := lockKey(engineID, dataDir)
	lock, err := s.locks.Acquire(key)
	if err != nil {
		return nil, err
	}

	manager, err := eng.CreateLangManager(dataDir, engine.LangManagerOptions{
		UserAgent:   s.opts.UserAgent,
		InfoFileURL: s.opts.InfoFileURL,
	})
	if err != nil {
		lock.Release()
		return nil, domain.NewLangManagerError("can't create language manager", err)
	}

	logger := s.logger.With("engine", key.EngineID, "dataDir", key.DataDir)
	logger.Info("language catalog opened")
	return langs.New(lock, manager, logger), nil
}

// engine finds an engine by id.
func (s *Service) engine(id string) (engine.Engine, error) {
	for _, e := range s.engines {
		if e.Info().ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, id)
}

func lockKey(engineID, dataDir string) datalock.Key {
	if dataDir != "" {
		dataDir = filepath.Clean(dataDir)
	}
	return datalock.Key{EngineID: engineID, DataDir: dataDir}
}
