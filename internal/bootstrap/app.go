package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"screen-ocr/internal/config"
	"screen-ocr/internal/diagnostics"
	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/tesseract"
	"screen-ocr/internal/imgops"
	"screen-ocr/internal/jobs"
	"screen-ocr/internal/langs"
	"screen-ocr/internal/ocr"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// pollInterval is the cadence of the result and language status poll.
const pollInterval = 100 * time.Millisecond

var imageDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Images",
		Pattern:     "*.png;*.jpg;*.jpeg;*.gif;*.bmp;*.tif;*.tiff",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, the OCR service, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Service     *ocr.Service
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *slog.Logger
	logCloser   io.Closer

	mu          sync.Mutex
	session     *ocr.Session
	catalog     *langs.Catalog
	lastFetch   domain.OpStatus
	lastInstall domain.OpStatus
	events      *jobs.EventBus
	runtimeCtx  context.Context
	stopPoll    context.CancelFunc
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewFileStore(config.DefaultPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	logger, logCloser, err := config.SetupLogger(settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	service := ocr.NewService([]engine.Engine{tesseract.New(logger)}, ocr.Options{
		UserAgent:       settings.UserAgent,
		InfoFileURL:     settings.InfoFileURL,
		DumpDebugImages: settings.DumpDebugImages,
		Logger:          logger,
	})

	checker := diagnostics.NewChecker(engineIDs(service))
	a := &App{
		Settings:    settings,
		Store:       store,
		Service:     service,
		Diagnostics: checker.Run(settings),
		assets:      assets,
		checker:     checker,
		logger:      logger,
		logCloser:   logCloser,
		events:      jobs.NewEventBus(1000),
	}

	if err := a.openSession(settings); err != nil {
		logger.Warn("recognition session unavailable", "err", err)
	}
	return a, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Screen OCR",
		Width:       960,
		Height:      680,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and starts polling.
func (a *App) Startup(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	a.runtimeCtx = ctx
	a.stopPoll = cancel
	a.mu.Unlock()

	go a.pollLoop(pollCtx)
}

// Shutdown stops polling and releases the catalog and session.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	if a.stopPoll != nil {
		a.stopPoll()
	}
	a.runtimeCtx = nil
	catalog := a.catalog
	session := a.session
	a.catalog = nil
	a.session = nil
	a.mu.Unlock()

	if catalog != nil {
		catalog.Close()
	}
	if session != nil {
		session.Close()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, reopens the session when
// the engine or data directory changed, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	reopenErr := a.applySettings(normalized)
	a.refreshDiagnosticsFromSettings(normalized)
	if reopenErr != nil {
		return normalized, fmt.Errorf("open recognition session: %w", reopenErr)
	}
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// Engines describes the available OCR engines.
func (a *App) Engines() []engine.Info {
	return a.Service.Engines()
}

// Langs returns the recognition languages of the current session.
func (a *App) Langs() ([]domain.Lang, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}
	return session.Langs(), nil
}

// SetLangActive toggles a recognition language and persists the selection.
func (a *App) SetLangActive(code string, active bool) error {
	session, err := a.currentSession()
	if err != nil {
		return err
	}
	if err := session.SetLangActive(code, active); err != nil {
		return err
	}

	a.mu.Lock()
	settings := a.Settings
	a.mu.Unlock()
	settings.ActiveLangs = session.ActiveLangCodes()
	if err := a.Store.Save(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return nil
}

// PickImageFile opens a native file dialog for image selection.
func (a *App) PickImageFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select image",
		Filters: imageDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// RecognizeImageFile decodes an image file and queues it for recognition.
func (a *App) RecognizeImageFile(path string) (string, error) {
	session, err := a.currentSession()
	if err != nil {
		return "", err
	}

	img, err := imgops.Open(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	a.mu.Lock()
	features := domain.Features{TextSegmentation: a.Settings.TextSegmentation}
	a.mu.Unlock()

	jobID, err := session.QueueJob(img, features)
	if err != nil {
		a.publishEvent(jobs.Event{Type: jobs.EventTypeError, Message: err.Error()})
		return "", err
	}

	a.publishEvent(jobs.Event{JobID: jobID, Type: jobs.EventTypeQueued, Message: filepath.Base(path)})
	return jobID, nil
}

// PollProgress returns the recognition progress without blocking.
func (a *App) PollProgress() domain.Progress {
	session, err := a.currentSession()
	if err != nil {
		return domain.Progress{}
	}
	return session.Progress()
}

// HasPendingResults reports whether recognition work or results remain.
func (a *App) HasPendingResults() bool {
	session, err := a.currentSession()
	if err != nil {
		return false
	}
	return session.HasPendingResults()
}

// TerminateJobs cancels queued and running recognition jobs.
func (a *App) TerminateJobs() error {
	session, err := a.currentSession()
	if err != nil {
		return err
	}
	session.TerminateJobs()
	return nil
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// OpenDataDir opens the language data directory in the file manager.
func (a *App) OpenDataDir() error {
	a.mu.Lock()
	target := a.Settings.DataDir
	a.mu.Unlock()
	if target == "" {
		return fmt.Errorf("data directory is empty")
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	return openInFileManager(target)
}

// pollLoop drains results and language status changes until ctx ends.
func (a *App) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pollOnce()
		}
	}
}

// pollOnce publishes finished results and changed language operation statuses.
func (a *App) pollOnce() {
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()

	if session != nil {
		for {
			result, ok := session.FetchResult()
			if !ok {
				break
			}
			event := jobs.Event{
				JobID:        result.JobID,
				Timestamp:    result.Timestamp.UTC(),
				Type:         jobs.EventTypeResult,
				ResultStatus: result.Status,
				Text:         result.Text,
			}
			if result.Status == domain.ResultStatusError {
				event.Type = jobs.EventTypeError
				event.Message = result.Text
				event.Text = ""
			}
			a.publishEvent(event)
		}
	}

	a.pollCatalog()
}

// openSession replaces the current session with one for settings.
func (a *App) openSession(settings domain.Settings) error {
	a.mu.Lock()
	old := a.session
	a.session = nil
	a.mu.Unlock()
	if old != nil {
		old.Close()
	}

	session, err := a.Service.CreateSession(settings.EngineID, settings.DataDir)
	if err != nil {
		return err
	}
	applyActiveLangs(session, settings.ActiveLangs)

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return nil
}

// applySettings makes settings current. The session is reopened when none is
// open or the engine or data directory changed; otherwise only the active
// languages are updated.
func (a *App) applySettings(settings domain.Settings) error {
	a.mu.Lock()
	prev := a.Settings
	a.Settings = settings
	session := a.session
	a.mu.Unlock()

	if session == nil || prev.EngineID != settings.EngineID || prev.DataDir != settings.DataDir {
		return a.openSession(settings)
	}
	applyActiveLangs(session, settings.ActiveLangs)
	return nil
}

// currentSession returns the open session or an error when none is open.
func (a *App) currentSession() (*ocr.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, errors.New("recognition session is not open")
	}
	return a.session, nil
}

// refreshDiagnosticsFromSettings reruns checks and caches the report.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "job:event", published)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// applyActiveLangs activates codes present in the session, falling back to
// the engine default when none of them are installed.
func applyActiveLangs(session *ocr.Session, codes []string) {
	for _, l := range session.Langs() {
		_ = session.SetLangActive(l.Code, slices.Contains(codes, l.Code))
	}
	if session.ActiveLangCount() == 0 {
		_ = session.SetLangActive(session.DefaultLangCode(), true)
	}
}

// normalizeSettings trims user inputs and fills empty fields with defaults.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.EngineID = strings.TrimSpace(settings.EngineID)
	if settings.EngineID == "" {
		settings.EngineID = defaults.EngineID
	}
	settings.DataDir = strings.TrimSpace(settings.DataDir)
	settings.InfoFileURL = strings.TrimSpace(settings.InfoFileURL)
	settings.UserAgent = strings.TrimSpace(settings.UserAgent)
	if settings.UserAgent == "" {
		settings.UserAgent = defaults.UserAgent
	}

	codes := make([]string, 0, len(settings.ActiveLangs))
	for _, code := range settings.ActiveLangs {
		if code = strings.TrimSpace(code); code != "" && !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	settings.ActiveLangs = codes
	return settings
}

func engineIDs(service *ocr.Service) []string {
	var ids []string
	for _, info := range service.Engines() {
		ids = append(ids, info.ID)
	}
	return ids
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
