// Package remotefiles manages language data files that are listed in a JSON
// info file and downloaded one file per language into a data directory.
package remotefiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/sha256file"
)

// Options configures a Manager.
type Options struct {
	DataDir     string
	FileExt     string
	UserAgent   string
	InfoFileURL string
	LocalCodes  []string
	IgnoreLang  func(code string) bool
	LangName    func(code string) string
	Client      *http.Client
	Logger      *slog.Logger
}

// Manager is an engine.LangManager over remote language files.
type Manager struct {
	dataDir     string
	fileExt     string
	userAgent   string
	infoFileURL string
	ignoreLang  func(string) bool
	langName    func(string) string
	client      *http.Client
	logger      *slog.Logger

	mu    sync.Mutex
	langs []langInfo
}

// langInfo is the manager's record of one language.
type langInfo struct {
	code         string
	state        domain.LangState
	localSize    int64
	sha256       string
	remoteSha256 string
	remoteSize   int64
	url          string
}

// New creates a manager whose initial languages are the installed LocalCodes.
func New(opts Options) *Manager {
	m := &Manager{
		dataDir:     opts.DataDir,
		fileExt:     opts.FileExt,
		userAgent:   opts.UserAgent,
		infoFileURL: opts.InfoFileURL,
		ignoreLang:  opts.IgnoreLang,
		langName:    opts.LangName,
		client:      opts.Client,
		logger:      opts.Logger,
	}
	if m.ignoreLang == nil {
		m.ignoreLang = func(string) bool { return false }
	}
	if m.langName == nil {
		m.langName = func(string) string { return "" }
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: 10 * time.Minute}
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}

	for _, code := range opts.LocalCodes {
		m.langs = append(m.langs, langInfo{
			code:       code,
			state:      domain.LangStateInstalled,
			localSize:  m.fileSize(code),
			remoteSize: -1,
		})
	}
	sortLangs(m.langs)
	return m
}

// Langs returns a snapshot sorted by code.
func (m *Manager) Langs() []engine.LangEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]engine.LangEntry, 0, len(m.langs))
	for _, l := range m.langs {
		out = append(out, engine.LangEntry{
			Code:  l.code,
			Name:  m.langName(l.code),
			State: l.state,
			Size:  domain.LangSize{External: l.remoteSize, Local: l.localSize},
			URL:   l.url,
		})
	}
	return out
}

// FetchExternal downloads the info file and merges it into the local list.
// On failure the list is left at its local-only baseline.
func (m *Manager) FetchExternal(ctx context.Context) error {
	m.mu.Lock()
	m.langs = clearRemote(m.langs)
	baseline := slices.Clone(m.langs)
	m.mu.Unlock()

	remote, err := m.fetchRemoteList(ctx)
	if err != nil {
		return err
	}

	merged := baseline
	for _, r := range remote {
		if m.ignoreLang(r.Code) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return domain.ErrOperationCanceled
		}
		merged, err = m.mergeRemote(merged, r)
		if err != nil {
			return err
		}
	}
	sortLangs(merged)

	m.mu.Lock()
	m.langs = merged
	m.mu.Unlock()

	m.logger.Info("fetched remote languages", "url", m.infoFileURL, "remote", len(remote), "total", len(merged))
	return nil
}

// Install downloads the language file for code. Cancellation through ctx or
// progress leaves the previous file and state untouched.
func (m *Manager) Install(ctx context.Context, code string, progress engine.ProgressFunc) error {
	m.mu.Lock()
	idx := m.indexOf(code)
	if idx < 0 {
		m.mu.Unlock()
		return domain.NewLangManagerError(fmt.Sprintf("unknown language %q", code), nil)
	}
	info := m.langs[idx]
	m.mu.Unlock()

	if info.url == "" {
		return domain.NewLangManagerError(fmt.Sprintf("language %q has no remote file", code), nil)
	}
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return domain.NewLangManagerError(fmt.Sprintf("can't create directory %q", m.dataDir), err)
	}

	path := m.filePath(code)
	if err := downloadFile(ctx, m.client, m.userAgent, info.url, path, progress); err != nil {
		if errors.Is(err, domain.ErrOperationCanceled) {
			return err
		}
		message := fmt.Sprintf("can't download %q to %q", info.url, path)
		if isConnectionError(err) {
			return domain.NewNetworkError(message, err)
		}
		return domain.NewLangManagerError(message, err)
	}

	m.mu.Lock()
	if idx = m.indexOf(code); idx >= 0 {
		l := &m.langs[idx]
		l.state = domain.LangStateInstalled
		l.sha256 = l.remoteSha256
		l.localSize = m.fileSize(code)
	}
	m.mu.Unlock()

	if info.remoteSha256 != "" {
		_ = sha256file.Save(path, info.remoteSha256)
	}
	m.logger.Info("installed language", "code", code, "path", path)
	return nil
}

// Remove deletes the language file for code. Languages with a known remote
// file become notInstalled; others are dropped.
func (m *Manager) Remove(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(code)
	if idx < 0 {
		return domain.NewLangManagerError(fmt.Sprintf("unknown language %q", code), nil)
	}

	path := m.filePath(code)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewLangManagerError(fmt.Sprintf("can't remove %q", path), err)
	}

	if l := &m.langs[idx]; l.url != "" {
		l.state = domain.LangStateNotInstalled
		l.sha256 = ""
		l.localSize = -1
	} else {
		m.langs = slices.Delete(m.langs, idx, idx+1)
	}

	_ = sha256file.Remove(path)
	m.logger.Info("removed language", "code", code)
	return nil
}

// mergeRemote folds one remote entry into langs.
func (m *Manager) mergeRemote(langs []langInfo, r remoteLang) ([]langInfo, error) {
	idx := slices.IndexFunc(langs, func(l langInfo) bool { return l.code == r.Code })
	if idx < 0 {
		return append(langs, langInfo{
			code:         r.Code,
			state:        domain.LangStateNotInstalled,
			localSize:    -1,
			remoteSha256: r.Sha256,
			remoteSize:   r.Size,
			url:          r.URL,
		}), nil
	}

	l := &langs[idx]
	l.remoteSha256 = r.Sha256
	l.remoteSize = r.Size
	l.url = r.URL
	if l.state == domain.LangStateNotInstalled {
		return langs, nil
	}

	path := m.filePath(l.code)
	stat, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewLangManagerError(fmt.Sprintf("can't get size of %q", path), err)
	}
	l.localSize = stat.Size()
	if l.localSize != r.Size {
		l.state = domain.LangStateUpdateAvailable
		return langs, nil
	}

	if l.sha256 == "" {
		digest, err := sha256file.Cached(path)
		if err != nil {
			return nil, domain.NewLangManagerError(fmt.Sprintf("can't get SHA-256 of %q", path), err)
		}
		l.sha256 = digest
	}
	if !strings.EqualFold(l.sha256, r.Sha256) {
		l.state = domain.LangStateUpdateAvailable
	}
	return langs, nil
}

// indexOf finds code in m.langs. Callers hold m.mu.
func (m *Manager) indexOf(code string) int {
	idx, ok := slices.BinarySearchFunc(m.langs, code, func(l langInfo, code string) int {
		return strings.Compare(l.code, code)
	})
	if !ok {
		return -1
	}
	return idx
}

// filePath returns the data file path for code.
func (m *Manager) filePath(code string) string {
	return filepath.Join(m.dataDir, code+m.fileExt)
}

// fileSize returns the size of the data file for code, or -1.
func (m *Manager) fileSize(code string) int64 {
	stat, err := os.Stat(m.filePath(code))
	if err != nil {
		return -1
	}
	return stat.Size()
}

// clearRemote drops remote-only entries and resets the rest to installed.
func clearRemote(langs []langInfo) []langInfo {
	out := langs[:0]
	for _, l := range langs {
		if l.state == domain.LangStateNotInstalled {
			continue
		}
		l.state = domain.LangStateInstalled
		l.remoteSha256 = ""
		l.remoteSize = -1
		l.url = ""
		out = append(out, l)
	}
	return out
}

// sortLangs orders langs by code.
func sortLangs(langs []langInfo) {
	slices.SortFunc(langs, func(a, b langInfo) int {
		return strings.Compare(a.code, b.code)
	})
}
