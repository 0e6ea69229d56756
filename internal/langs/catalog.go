// Package langs provides the language catalog of one engine data directory:
// locally installed languages merged with the remote list, plus background
// fetch, install, and remove operations.
package langs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"screen-ocr/internal/datalock"
	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/langop"
)

// entry is one catalog language. State and sizes are written by the install
// task and read by the polling caller, so each is its own atomic.
type entry struct {
	code string
	name string
	url  string

	state    atomic.Int32
	external atomic.Int64
	local    atomic.Int64
	mark     atomic.Bool
}

func newEntry(le engine.LangEntry) *entry {
	e := &entry{code: le.Code, name: le.Name, url: le.URL}
	e.sync(le)
	return e
}

// sync copies the mutable fields of a manager snapshot row.
func (e *entry) sync(le engine.LangEntry) {
	e.state.Store(int32(le.State))
	e.external.Store(le.Size.External)
	e.local.Store(le.Size.Local)
}

func (e *entry) langState() domain.LangState {
	return domain.LangState(e.state.Load())
}

func (e *entry) snapshot() domain.CatalogEntry {
	out := domain.CatalogEntry{
		Code:        e.code,
		Name:        e.name,
		State:       e.langState(),
		Size:        domain.LangSize{External: e.external.Load(), Local: e.local.Load()},
		InstallMark: e.mark.Load(),
	}
	if out.State != domain.LangStateInstalled {
		out.RemoteURL = e.url
	}
	return out
}

// Catalog is the language catalog of one locked data directory. Methods are
// meant for a single polling caller; fetch and install run in the background.
type Catalog struct {
	lock    *datalock.Lock
	manager engine.LangManager
	exec    *langop.Executor
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []*entry
	fetch   langop.Handle
	install langop.Handle

	progressMu sync.Mutex
	progress   domain.InstallProgress

	closeOnce sync.Once
}

// New creates a catalog that owns lock until Close. The initial entries are
// the manager's local languages. A nil logger discards output.
func New(lock *datalock.Lock, manager engine.LangManager, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{
		lock:    lock,
		manager: manager,
		exec:    langop.NewExecutor(logger),
		logger:  logger,
	}
	c.reload()
	return c
}

// Langs returns a snapshot of the catalog sorted by code.
func (c *Catalog) Langs() []domain.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.snapshot())
	}
	return out
}

// Search returns entries whose code or name fuzzy-matches query, best match
// first. An empty query returns every entry.
func (c *Catalog) Search(query string) []domain.CatalogEntry {
	all := c.Langs()
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	targets := make([]string, len(all))
	for i, e := range all {
		targets[i] = e.Code + " " + e.Name
	}
	ranks := fuzzy.RankFindFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Distance < ranks[j].Distance
	})

	out := make([]domain.CatalogEntry, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, all[r.OriginalIndex])
	}
	return out
}

// StartFetchExternal resets the catalog to its local-only baseline and
// starts downloading the remote language list.
func (c *Catalog) StartFetchExternal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busyLocked() {
		return domain.ErrOperationInProgress
	}
	c.entries = clearExternal(c.entries)
	c.fetch = c.exec.Execute("fetch", c.manager.FetchExternal)
	return nil
}

// FetchStatus polls the fetch operation.
func (c *Catalog) FetchStatus() domain.OpStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetch.Status()
}

// LoadFetchedExternal waits for the fetch to finish and replaces the
// catalog with the merged local and remote list.
func (c *Catalog) LoadFetchedExternal() error {
	c.mu.RLock()
	fetch := c.fetch
	installing := c.install.InProgress()
	c.mu.RUnlock()

	if installing {
		return domain.ErrOperationInProgress
	}
	if !fetch.Started() {
		return domain.NewLangManagerError("fetching wasn't started", nil)
	}
	fetch.Wait()

	status := fetch.Status()
	switch {
	case status.Code == domain.OpStatusNone:
		return domain.ErrOperationCanceled
	case status.Code.IsError():
		return &domain.LangManagerError{
			Message: "fetching failed: " + status.ErrorText,
			Network: status.Code == domain.OpStatusNetworkError,
		}
	}

	c.reload()
	return nil
}

// SetInstallMark marks or unmarks code for the next install. Installed
// languages and calls made while installing are ignored.
func (c *Catalog) SetInstallMark(code string, mark bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.install.InProgress() {
		return
	}
	e := c.find(code)
	if e == nil || e.langState() == domain.LangStateInstalled {
		return
	}
	e.mark.Store(mark)
}

// StartInstall installs every marked language, in code order, in the
// background. Marks are cleared when the install starts.
func (c *Catalog) StartInstall() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busyLocked() {
		return domain.ErrOperationInProgress
	}

	var targets []*entry
	for _, e := range c.entries {
		if e.mark.Load() && e.langState() != domain.LangStateInstalled {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		return domain.NewLangManagerError("no languages marked for installation", nil)
	}
	for _, e := range targets {
		e.mark.Store(false)
	}

	c.setProgress(domain.InstallProgress{Code: targets[0].code, Percent: -1, Index: 1, Total: len(targets)})
	c.install = c.exec.Execute("install", func(ctx context.Context) error {
		defer c.setProgress(domain.InstallProgress{})
		return c.installAll(ctx, targets)
	})
	return nil
}

// InstallStatus polls the install operation.
func (c *Catalog) InstallStatus() domain.OpStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.install.Status()
}

// InstallProgress returns the language being installed and its percentage.
func (c *Catalog) InstallProgress() domain.InstallProgress {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	return c.progress
}

// CancelInstall stops the install at its next checkpoint and waits for it.
// Languages installed before the cancel stay installed.
func (c *Catalog) CancelInstall() {
	c.mu.RLock()
	h := c.install
	c.mu.RUnlock()

	h.RequestCancel()
	h.Wait()
}

// RemoveLang deletes the local file of code. A language with a remote
// counterpart reverts to not installed, others leave the catalog.
func (c *Catalog) RemoveLang(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busyLocked() {
		return domain.ErrOperationInProgress
	}
	e := c.find(code)
	if e == nil {
		return domain.NewLangManagerError(fmt.Sprintf("unknown language %q", code), nil)
	}
	if e.langState() == domain.LangStateNotInstalled {
		return nil
	}
	if err := c.manager.Remove(code); err != nil {
		return err
	}

	if le, ok := lookup(c.manager.Langs(), code); ok {
		e.sync(le)
		e.url = le.URL
	} else {
		c.entries = slices.DeleteFunc(c.entries, func(cur *entry) bool { return cur == e })
	}
	c.logger.Info("removed language", "code", code)
	return nil
}

// Close cancels any running operation and releases the data lock.
func (c *Catalog) Close() {
	c.closeOnce.Do(func() {
		c.exec.Close()
		if c.lock != nil {
			c.lock.Release()
		}
	})
}

// installAll installs targets one by one. A failing language does not stop
// the rest; failures are reported together at the end.
func (c *Catalog) installAll(ctx context.Context, targets []*entry) error {
	var (
		failures   []error
		allNetwork = true
	)
	for i, e := range targets {
		if ctx.Err() != nil {
			return domain.ErrOperationCanceled
		}
		c.setProgress(domain.InstallProgress{Code: e.code, Percent: -1, Index: i + 1, Total: len(targets)})

		err := c.manager.Install(ctx, e.code, func(percent int) bool {
			c.setPercent(percent)
			return ctx.Err() == nil
		})
		if le, ok := lookup(c.manager.Langs(), e.code); ok {
			e.sync(le)
		}

		switch {
		case err == nil:
			c.setPercent(100)
		case errors.Is(err, domain.ErrOperationCanceled), ctx.Err() != nil:
			return domain.ErrOperationCanceled
		default:
			c.logger.Warn("language install failed", "code", e.code, "err", err)
			failures = append(failures, err)
			allNetwork = allNetwork && domain.IsNetworkError(err)
		}
	}

	if len(failures) == 0 {
		return nil
	}
	message := fmt.Sprintf("%d of %d languages failed to install", len(failures), len(targets))
	if allNetwork {
		return domain.NewNetworkError(message, errors.Join(failures...))
	}
	return domain.NewLangManagerError(message, errors.Join(failures...))
}

// reload replaces the entries with the manager's current list.
func (c *Catalog) reload() {
	langs := c.manager.Langs()
	entries := make([]*entry, 0, len(langs))
	for _, le := range langs {
		entries = append(entries, newEntry(le))
	}
	slices.SortFunc(entries, func(a, b *entry) int { return strings.Compare(a.code, b.code) })

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// busyLocked reports whether an operation is running. Callers hold c.mu.
func (c *Catalog) busyLocked() bool {
	return c.fetch.InProgress() || c.install.InProgress()
}

// find returns the entry for code or nil. Callers hold c.mu.
func (c *Catalog) find(code string) *entry {
	i, ok := slices.BinarySearchFunc(c.entries, code, func(e *entry, code string) int {
		return strings.Compare(e.code, code)
	})
	if !ok {
		return nil
	}
	return c.entries[i]
}

func (c *Catalog) setProgress(p domain.InstallProgress) {
	c.progressMu.Lock()
	c.progress = p
	c.progressMu.Unlock()
}

func (c *Catalog) setPercent(percent int) {
	c.progressMu.Lock()
	c.progress.Percent = percent
	c.progressMu.Unlock()
}

// clearExternal drops remote-only entries and reverts the rest to installed
// with the remote size and url cleared.
func clearExternal(entries []*entry) []*entry {
	out := make([]*entry, 0, len(entries))
	for _, e := range entries {
		if e.langState() == domain.LangStateNotInstalled {
			continue
		}
		cleared := &entry{code: e.code, name: e.name}
		cleared.state.Store(int32(domain.LangStateInstalled))
		cleared.external.Store(-1)
		cleared.local.Store(e.local.Load())
		out = append(out, cleared)
	}
	return out
}

// lookup finds code in a manager snapshot.
func lookup(langs []engine.LangEntry, code string) (engine.LangEntry, bool) {
	for _, le := range langs {
		if le.Code == code {
			return le, true
		}
	}
	return engine.LangEntry{}, false
}
