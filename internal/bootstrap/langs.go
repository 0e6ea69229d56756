package bootstrap

import (
	"errors"
	"fmt"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/jobs"
	"screen-ocr/internal/langs"
)

// errCatalogClosed is returned by catalog calls made before OpenLangCatalog.
var errCatalogClosed = errors.New("language manager is not open")

// networkHint is appended to network-class language errors.
const networkHint = "Check your internet connection."

// OpenLangCatalog opens the language manager for the configured data
// directory. Recognition is paused until CloseLangCatalog.
func (a *App) OpenLangCatalog() error {
	a.mu.Lock()
	if a.catalog != nil {
		a.mu.Unlock()
		return nil
	}
	settings := a.Settings
	a.mu.Unlock()

	catalog, err := a.Service.CreateLangCatalog(settings.EngineID, settings.DataDir)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.catalog = catalog
	a.lastFetch = domain.OpStatus{}
	a.lastInstall = domain.OpStatus{}
	a.mu.Unlock()
	return nil
}

// CloseLangCatalog closes the language manager and resumes recognition with
// the updated language list.
func (a *App) CloseLangCatalog() {
	a.mu.Lock()
	catalog := a.catalog
	a.catalog = nil
	settings := a.Settings
	session := a.session
	a.mu.Unlock()

	if catalog == nil {
		return
	}
	catalog.Close()
	if session != nil {
		applyActiveLangs(session, settings.ActiveLangs)
	}
}

// CatalogLangs returns catalog entries matching query, or all for an empty query.
func (a *App) CatalogLangs(query string) ([]domain.CatalogEntry, error) {
	catalog, err := a.currentCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Search(query), nil
}

// StartFetchLangs starts downloading the remote language list.
func (a *App) StartFetchLangs() error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	return catalog.StartFetchExternal()
}

// FetchLangsStatus polls the language list download.
func (a *App) FetchLangsStatus() domain.OpStatus {
	catalog, err := a.currentCatalog()
	if err != nil {
		return domain.OpStatus{}
	}
	return withHint(catalog.FetchStatus())
}

// LoadFetchedLangs merges the downloaded list into the catalog.
func (a *App) LoadFetchedLangs() error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	return catalog.LoadFetchedExternal()
}

// SetInstallMark marks a language for the next install.
func (a *App) SetInstallMark(code string, mark bool) error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	catalog.SetInstallMark(code, mark)
	return nil
}

// StartInstallLangs installs every marked language in the background.
func (a *App) StartInstallLangs() error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	return catalog.StartInstall()
}

// InstallLangsStatus polls the install operation.
func (a *App) InstallLangsStatus() domain.OpStatus {
	catalog, err := a.currentCatalog()
	if err != nil {
		return domain.OpStatus{}
	}
	return withHint(catalog.InstallStatus())
}

// InstallLangsProgress returns the language being installed.
func (a *App) InstallLangsProgress() domain.InstallProgress {
	catalog, err := a.currentCatalog()
	if err != nil {
		return domain.InstallProgress{}
	}
	return catalog.InstallProgress()
}

// CancelInstallLangs stops the install and waits for it to unwind.
func (a *App) CancelInstallLangs() error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	catalog.CancelInstall()
	return nil
}

// RemoveLang deletes an installed language.
func (a *App) RemoveLang(code string) error {
	catalog, err := a.currentCatalog()
	if err != nil {
		return err
	}
	if err := catalog.RemoveLang(code); err != nil {
		return err
	}
	a.publishEvent(jobs.Event{Type: jobs.EventTypeLang, LangCode: code, Message: "removed"})
	return nil
}

// pollCatalog publishes language operation status changes.
func (a *App) pollCatalog() {
	a.mu.Lock()
	catalog := a.catalog
	a.mu.Unlock()
	if catalog == nil {
		return
	}

	fetch := catalog.FetchStatus()
	install := catalog.InstallStatus()
	progress := catalog.InstallProgress()

	a.mu.Lock()
	fetchChanged := fetch != a.lastFetch
	installChanged := install != a.lastInstall
	a.lastFetch = fetch
	a.lastInstall = install
	a.mu.Unlock()

	if fetchChanged {
		a.publishLangStatus("fetch", "", fetch)
	}
	if installChanged {
		a.publishLangStatus("install", progress.Code, install)
	}
}

func (a *App) publishLangStatus(op, code string, status domain.OpStatus) {
	status = withHint(status)
	a.publishEvent(jobs.Event{
		Type:     jobs.EventTypeLang,
		LangCode: code,
		Message:  fmt.Sprintf("%s %s", op, status.Code),
		OpStatus: &status,
		Network:  status.Code == domain.OpStatusNetworkError,
	})
}

func (a *App) currentCatalog() (*langs.Catalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.catalog == nil {
		return nil, errCatalogClosed
	}
	return a.catalog, nil
}

// withHint appends connectivity guidance to network errors.
func withHint(status domain.OpStatus) domain.OpStatus {
	if status.Code == domain.OpStatusNetworkError && status.ErrorText != "" {
		status.ErrorText += ". " + networkHint
	}
	return status
}
