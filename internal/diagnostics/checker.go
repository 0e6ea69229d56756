package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine/tessdata"
)

// Checker validates the engine selection, data directory, and language setup.
type Checker struct {
	engineIDs  []string
	stat       func(string) (os.FileInfo, error)
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	listLangs  func(string) ([]string, error)
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(engineIDs []string) *Checker {
	return &Checker{
		engineIDs:  engineIDs,
		stat:       os.Stat,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		listLangs:  tessdata.ListLangs,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkEngine(settings.EngineID),
		c.checkDataDir(settings.DataDir),
		c.checkLangs(settings.DataDir, settings.ActiveLangs),
		c.checkInfoFileURL(settings.InfoFileURL),
	}

	report := domain.DiagnosticReport{
		GeneratedAt:  time.Now().UTC(),
		CanRecognize: true,
		Items:        items,
	}
	for _, item := range items {
		if item.Status != domain.DiagnosticStatusFail {
			continue
		}
		report.HasFailures = true
		if item.ID != domain.DiagnosticInfoFileURL {
			report.CanRecognize = false
		}
	}
	return report
}

// checkEngine verifies the configured engine is registered.
func (c *Checker) checkEngine(engineID string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: domain.DiagnosticEngine, Name: "OCR engine"}
	if !slices.Contains(c.engineIDs, engineID) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown OCR engine: %q", engineID)
		item.Hint = "Choose one of: " + strings.Join(c.engineIDs, ", ")
		item.Fixable = true
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = "Using " + engineID
	return item
}

// checkDataDir validates data directory existence and write access.
func (c *Checker) checkDataDir(dataDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   domain.DiagnosticDataDir,
		Name: "Language data directory",
	}

	if strings.TrimSpace(dataDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Language data directory is empty."
		item.Hint = "Set a directory where language files can be installed."
		item.Fixable = true
		return item
	}

	info, err := c.stat(dataDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if IsNotExist(err) {
			item.Message = fmt.Sprintf("Language data directory does not exist: %s", dataDir)
			item.Hint = "Use the fix action to create it."
			item.Fixable = true
		} else {
			item.Message = fmt.Sprintf("Cannot access language data directory: %s", dataDir)
			item.Hint = "Check permissions for the data directory."
		}
		return item
	}
	if !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Not a directory: %s", dataDir)
		item.Hint = "Point the data directory setting to a folder."
		return item
	}

	tmpFile, err := c.createTemp(dataDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Language data directory is not writable: %s", dataDir)
		item.Hint = "Languages can't be installed here. Choose a writable directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dataDir)
	return item
}

// checkLangs verifies at least one language is installed and every active
// language is among them.
func (c *Checker) checkLangs(dataDir string, active []string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: domain.DiagnosticLanguages, Name: "Installed languages"}

	installed, err := c.listLangs(dataDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot list languages in %s", dataDir)
		item.Hint = "Check permissions for the data directory."
		return item
	}
	if len(installed) == 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No languages are installed."
		item.Hint = "Install at least one language with the language manager."
		return item
	}

	var missing []string
	for _, code := range active {
		if !slices.Contains(installed, code) {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Active languages are not installed: " + strings.Join(missing, ", ")
		item.Hint = "Install them or deactivate them in settings."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("%d installed: %s", len(installed), strings.Join(installed, ", "))
	return item
}

// checkInfoFileURL validates the remote language list address.
func (c *Checker) checkInfoFileURL(raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: domain.DiagnosticInfoFileURL, Name: "Language list URL"}

	if strings.TrimSpace(raw) == "" {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Language list URL is not configured."
		item.Hint = "Set info_file_url in settings to enable downloading languages."
		return item
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Invalid language list URL: %s", raw)
		item.Hint = "Use an absolute http or https URL."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = raw
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	engineIDs []string,
	stat func(string) (os.FileInfo, error),
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	listLangs func(string) ([]string, error),
) *Checker {
	return &Checker{
		engineIDs:  engineIDs,
		stat:       stat,
		createTemp: createTemp,
		remove:     remove,
		listLangs:  listLangs,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
