package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"screen-ocr/internal/config"
	"screen-ocr/internal/domain"
)

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic item
// and reopens the recognition session when the fix changed where it runs.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case domain.DiagnosticDataDir:
		settings, settingsChanged, fixErr = fixDataDir(settings)
	case domain.DiagnosticEngine:
		settings, settingsChanged = fixEngine(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	if fixErr != nil {
		return a.refreshDiagnosticsFromSettings(settings), fixErr
	}

	reopenErr := a.applySettings(settings)
	report := a.refreshDiagnosticsFromSettings(settings)
	if reopenErr != nil {
		return report, fmt.Errorf("open recognition session: %w", reopenErr)
	}
	return report, nil
}

// fixDataDir creates the data directory, choosing the default when empty.
func fixDataDir(settings domain.Settings) (domain.Settings, bool, error) {
	dataDir := strings.TrimSpace(settings.DataDir)
	changed := false
	if dataDir == "" {
		dataDir = config.DefaultSettings().DataDir
		settings.DataDir = dataDir
		changed = true
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	return settings, changed, nil
}

// fixEngine resets the engine selection to the default.
func fixEngine(settings domain.Settings) (domain.Settings, bool) {
	engineID := config.DefaultSettings().EngineID
	if settings.EngineID == engineID {
		return settings, false
	}
	settings.EngineID = engineID
	return settings, true
}
