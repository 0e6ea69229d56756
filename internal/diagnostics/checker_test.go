package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine/tessdata"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	dataDir := t.TempDir()
	for _, name := range []string{"eng.traineddata", "deu.traineddata", "osd.traineddata"} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	checker := NewCheckerForTests([]string{"tesseract"}, os.Stat, os.CreateTemp, os.Remove, tessdata.ListLangs)
	report := checker.Run(domain.Settings{
		EngineID:    "tesseract",
		DataDir:     dataDir,
		InfoFileURL: "https://example.com/languages.json",
		ActiveLangs: []string{"eng", "deu"},
	})

	if report.HasFailures || !report.CanRecognize {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
}

// TestCheckerRunMissingPaths validates failure reporting.
func TestCheckerRunMissingPaths(t *testing.T) {
	checker := NewCheckerForTests(
		[]string{"tesseract"},
		os.Stat,
		os.CreateTemp,
		os.Remove,
		func(string) ([]string, error) { return nil, nil },
	)

	report := checker.Run(domain.Settings{
		EngineID: "other",
		DataDir:  "/path/that/does/not/exist",
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "engine", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "data_dir", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "languages", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "info_file_url", domain.DiagnosticStatusWarn)
	if report.CanRecognize {
		t.Fatal("expected CanRecognize = false")
	}
	for _, id := range []string{"engine", "data_dir"} {
		if !itemByID(t, report, id).Fixable {
			t.Fatalf("item %s: expected fixable", id)
		}
	}
	if itemByID(t, report, "languages").Fixable {
		t.Fatal("item languages: expected not fixable")
	}
}

// TestCheckerRunMissingInfoURLStillRecognizes checks an unconfigured language
// list only warns.
func TestCheckerRunMissingInfoURLStillRecognizes(t *testing.T) {
	checker := NewCheckerForTests(
		[]string{"tesseract"},
		os.Stat,
		os.CreateTemp,
		os.Remove,
		func(string) ([]string, error) { return []string{"eng"}, nil },
	)
	report := checker.Run(domain.Settings{
		EngineID:    "tesseract",
		DataDir:     t.TempDir(),
		ActiveLangs: []string{"eng"},
	})

	assertStatusByID(t, report, "info_file_url", domain.DiagnosticStatusWarn)
	if report.HasFailures || !report.CanRecognize {
		t.Fatalf("HasFailures = %v, CanRecognize = %v, want false, true", report.HasFailures, report.CanRecognize)
	}
}

// TestCheckerRunMissingActiveLangFails validates the active language check.
func TestCheckerRunMissingActiveLangFails(t *testing.T) {
	checker := NewCheckerForTests(
		[]string{"tesseract"},
		os.Stat,
		os.CreateTemp,
		os.Remove,
		func(string) ([]string, error) { return []string{"eng"}, nil },
	)
	report := checker.Run(domain.Settings{
		EngineID:    "tesseract",
		DataDir:     t.TempDir(),
		InfoFileURL: "ftp://example.com/x",
		ActiveLangs: []string{"eng", "fra"},
	})

	assertStatusByID(t, report, "data_dir", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "languages", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "info_file_url", domain.DiagnosticStatusFail)
}

// TestCheckerRunUnwritableDataDir validates the write probe.
func TestCheckerRunUnwritableDataDir(t *testing.T) {
	checker := NewCheckerForTests(
		[]string{"tesseract"},
		os.Stat,
		func(string, string) (*os.File, error) { return nil, errors.New("read-only") },
		os.Remove,
		func(string) ([]string, error) { return []string{"eng"}, nil },
	)
	report := checker.Run(domain.Settings{EngineID: "tesseract", DataDir: t.TempDir()})

	assertStatusByID(t, report, "data_dir", domain.DiagnosticStatusFail)
}

// itemByID returns the diagnostic item with id.
func itemByID(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %s not found", id)
	return domain.DiagnosticItem{}
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
