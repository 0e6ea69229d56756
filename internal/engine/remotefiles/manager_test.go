package remotefiles

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/sha256file"
)

// fakeServer serves an info file plus language files.
type fakeServer struct {
	*httptest.Server
	infos     []remoteLang
	files     map[string]string
	userAgent string
}

// newFakeServer starts a server with the given language file contents.
func newFakeServer(t *testing.T, files map[string]string) *fakeServer {
	t.Helper()
	s := &fakeServer{files: files}
	mux := http.NewServeMux()
	mux.HandleFunc("/info.json", func(w http.ResponseWriter, r *http.Request) {
		s.userAgent = r.Header.Get("User-Agent")
		_ = json.NewEncoder(w).Encode(s.infos)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.files[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	for name, body := range files {
		s.infos = append(s.infos, remoteLang{
			Code:   name[:len(name)-len(filepath.Ext(name))],
			Sha256: digestOf(body),
			Size:   int64(len(body)),
			URL:    s.URL + "/files/" + name,
		})
	}
	return s
}

// digestOf returns the hex SHA-256 of body.
func digestOf(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// newTestManager creates a manager over dataDir with local files already written.
func newTestManager(t *testing.T, dataDir, infoURL string, local map[string]string) *Manager {
	t.Helper()
	var codes []string
	for code, body := range local {
		mustWriteFile(t, filepath.Join(dataDir, code+".traineddata"), body)
		codes = append(codes, code)
	}
	return New(Options{
		DataDir:     dataDir,
		FileExt:     ".traineddata",
		UserAgent:   "screen-ocr-test",
		InfoFileURL: infoURL,
		LocalCodes:  codes,
		IgnoreLang:  func(code string) bool { return code == "osd" },
	})
}

// findLang returns the entry for code.
func findLang(t *testing.T, langs []engine.LangEntry, code string) engine.LangEntry {
	t.Helper()
	for _, l := range langs {
		if l.Code == code {
			return l
		}
	}
	t.Fatalf("language %q not found in %+v", code, langs)
	return engine.LangEntry{}
}

// TestFetchExternalMergesBySizeThenDigest checks the merge decision rules.
func TestFetchExternalMergesBySizeThenDigest(t *testing.T) {
	server := newFakeServer(t, map[string]string{
		"eng.traineddata": "english",
		"deu.traineddata": "german",
		"fra.traineddata": "french!",
		"osd.traineddata": "orientation",
	})
	dataDir := t.TempDir()
	m := newTestManager(t, dataDir, server.URL+"/info.json", map[string]string{
		"eng": "english",
		"fra": "french",
	})

	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("FetchExternal() error = %v", err)
	}
	if server.userAgent != "screen-ocr-test" {
		t.Fatalf("user agent = %q", server.userAgent)
	}

	langs := m.Langs()
	if len(langs) != 3 {
		t.Fatalf("langs = %+v, want deu, eng, fra", langs)
	}
	if langs[0].Code != "deu" || langs[1].Code != "eng" || langs[2].Code != "fra" {
		t.Fatalf("order = %s %s %s", langs[0].Code, langs[1].Code, langs[2].Code)
	}

	if eng := findLang(t, langs, "eng"); eng.State != domain.LangStateInstalled {
		t.Fatalf("eng state = %s, want installed", eng.State)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "eng.traineddata"+sha256file.Ext)); err != nil {
		t.Fatalf("expected cached digest sidecar: %v", err)
	}

	fra := findLang(t, langs, "fra")
	if fra.State != domain.LangStateUpdateAvailable {
		t.Fatalf("fra state = %s, want updateAvailable", fra.State)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "fra.traineddata"+sha256file.Ext)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("size mismatch should not hash the file")
	}

	deu := findLang(t, langs, "deu")
	if deu.State != domain.LangStateNotInstalled || deu.URL == "" || deu.Size.External != 6 || deu.Size.Local != -1 {
		t.Fatalf("deu = %+v", deu)
	}
}

// TestFetchExternalTwiceIsIdempotent checks repeated merges give the same snapshot.
func TestFetchExternalTwiceIsIdempotent(t *testing.T) {
	server := newFakeServer(t, map[string]string{
		"eng.traineddata": "english",
		"deu.traineddata": "german",
	})
	m := newTestManager(t, t.TempDir(), server.URL+"/info.json", map[string]string{"eng": "old"})

	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	first := m.Langs()
	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if second := m.Langs(); !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", first, second)
	}
}

// TestFetchExternalFailureRestoresBaseline checks a failed fetch drops remote entries.
func TestFetchExternalFailureRestoresBaseline(t *testing.T) {
	server := newFakeServer(t, map[string]string{"deu.traineddata": "german"})
	m := newTestManager(t, t.TempDir(), server.URL+"/info.json", map[string]string{"eng": "english"})

	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(m.Langs()) != 2 {
		t.Fatalf("langs after fetch = %+v", m.Langs())
	}

	server.infos = append(server.infos, remoteLang{Code: "bad code", URL: "x"})
	err := m.FetchExternal(context.Background())
	var lmErr *domain.LangManagerError
	if !errors.As(err, &lmErr) || lmErr.Network {
		t.Fatalf("fetch error = %v, want generic LangManagerError", err)
	}

	langs := m.Langs()
	if len(langs) != 1 || langs[0].Code != "eng" || langs[0].State != domain.LangStateInstalled || langs[0].URL != "" {
		t.Fatalf("langs after failure = %+v", langs)
	}
}

// TestFetchExternalConnectionFailure checks network classification.
func TestFetchExternalConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	infoURL := server.URL + "/info.json"
	server.Close()

	m := newTestManager(t, t.TempDir(), infoURL, nil)
	err := m.FetchExternal(context.Background())
	if !domain.IsNetworkError(err) {
		t.Fatalf("fetch error = %v, want network error", err)
	}
}

// TestFetchExternalHTTPStatusIsGeneric checks non-200 responses are not network errors.
func TestFetchExternalHTTPStatusIsGeneric(t *testing.T) {
	server := newFakeServer(t, nil)
	m := newTestManager(t, t.TempDir(), server.URL+"/missing.json", nil)

	err := m.FetchExternal(context.Background())
	if err == nil || domain.IsNetworkError(err) {
		t.Fatalf("fetch error = %v, want generic error", err)
	}
}

// TestInstallDownloadsAndSavesDigest checks the install path end to end.
func TestInstallDownloadsAndSavesDigest(t *testing.T) {
	server := newFakeServer(t, map[string]string{"deu.traineddata": "german"})
	dataDir := filepath.Join(t.TempDir(), "tessdata")
	m := newTestManager(t, t.TempDir(), server.URL+"/info.json", nil)
	m.dataDir = dataDir

	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	var reports []int
	err := m.Install(context.Background(), "deu", func(percent int) bool {
		reports = append(reports, percent)
		return true
	})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	path := filepath.Join(dataDir, "deu.traineddata")
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "german" {
		t.Fatalf("installed file = %q, %v", data, err)
	}
	if _, err := os.Stat(path + ".part"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("part file left behind")
	}
	digest, err := sha256file.Load(path)
	if err != nil || digest != digestOf("german") {
		t.Fatalf("sidecar digest = %q, %v", digest, err)
	}
	if len(reports) == 0 || reports[len(reports)-1] != 100 {
		t.Fatalf("progress = %v, want ending at 100", reports)
	}

	deu := findLang(t, m.Langs(), "deu")
	if deu.State != domain.LangStateInstalled || deu.Size.Local != 6 {
		t.Fatalf("deu = %+v", deu)
	}
}

// TestInstallCanceledByProgress checks cancel leaves no file and no state change.
func TestInstallCanceledByProgress(t *testing.T) {
	server := newFakeServer(t, map[string]string{"deu.traineddata": "german"})
	dataDir := t.TempDir()
	m := newTestManager(t, dataDir, server.URL+"/info.json", nil)
	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	err := m.Install(context.Background(), "deu", func(int) bool { return false })
	if !errors.Is(err, domain.ErrOperationCanceled) {
		t.Fatalf("Install() error = %v, want canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "deu.traineddata.part")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("part file left behind")
	}
	if deu := findLang(t, m.Langs(), "deu"); deu.State != domain.LangStateNotInstalled {
		t.Fatalf("deu state = %s, want notInstalled", deu.State)
	}
}

// TestInstallMissingFileIsGenericError checks HTTP failures during download.
func TestInstallMissingFileIsGenericError(t *testing.T) {
	server := newFakeServer(t, map[string]string{"deu.traineddata": "german"})
	m := newTestManager(t, t.TempDir(), server.URL+"/info.json", nil)
	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	delete(server.files, "deu.traineddata")

	err := m.Install(context.Background(), "deu", nil)
	var lmErr *domain.LangManagerError
	if !errors.As(err, &lmErr) || lmErr.Network {
		t.Fatalf("Install() error = %v, want generic LangManagerError", err)
	}
}

// TestRemoveRevertsOrDrops checks removal of remote-known and local-only languages.
func TestRemoveRevertsOrDrops(t *testing.T) {
	server := newFakeServer(t, map[string]string{"eng.traineddata": "english"})
	dataDir := t.TempDir()
	m := newTestManager(t, dataDir, server.URL+"/info.json", map[string]string{
		"eng": "english",
		"xyz": "custom",
	})
	if err := m.FetchExternal(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := m.Remove("eng"); err != nil {
		t.Fatalf("Remove(eng) error = %v", err)
	}
	eng := findLang(t, m.Langs(), "eng")
	if eng.State != domain.LangStateNotInstalled || eng.Size.Local != -1 {
		t.Fatalf("eng = %+v", eng)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "eng.traineddata"+sha256file.Ext)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("sidecar not removed")
	}

	if err := m.Remove("xyz"); err != nil {
		t.Fatalf("Remove(xyz) error = %v", err)
	}
	if langs := m.Langs(); len(langs) != 1 {
		t.Fatalf("langs = %+v, want only eng", langs)
	}
}

// TestProgressReporterSizes checks percent for known, empty and unknown sizes.
func TestProgressReporterSizes(t *testing.T) {
	var got []int
	record := func(p int) bool {
		got = append(got, p)
		return true
	}

	newProgressReporter(200, record).report(50, true)
	newProgressReporter(0, record).report(0, true)
	newProgressReporter(-1, record).report(10, true)

	want := []int{25, 100, -1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reports = %v, want %v", got, want)
	}
}

// TestValidateLangCode checks accepted characters.
func TestValidateLangCode(t *testing.T) {
	for _, code := range []string{"eng", "chi_sim", "script.Latin", "x-1"} {
		if err := validateLangCode(code); err != nil {
			t.Fatalf("validateLangCode(%q) error = %v", code, err)
		}
	}
	for _, code := range []string{"", "a b", "../eng", "eng/x"} {
		if err := validateLangCode(code); err == nil {
			t.Fatalf("validateLangCode(%q) expected error", code)
		}
	}
}

// TestParseInfoFileRequiresSizeAndDigest checks incomplete entries are rejected.
func TestParseInfoFileRequiresSizeAndDigest(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`[{"code":"eng","size":8,"url":"u"}]`, "file info at index 0: missing sha256"},
		{`[{"code":"eng","sha256":"ab","url":"u"}]`, "file info at index 0: missing size"},
		{`[{"code":"eng","sha256":"ab","size":-1,"url":"u"}]`, "file info at index 0: negative size -1"},
		{`[{"code":"eng","sha256":"ab","size":1,"url":"u"},{"code":"deu","sha256":"ab","size":1}]`, "file info at index 1: missing url"},
	}
	for _, tc := range tests {
		_, err := parseInfoFile([]byte(tc.data))
		if err == nil || err.Error() != tc.want {
			t.Fatalf("parseInfoFile(%s) error = %v, want %q", tc.data, err, tc.want)
		}
	}

	langs, err := parseInfoFile([]byte(`[{"code":"eng","hash":"AB","size":0,"url":"u"}]`))
	if err != nil {
		t.Fatalf("parseInfoFile: %v", err)
	}
	want := []remoteLang{{Code: "eng", Sha256: "AB", Size: 0, URL: "u"}}
	if !reflect.DeepEqual(langs, want) {
		t.Fatalf("langs = %+v, want %+v", langs, want)
	}
}

// TestFetchExternalRejectsEntryWithoutDigest checks an installed file is not
// flagged for update by an entry lacking a digest.
func TestFetchExternalRejectsEntryWithoutDigest(t *testing.T) {
	server := newFakeServer(t, map[string]string{"eng.traineddata": "eng-data"})
	server.infos[0].Sha256 = ""
	dataDir := t.TempDir()
	m := newTestManager(t, dataDir, server.URL+"/info.json", map[string]string{"eng": "eng-data"})

	err := m.FetchExternal(context.Background())
	if err == nil || domain.IsNetworkError(err) {
		t.Fatalf("err = %v, want generic error", err)
	}
	eng := findLang(t, m.Langs(), "eng")
	if eng.State != domain.LangStateInstalled {
		t.Fatalf("eng state = %v, want installed", eng.State)
	}
}

// mustWriteFile writes content and creates parent directories.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
