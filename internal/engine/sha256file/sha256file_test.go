package sha256file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// emptyDigest is the SHA-256 of zero bytes.
const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// TestCalcAndSidecarRoundTrip checks digest computation and the sidecar line format.
func TestCalcAndSidecarRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eng.traineddata")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	digest, err := Calc(path)
	if err != nil {
		t.Fatalf("Calc() error = %v", err)
	}
	if digest != emptyDigest {
		t.Fatalf("digest = %s, want %s", digest, emptyDigest)
	}

	if err := Save(path, digest); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path + Ext)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(data) != emptyDigest+" *eng.traineddata\n" {
		t.Fatalf("sidecar = %q", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != digest {
		t.Fatalf("loaded = %s, want %s", loaded, digest)
	}
}

// TestLoadMissingSidecar checks the empty-digest result.
func TestLoadMissingSidecar(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "deu.traineddata"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "" {
		t.Fatalf("digest = %q, want empty", got)
	}
}

// TestParseLineRejectsMalformed checks sidecar validation.
func TestParseLineRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"short":      "abc *eng.traineddata\n",
		"no mode":    emptyDigest + " eng.traineddata\n",
		"wrong name": emptyDigest + " *deu.traineddata\n",
		"two lines":  emptyDigest + " *eng.traineddata\n\n",
		"no space":   emptyDigest,
	}
	for name, line := range cases {
		if _, err := parseLine(line, "eng.traineddata"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	got, err := parseLine(emptyDigest+" *eng.traineddata\r\n", "eng.traineddata")
	if err != nil || got != emptyDigest {
		t.Fatalf("crlf parse = %q, %v", got, err)
	}
}

// TestCachedRewritesStaleSidecar checks recomputation on an invalid sidecar.
func TestCachedRewritesStaleSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eng.traineddata")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path+Ext, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	got, err := Cached(path)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if got != emptyDigest {
		t.Fatalf("digest = %s, want %s", got, emptyDigest)
	}
	data, _ := os.ReadFile(path + Ext)
	if !strings.HasPrefix(string(data), emptyDigest) {
		t.Fatalf("sidecar not rewritten: %q", data)
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := Remove(path); err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
}
