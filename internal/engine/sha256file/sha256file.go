// Package sha256file caches file digests in "<file>.sha256" sidecars using
// the sha256sum binary-mode line format.
package sha256file

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the sidecar file suffix.
const Ext = ".sha256"

// Calc returns the lowercase hex SHA-256 of the file at path.
func Calc(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Save writes the sidecar for path.
func Save(path, digest string) error {
	line := fmt.Sprintf("%s *%s\n", digest, filepath.Base(path))
	return os.WriteFile(path+Ext, []byte(line), 0o644)
}

// Load reads the sidecar digest for path. A missing sidecar yields "".
func Load(path string) (string, error) {
	data, err := os.ReadFile(path + Ext)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return parseLine(string(data), filepath.Base(path))
}

// Remove deletes the sidecar for path; a missing sidecar is not an error.
func Remove(path string) error {
	if err := os.Remove(path + Ext); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Cached returns the digest for path from its sidecar, computing and saving
// it when the sidecar is missing or invalid.
func Cached(path string) (string, error) {
	if digest, err := Load(path); err == nil && digest != "" {
		return digest, nil
	}

	digest, err := Calc(path)
	if err != nil {
		return "", err
	}
	_ = Save(path, digest)
	return digest, nil
}

// parseLine validates "<digest> *<name>" with an optional line ending.
func parseLine(data, wantName string) (string, error) {
	line := strings.TrimSuffix(strings.TrimSuffix(data, "\n"), "\r")
	if strings.ContainsAny(line, "\r\n") {
		return "", errors.New("file has more than one line, but only one hash definition is expected")
	}

	digest, rest, ok := strings.Cut(line, " ")
	if digest == "" {
		return "", errors.New("line doesn't start with digest")
	}
	if len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("invalid digest size %d (should be %d for SHA-256)", len(digest), sha256.Size*2)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("invalid digest: %w", err)
	}
	if !ok {
		return "", errors.New("digest is not terminated by space")
	}
	name, isBinary := strings.CutPrefix(rest, "*")
	if !isBinary {
		return "", fmt.Errorf("expected binary digest mode \"*\" in %q", rest)
	}
	if name != wantName {
		return "", fmt.Errorf("unexpected file name %q (should be %q)", name, wantName)
	}
	return digest, nil
}
