// Package tessdata knows the layout of a Tesseract data directory.
package tessdata

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/remotefiles"
)

// Ext is the language data file extension.
const Ext = ".traineddata"

// DefaultLangCode is the language enabled on first run.
const DefaultLangCode = "eng"

// EnvDataPrefix names the directory Tesseract uses when no data dir is set.
const EnvDataPrefix = "TESSDATA_PREFIX"

// IsIgnored reports whether code is auxiliary data rather than a language.
func IsIgnored(code string) bool {
	return code == "equ" || code == "osd"
}

// ResolveDir returns dataDir, or the TESSDATA_PREFIX directory when empty.
func ResolveDir(dataDir string) string {
	if dataDir != "" {
		return dataDir
	}
	return os.Getenv(EnvDataPrefix)
}

// ListLangs returns the sorted language codes installed in dataDir. A missing
// directory has no languages.
func ListLangs(dataDir string) ([]string, error) {
	dir := ResolveDir(dataDir)
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var codes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		code, ok := strings.CutSuffix(entry.Name(), Ext)
		if !ok || code == "" || IsIgnored(code) {
			continue
		}
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}

// NewLangManager creates a remote-files language manager for dataDir.
func NewLangManager(dataDir string, opts engine.LangManagerOptions, client *http.Client, logger *slog.Logger) (*remotefiles.Manager, error) {
	dir := ResolveDir(dataDir)
	if dir == "" {
		return nil, errors.New("tesseract data directory is not set")
	}

	codes, err := ListLangs(dir)
	if err != nil {
		return nil, err
	}

	return remotefiles.New(remotefiles.Options{
		DataDir:     dir,
		FileExt:     Ext,
		UserAgent:   opts.UserAgent,
		InfoFileURL: opts.InfoFileURL,
		LocalCodes:  codes,
		IgnoreLang:  IsIgnored,
		LangName:    LangName,
		Client:      client,
		Logger:      logger,
	}), nil
}
