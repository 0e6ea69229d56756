// Package tesseract provides the Tesseract engine through gosseract.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/engine/tessdata"
)

// ID is the engine identifier used in data lock keys and settings.
const ID = "tesseract"

// Engine creates gosseract-backed recognizers.
type Engine struct {
	client *http.Client
	logger *slog.Logger
}

// New creates the engine. A nil logger discards output.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		client: &http.Client{Timeout: 30 * time.Minute},
		logger: logger,
	}
}

// Info describes the engine.
func (e *Engine) Info() engine.Info {
	return engine.Info{ID: ID, Name: "Tesseract", HasLangManager: true}
}

// CreateRecognizer opens dataDir for recognition. dataDir may be empty to use
// the Tesseract default location.
func (e *Engine) CreateRecognizer(dataDir string) (engine.Recognizer, error) {
	if dataDir != "" {
		if info, err := os.Stat(dataDir); err == nil && !info.IsDir() {
			return nil, &domain.RecognizerError{Op: domain.RecognizerOpCreate, Err: fmt.Errorf("%q is not a directory", dataDir)}
		}
	}

	r := &Recognizer{dataDir: dataDir, newClient: gosseract.NewClient, logger: e.logger}
	if err := r.ReloadLangs(); err != nil {
		return nil, &domain.RecognizerError{Op: domain.RecognizerOpCreate, Err: err}
	}
	return r, nil
}

// CreateLangManager creates the remote-files language manager for dataDir.
func (e *Engine) CreateLangManager(dataDir string, opts engine.LangManagerOptions) (engine.LangManager, error) {
	return tessdata.NewLangManager(dataDir, opts, e.client, e.logger)
}

// Recognizer runs gosseract over preprocessed grayscale images.
type Recognizer struct {
	dataDir   string
	newClient func() *gosseract.Client
	logger    *slog.Logger

	mu    sync.Mutex
	langs []domain.LangInfo
}

// Langs returns the installed languages in recognizer index order.
func (r *Recognizer) Langs() []domain.LangInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LangInfo(nil), r.langs...)
}

// DefaultLangCode returns the language enabled on first run.
func (r *Recognizer) DefaultLangCode() string {
	return tessdata.DefaultLangCode
}

// ReloadLangs rescans the data directory.
func (r *Recognizer) ReloadLangs() error {
	codes, err := tessdata.ListLangs(r.dataDir)
	if err != nil {
		return &domain.RecognizerError{Op: domain.RecognizerOpReload, Err: err}
	}

	langs := make([]domain.LangInfo, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, domain.LangInfo{Code: code, Name: tessdata.LangName(code)})
	}

	r.mu.Lock()
	r.langs = langs
	r.mu.Unlock()
	return nil
}

// Recognize runs Tesseract on img. The gosseract API has no progress hook,
// so progress is reported before and after the engine call only.
func (r *Recognizer) Recognize(img *image.Gray, langIndices []int, features domain.Features, progress engine.ProgressFunc) engine.Recognition {
	if progress != nil && !progress(0) {
		return engine.Recognition{Status: domain.ResultStatusTerminated}
	}

	codes, err := r.codesFor(langIndices)
	if err != nil {
		return engine.Recognition{Status: domain.ResultStatusError, Text: err.Error()}
	}

	text, err := r.run(img, codes, features)
	if err != nil {
		r.logger.Warn("tesseract recognition failed", "langs", codes, "err", err)
		return engine.Recognition{Status: domain.ResultStatusError, Text: err.Error()}
	}

	if progress != nil && !progress(100) {
		return engine.Recognition{Status: domain.ResultStatusTerminated}
	}
	return engine.Recognition{Status: domain.ResultStatusSuccess, Text: text}
}

// Close releases recognizer resources.
func (r *Recognizer) Close() error {
	return nil
}

// codesFor maps language indices to codes.
func (r *Recognizer) codesFor(langIndices []int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(langIndices))
	for _, idx := range langIndices {
		if idx < 0 || idx >= len(r.langs) {
			return nil, fmt.Errorf("language index %d out of range", idx)
		}
		codes = append(codes, r.langs[idx].Code)
	}
	return codes, nil
}

// run performs one gosseract call with a fresh client.
func (r *Recognizer) run(img *image.Gray, codes []string, features domain.Features) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	c := r.newClient()
	defer c.Close()

	if dir := tessdata.ResolveDir(r.dataDir); dir != "" {
		if err := c.SetTessdataPrefix(dir); err != nil {
			return "", fmt.Errorf("set data dir: %w", err)
		}
	}
	if err := c.SetLanguage(codes...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	mode := gosseract.PSM_SINGLE_BLOCK
	if features.TextSegmentation {
		mode = gosseract.PSM_AUTO
	}
	if err := c.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return normalizeText(text), nil
}

// normalizeText trims surrounding blank space and ends non-empty text with a newline.
func normalizeText(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	return text + "\n"
}
