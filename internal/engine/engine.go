// Package engine declares the capabilities a recognition backend provides.
package engine

import (
	"context"
	"image"

	"screen-ocr/internal/domain"
)

// Info describes an engine.
type Info struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	HasLangManager bool   `json:"hasLangManager"`
}

// ProgressFunc receives a percentage (or -1 when unknown) and returns false
// to request cancellation.
type ProgressFunc func(percent int) bool

// Recognition is the raw outcome of one Recognize call.
type Recognition struct {
	Status domain.ResultStatus
	Text   string
}

// Recognizer runs text recognition over preprocessed images. Language
// indices refer to the order of Langs.
type Recognizer interface {
	Langs() []domain.LangInfo
	DefaultLangCode() string
	ReloadLangs() error
	Recognize(img *image.Gray, langIndices []int, features domain.Features, progress ProgressFunc) Recognition
	Close() error
}

// LangEntry is a language manager snapshot row.
type LangEntry struct {
	Code  string
	Name  string
	State domain.LangState
	Size  domain.LangSize
	URL   string
}

// LangManager installs and removes language data files for one data directory.
type LangManager interface {
	Langs() []LangEntry
	FetchExternal(ctx context.Context) error
	Install(ctx context.Context, code string, progress ProgressFunc) error
	Remove(code string) error
}

// LangManagerOptions configures a language manager.
type LangManagerOptions struct {
	UserAgent   string
	InfoFileURL string
}

// Engine creates recognizers and language managers for a data directory.
type Engine interface {
	Info() Info
	CreateRecognizer(dataDir string) (Recognizer, error)
	CreateLangManager(dataDir string, opts LangManagerOptions) (LangManager, error)
}
