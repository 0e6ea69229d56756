package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"screen-ocr/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. SCREEN_OCR_DATA_DIR.
const EnvPrefix = "SCREEN_OCR"

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// FileStore persists settings in a JSON file through viper. Environment
// variables override file values on load.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed settings store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads settings from disk, falling back to defaults for a missing file
// or missing keys.
func (s *FileStore) Load() (domain.Settings, error) {
	v := s.newViper()
	setDefaults(v, DefaultSettings())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return domain.Settings{}, fmt.Errorf("read settings %q: %w", s.path, err)
		}
	}

	var cfg domain.Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings %q: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes settings and creates parent directories.
func (s *FileStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	v := s.newViper()
	v.Set("engine_id", cfg.EngineID)
	v.Set("data_dir", cfg.DataDir)
	v.Set("info_file_url", cfg.InfoFileURL)
	v.Set("user_agent", cfg.UserAgent)
	v.Set("active_langs", cfg.ActiveLangs)
	v.Set("text_segmentation", cfg.TextSegmentation)
	v.Set("dump_debug_images", cfg.DumpDebugImages)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %q: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every settings key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg domain.Settings) {
	v.SetDefault("engine_id", cfg.EngineID)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("info_file_url", cfg.InfoFileURL)
	v.SetDefault("user_agent", cfg.UserAgent)
	v.SetDefault("active_langs", cfg.ActiveLangs)
	v.SetDefault("text_segmentation", cfg.TextSegmentation)
	v.SetDefault("dump_debug_images", cfg.DumpDebugImages)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}
