package config

import (
	"os"
	"path/filepath"
	"runtime"

	"screen-ocr/internal/domain"
)

const (
	// Version is reported in the default user agent.
	Version = "0.1.0"

	defaultEngineID = "tesseract"
	appDirName      = "screen-ocr"
)

// DefaultUserAgent is sent with every language manager request.
func DefaultUserAgent() string {
	return appDirName + "/" + Version
}

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		EngineID:    defaultEngineID,
		DataDir:     filepath.Join(userDataDir(), "tesseract"),
		UserAgent:   DefaultUserAgent(),
		ActiveLangs: []string{"eng"},
		Logging: domain.LoggingSettings{
			File:  filepath.Join(userDataDir(), "screen-ocr.log"),
			Level: "INFO",
		},
	}
}

// DefaultPath returns the settings file location for the current OS.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, appDirName, "settings.json")
}

// userDataDir returns the per-user data directory for the current OS.
func userDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appDirName)
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		return filepath.Join(home, ".local", "share", appDirName)
	}
}
