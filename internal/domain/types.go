package domain

import "time"

// JobStatus tracks the worker stage of the recognition job in flight.
type JobStatus string

const (
	JobStatusIdle          JobStatus = "idle"
	JobStatusPreprocessing JobStatus = "preprocessing"
	JobStatusRecognizing   JobStatus = "recognizing"
)

// ResultStatus is the terminal outcome of one recognition job.
type ResultStatus string

const (
	ResultStatusSuccess    ResultStatus = "success"
	ResultStatusTerminated ResultStatus = "terminated"
	ResultStatusError      ResultStatus = "error"
)

// Features are per-job recognition toggles.
type Features struct {
	TextSegmentation bool `json:"textSegmentation"`
}

// JobResult is one finished job as handed back to the caller.
type JobResult struct {
	JobID     string       `json:"jobId"`
	Status    ResultStatus `json:"status"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
}

// Progress is the worker progress snapshot. TotalJobs == 0 means no pending work.
type Progress struct {
	CurJobProgress int `json:"curJobProgress"`
	CurJob         int `json:"curJob"`
	TotalJobs      int `json:"totalJobs"`
}

// Lang is one recognizer language as seen by a session.
type Lang struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Index    int    `json:"-"`
	IsActive bool   `json:"isActive"`
}

// LangInfo is a language reported by a recognizer.
type LangInfo struct {
	Code string
	Name string
}

// LangState is the install state of a catalog language.
type LangState int32

const (
	LangStateNotInstalled LangState = iota
	LangStateInstalled
	LangStateUpdateAvailable
)

// String returns the lower camel name used in events and logs.
func (s LangState) String() string {
	switch s {
	case LangStateNotInstalled:
		return "notInstalled"
	case LangStateInstalled:
		return "installed"
	case LangStateUpdateAvailable:
		return "updateAvailable"
	default:
		return "unknown"
	}
}

// LangSize holds byte sizes; -1 means unknown.
type LangSize struct {
	External int64 `json:"external"`
	Local    int64 `json:"local"`
}

// UnknownLangSize has both sizes unknown.
var UnknownLangSize = LangSize{External: -1, Local: -1}

// CatalogEntry is a snapshot of one language in a catalog.
type CatalogEntry struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	State       LangState `json:"state"`
	Size        LangSize  `json:"size"`
	RemoteURL   string    `json:"remoteUrl,omitempty"`
	InstallMark bool      `json:"installMark"`
}

// InstallProgress describes the language currently being installed.
// Index is 1-based; the zero value means no install is running.
type InstallProgress struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
}

// OpStatusCode is the state of an asynchronous language operation.
type OpStatusCode int

const (
	OpStatusNone OpStatusCode = iota
	OpStatusInProgress
	OpStatusSuccess
	OpStatusGenericError
	OpStatusNetworkError
)

// IsError reports whether the code is one of the failure codes.
func (c OpStatusCode) IsError() bool {
	return c >= OpStatusGenericError
}

// String returns a short name for logs.
func (c OpStatusCode) String() string {
	switch c {
	case OpStatusNone:
		return "none"
	case OpStatusInProgress:
		return "inProgress"
	case OpStatusSuccess:
		return "success"
	case OpStatusGenericError:
		return "genericError"
	case OpStatusNetworkError:
		return "networkError"
	default:
		return "unknown"
	}
}

// OpStatus is a polled operation status with the failure text, if any.
type OpStatus struct {
	Code      OpStatusCode `json:"code"`
	ErrorText string       `json:"errorText,omitempty"`
}

// LoggingSettings controls the slog output.
type LoggingSettings struct {
	File  string `json:"file" mapstructure:"file"`
	Level string `json:"level" mapstructure:"level"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	EngineID         string          `json:"engineId" mapstructure:"engine_id"`
	DataDir          string          `json:"dataDir" mapstructure:"data_dir"`
	InfoFileURL      string          `json:"infoFileUrl" mapstructure:"info_file_url"`
	UserAgent        string          `json:"userAgent" mapstructure:"user_agent"`
	ActiveLangs      []string        `json:"activeLangs" mapstructure:"active_langs"`
	TextSegmentation bool            `json:"textSegmentation" mapstructure:"text_segmentation"`
	DumpDebugImages  bool            `json:"dumpDebugImages" mapstructure:"dump_debug_images"`
	Logging          LoggingSettings `json:"logging" mapstructure:"logging"`
}
