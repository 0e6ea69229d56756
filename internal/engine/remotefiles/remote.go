package remotefiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"screen-ocr/internal/domain"
)

// maxInfoFileSize bounds the JSON info file body.
const maxInfoFileSize = 8 << 20

// remoteLang is one entry of the JSON info file.
type remoteLang struct {
	Code   string `json:"code"`
	Sha256 string `json:"sha256"`
	Size   int64  `json:"size"`
	URL    string `json:"url"`
}

// fetchRemoteList downloads and parses the info file.
func (m *Manager) fetchRemoteList(ctx context.Context) ([]remoteLang, error) {
	if m.infoFileURL == "" {
		return nil, domain.NewLangManagerError("language info file URL is not configured", nil)
	}

	data, err := m.getData(ctx, m.infoFileURL)
	if err != nil {
		if errors.Is(err, domain.ErrOperationCanceled) {
			return nil, err
		}
		message := fmt.Sprintf("can't get data from %q", m.infoFileURL)
		if isConnectionError(err) {
			return nil, domain.NewNetworkError(message, err)
		}
		return nil, domain.NewLangManagerError(message, err)
	}

	langs, err := parseInfoFile(data)
	if err != nil {
		return nil, domain.NewLangManagerError(fmt.Sprintf("can't parse JSON info file from %q", m.infoFileURL), err)
	}
	return langs, nil
}

// getData performs a GET request and returns the body.
func (m *Manager) getData(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrOperationCanceled
		}
		return nil, &connectionError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInfoFileSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrOperationCanceled
		}
		return nil, &connectionError{err: err}
	}
	return data, nil
}

// infoFileEntry is the wire form of remoteLang; pointers tell absent keys
// from zero values.
type infoFileEntry struct {
	Code   string `json:"code"`
	Sha256 string `json:"sha256"`
	Hash   string `json:"hash"`
	Size   *int64 `json:"size"`
	URL    string `json:"url"`
}

// parseInfoFile decodes and validates the info file entries.
func parseInfoFile(data []byte) ([]remoteLang, error) {
	var entries []infoFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	langs := make([]remoteLang, 0, len(entries))
	for i, e := range entries {
		if err := validateLangCode(e.Code); err != nil {
			return nil, fmt.Errorf("file info at index %d: invalid code %q: %w", i, e.Code, err)
		}
		sum := e.Sha256
		if sum == "" {
			sum = e.Hash
		}
		if sum == "" {
			return nil, fmt.Errorf("file info at index %d: missing sha256", i)
		}
		if e.Size == nil {
			return nil, fmt.Errorf("file info at index %d: missing size", i)
		}
		if *e.Size < 0 {
			return nil, fmt.Errorf("file info at index %d: negative size %d", i, *e.Size)
		}
		if e.URL == "" {
			return nil, fmt.Errorf("file info at index %d: missing url", i)
		}
		langs = append(langs, remoteLang{
			Code:   e.Code,
			Sha256: sum,
			Size:   *e.Size,
			URL:    e.URL,
		})
	}
	return langs, nil
}

// validateLangCode accepts non-empty codes made of [0-9A-Za-z._-].
func validateLangCode(code string) error {
	if code == "" {
		return errors.New("code is empty")
	}
	for _, c := range code {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '.', c == '_', c == '-':
		default:
			return fmt.Errorf("unexpected character %q", c)
		}
	}
	return nil
}

// connectionError marks a failure of the transfer itself.
type connectionError struct {
	err error
}

func (e *connectionError) Error() string { return e.err.Error() }
func (e *connectionError) Unwrap() error { return e.err }

// isConnectionError reports whether err came from the network rather than
// from the server response or the local filesystem.
func isConnectionError(err error) bool {
	var connErr *connectionError
	return errors.As(err, &connErr)
}
