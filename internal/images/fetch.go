package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTooLarge is returned when an image body exceeds the byte limit.
var ErrTooLarge = errors.New("image exceeds size limit")

// Fetcher retrieves the bytes of an image.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// HTTPFetcher fetches http and https URLs.
type HTTPFetcher struct {
	maxBytes   int64
	httpClient *http.Client
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		maxBytes:   maxBytes,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get image %s: status %d: %s", src, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return readLimited(resp.Body, f.maxBytes)
}

// FileFetcher reads file:// URLs and bare paths. Relative paths resolve
// against Root.
type FileFetcher struct {
	Root     string
	MaxBytes int64
}

func (f FileFetcher) Fetch(_ context.Context, src string) ([]byte, error) {
	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()
	return readLimited(file, f.MaxBytes)
}

// DataFetcher decodes base64 data: URLs.
type DataFetcher struct{}

func (DataFetcher) Fetch(_ context.Context, src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data url must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}

// SchemeFetcher routes a source to a fetcher by URL scheme. Sources without
// a scheme use the "file" fetcher.
type SchemeFetcher map[string]Fetcher

// DefaultFetcher handles http, https, file and data sources.
func DefaultFetcher(timeout time.Duration, maxBytes int64) SchemeFetcher {
	h := NewHTTPFetcher(timeout, maxBytes)
	return SchemeFetcher{
		"http":  h,
		"https": h,
		"file":  FileFetcher{MaxBytes: maxBytes},
		"data":  DataFetcher{},
	}
}

func (s SchemeFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	scheme := "file"
	if strings.HasPrefix(src, "data:") {
		scheme = "data"
	} else if u, err := url.Parse(src); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		scheme = strings.ToLower(u.Scheme)
	}
	f, ok := s[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported image scheme %q", scheme)
	}
	return f.Fetch(ctx, src)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
