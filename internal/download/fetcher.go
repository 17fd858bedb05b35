package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// browserHeaders mimics a desktop Chrome navigation; the exam site rejects bare clients.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7",
	"Cache-Control":             "no-cache",
	"Connection":                "keep-alive",
	"Pragma":                    "no-cache",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
	"sec-ch-ua":                 `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Linux"`,
}

var pdfMagic = []byte("%PDF-")

// Config for a Fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher downloads exam papers over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewFetcher(cfg Config, client *http.Client, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Fetcher{client: client, userAgent: ua, logger: logger}
}

// Download fetches url into dest, creating the parent folder. The body lands
// in a temp file first so a failed transfer never leaves a partial dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	if url == "" {
		return fmt.Errorf("download %s: empty url", filepath.Base(dest))
	}
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Debug("download.request", "req_id", reqID, "url", url, "dest", dest)
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("download.send_error", "req_id", reqID, "url", url, "error", err)
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("download.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		f.logger.Warn("download.bad_status", "req_id", reqID, "url", url, "status", resp.StatusCode)
		return fmt.Errorf("get %s: non-2xx status: %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return fmt.Errorf("write %s: %w", dest, copyErr)
		}
		return fmt.Errorf("close %s: %w", dest, closeErr)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", dest, err)
	}

	f.logger.Info("download.ok",
		"req_id", reqID,
		"file", filepath.Base(dest),
		"bytes", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// EnsurePDF downloads url into dest unless dest already holds a non-empty PDF.
func (f *Fetcher) EnsurePDF(ctx context.Context, url, dest string) (bool, error) {
	if IsPDF(dest) {
		return false, nil
	}
	if err := f.Download(ctx, url, dest); err != nil {
		return false, err
	}
	return true, nil
}

// IsPDF reports whether path is a readable, non-empty file starting with %PDF-.
func IsPDF(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(fh, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfMagic)
}

// Exists reports whether path is a regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
