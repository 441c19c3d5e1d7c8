package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

const (
	defaultExtension = ".pdf"
	fallbackFileName = "document.pdf"

	// Interstitial confirmation pages are small; cap how much HTML gets
	// buffered while looking for the token.
	maxInterstitialBytes = 4 << 20
)

// confirmTokenPattern matches the one-time token the file store embeds in
// its "cannot scan for viruses" interstitial page.
var confirmTokenPattern = regexp.MustCompile(`confirm=([0-9A-Za-z_\-]+)`)

// HTTPFetcher resolves a download link into a file on local scoped storage.
// Large files come back as an HTML confirmation page first; the fetcher
// extracts the token and retries exactly once with it appended. Without that
// step the pipeline would hand an HTML page to the requester as if it were
// the document.
type HTTPFetcher struct {
	httpClient *http.Client
	tempDir    string
	logger     *slog.Logger
}

// NewHTTPFetcher builds a fetcher spooling into tempDir (os.TempDir() when
// empty). A nil httpClient gets a 120-second-bounded default.
func NewHTTPFetcher(logger *slog.Logger, tempDir string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &HTTPFetcher{
		httpClient: httpClient,
		tempDir:    tempDir,
		logger:     logger.With("component", "http_fetcher"),
	}
}

// Fetch runs the download state machine: initial GET, optional single
// confirm-token retry, then stream to a per-invocation unique path. No
// partial file survives a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, link string) (*domain.FetchedDocument, error) {
	resp, err := f.get(ctx, link)
	if err != nil {
		return nil, &domain.DownloadError{Op: "initial request", Err: err}
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		token, err := f.extractToken(resp)
		if err != nil {
			return nil, err
		}

		retryLink := link + "&confirm=" + token
		f.logger.DebugContext(ctx, "Confirmation page detected, retrying with token", "link", link)
		resp, err = f.get(ctx, retryLink)
		if err != nil {
			return nil, &domain.DownloadError{Op: "token retry", Err: err}
		}
	}

	return f.streamToDisk(ctx, resp, link)
}

func (f *HTTPFetcher) get(ctx context.Context, link string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

// extractToken buffers the interstitial HTML and pulls the confirm token out
// of it. Always consumes and closes the response body.
func (f *HTTPFetcher) extractToken(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInterstitialBytes))
	if err != nil {
		return "", &domain.DownloadError{Op: "read confirmation page", Err: err}
	}

	match := confirmTokenPattern.FindSubmatch(body)
	if match == nil {
		return "", &domain.DownloadError{Op: "extract token", Err: domain.ErrConfirmTokenMissing}
	}
	return string(match[1]), nil
}

func (f *HTTPFetcher) streamToDisk(ctx context.Context, resp *http.Response, link string) (*domain.FetchedDocument, error) {
	defer resp.Body.Close()

	fileName := resolveFileName(resp.Header.Get("Content-Disposition"), link)
	localPath := filepath.Join(f.tempDir, uuid.NewString()+"-"+fileName)

	out, err := os.Create(localPath)
	if err != nil {
		return nil, &domain.DownloadError{Op: "create temp file", Err: err}
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return nil, &domain.DownloadError{Op: "stream to disk", Err: err}
	}

	f.logger.DebugContext(ctx, "Document streamed to disk", "path", localPath, "size_bytes", written)
	return &domain.FetchedDocument{
		LocalPath: localPath,
		FileName:  fileName,
		SizeBytes: written,
	}, nil
}

// resolveFileName picks the output name by priority: content-disposition
// filename, then the link's id parameter plus the default extension, then a
// fixed fallback.
func resolveFileName(contentDisposition, link string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := filepath.Base(params["filename"]); name != "" && name != "." && name != string(filepath.Separator) {
				return name
			}
		}
	}

	if u, err := url.Parse(link); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id + defaultExtension
		}
	}

	return fallbackFileName
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
