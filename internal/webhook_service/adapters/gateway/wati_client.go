package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

const (
	sendSessionFilePath    = "/api/v1/sendSessionFile/"
	sendSessionMessagePath = "/api/v1/sendSessionMessage/"

	// Every gateway call is bounded by this timeout.
	requestTimeout = 10 * time.Second
)

// WatiClient talks to the Wati WhatsApp gateway's session endpoints. A send
// only counts as successful when the response body asserts it explicitly
// (success or result set to true); any other shape is a failure.
type WatiClient struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	logger     *slog.Logger
}

func NewWatiClient(logger *slog.Logger, baseURL, authToken string, httpClient *http.Client) *WatiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &WatiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		authToken:  authToken,
		logger:     logger.With("component", "wati_client"),
	}
}

// SendDocument posts the fetched file as multipart form data to the
// session-file endpoint, with a caption referencing displayName. Ownership of
// the file stays with the caller; it is only read here.
func (c *WatiClient) SendDocument(ctx context.Context, phone, displayName string, doc *domain.FetchedDocument) (*domain.DeliveryResult, error) {
	file, err := os.Open(doc.LocalPath)
	if err != nil {
		return nil, &domain.DispatchError{Op: "open document", Err: err}
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", doc.FileName)
	if err != nil {
		return nil, &domain.DispatchError{Op: "build multipart form", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &domain.DispatchError{Op: "build multipart form", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &domain.DispatchError{Op: "build multipart form", Err: err}
	}

	caption := "Here is your document: " + displayName
	endpoint := c.baseURL + sendSessionFilePath + domain.DigitsOnly(phone) + "?caption=" + url.QueryEscape(caption)

	c.logger.InfoContext(ctx, "Sending document via Wati", "phone", phone, "file_name", doc.FileName, "size_bytes", doc.SizeBytes)
	return c.post(ctx, "send file", endpoint, writer.FormDataContentType(), &body)
}

// SendText posts a plain-text message to the session-message endpoint.
func (c *WatiClient) SendText(ctx context.Context, phone, message string) (*domain.DeliveryResult, error) {
	endpoint := c.baseURL + sendSessionMessagePath + domain.DigitsOnly(phone) + "?messageText=" + url.QueryEscape(message)

	c.logger.InfoContext(ctx, "Sending text via Wati", "phone", phone)
	return c.post(ctx, "send text", endpoint, "", nil)
}

func (c *WatiClient) post(ctx context.Context, op, endpoint, contentType string, body io.Reader) (*domain.DeliveryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, &domain.DispatchError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.DispatchError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &domain.DispatchError{Op: op, Err: fmt.Errorf("read response (status %d): %w", httpResp.StatusCode, err)}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.logger.WarnContext(ctx, "Gateway response is not JSON", "operation", op, "status_code", httpResp.StatusCode, "body_len", len(respBody))
		return nil, &domain.DispatchError{Op: op, Err: fmt.Errorf("unparseable response (status %d)", httpResp.StatusCode)}
	}

	if !asserted(parsed) {
		c.logger.WarnContext(ctx, "Gateway did not assert success", "operation", op, "status_code", httpResp.StatusCode)
		return nil, &domain.DispatchError{Op: op, Err: errors.New(describeFailure(parsed, httpResp.StatusCode))}
	}

	return &domain.DeliveryResult{Success: true, Response: parsed}, nil
}

// asserted reports whether the gateway response explicitly claims success.
// Wati answers with "result", some deployments with "success"; either must
// be boolean true.
func asserted(resp map[string]interface{}) bool {
	if v, ok := resp["success"].(bool); ok && v {
		return true
	}
	if v, ok := resp["result"].(bool); ok && v {
		return true
	}
	return false
}

func describeFailure(resp map[string]interface{}, statusCode int) string {
	if info, ok := resp["info"].(string); ok && info != "" {
		return fmt.Sprintf("gateway rejected send (status %d): %s", statusCode, info)
	}
	if msg, ok := resp["message"].(string); ok && msg != "" {
		return fmt.Sprintf("gateway rejected send (status %d): %s", statusCode, msg)
	}
	return fmt.Sprintf("gateway rejected send (status %d)", statusCode)
}
