package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

func newTestClient(server *httptest.Server) *WatiClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWatiClient(logger, server.URL, "test-token", server.Client())
}

func TestWatiClient_SendText_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/sendSessionMessage/12025550178", r.URL.Path)
		assert.Equal(t, "Phone number not found in the database", r.URL.Query().Get("messageText"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"result": true, "info": "message queued"})
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.SendText(context.Background(), "+12025550178", "Phone number not found in the database")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, true, result.Response["result"])
}

func TestWatiClient_SendText_SuccessKeyVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.SendText(context.Background(), "12025550178", "hello")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestWatiClient_SendText_NotAsserted(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "explicit false", body: `{"result": false, "info": "invalid whatsapp number"}`},
		{name: "missing flags", body: `{"status": "ok"}`},
		{name: "truthy string is not boolean true", body: `{"result": "true"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server)
			_, err := client.SendText(context.Background(), "12025550178", "hello")
			require.Error(t, err)

			var dispatchErr *domain.DispatchError
			assert.ErrorAs(t, err, &dispatchErr)
		})
	}
}

func TestWatiClient_SendText_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login page</html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.SendText(context.Background(), "12025550178", "hello")
	require.Error(t, err)

	var dispatchErr *domain.DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
}

func TestWatiClient_SendDocument_Success(t *testing.T) {
	content := []byte("%PDF-1.4 report card")
	dir := t.TempDir()
	localPath := filepath.Join(dir, "abc-EN100-report.pdf")
	require.NoError(t, os.WriteFile(localPath, content, 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sendSessionFile/12025550178", r.URL.Path)
		assert.Equal(t, "Here is your document: EN100-report.pdf", r.URL.Query().Get("caption"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "EN100-report.pdf", header.Filename)

		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, got)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"result": true})
	}))
	defer server.Close()

	client := newTestClient(server)
	doc := &domain.FetchedDocument{
		LocalPath: localPath,
		FileName:  "EN100-report.pdf",
		SizeBytes: int64(len(content)),
	}

	result, err := client.SendDocument(context.Background(), "+12025550178", "EN100-report.pdf", doc)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// The dispatcher only reads the file; releasing it stays with the caller.
	_, statErr := os.Stat(localPath)
	assert.NoError(t, statErr)
}

func TestWatiClient_SendDocument_MissingLocalFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway must not be called when the local file cannot be opened")
	}))
	defer server.Close()

	client := newTestClient(server)
	doc := &domain.FetchedDocument{LocalPath: filepath.Join(t.TempDir(), "missing.pdf"), FileName: "missing.pdf"}

	_, err := client.SendDocument(context.Background(), "12025550178", "missing.pdf", doc)
	require.Error(t, err)

	var dispatchErr *domain.DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
}
