package api

import (
	"alcyxob/upload-service/internal/domain"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFiles(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)

	req := multipartRequest(t, "/api/v1/files/upload-files",
		formFile{"images", "a.jpg", "aaa"},
		formFile{"images", "b.jpg", "bbb"},
		formFile{"docs[contracts]", "c.pdf", "ccc"},
	)
	rec := h.do(req, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "3 files uploaded successfully", body["message"])
	assert.Equal(t, float64(3), body["confirmedCount"])
	assert.Equal(t, map[string]any{
		"images": []any{"a_alice_1700000000.jpg", "b_alice_1700000000.jpg"},
		"docs":   map[string]any{"contracts": []any{"c_alice_1700000000.pdf"}},
	}, body["fileNames"])

	data, ok := h.backend.Bytes("user-files/c_alice_1700000000.pdf")
	require.True(t, ok)
	assert.Equal(t, "ccc", string(data))
}

func TestUploadFiles_SingleFileMessage(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)

	rec := h.do(multipartRequest(t, "/api/v1/files/upload-files", formFile{"doc", "only.txt", "x"}), token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1 file uploaded successfully", decodeJSON(t, rec)["message"])
}

func TestUploadFiles_Partial(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)
	h.backend.SetPutFault(func(key string) error {
		if strings.Contains(key, "/b_") {
			return assert.AnError
		}
		return nil
	})

	rec := h.do(multipartRequest(t, "/api/v1/files/upload-files",
		formFile{"images", "a.jpg", "aaa"},
		formFile{"images", "b.jpg", "bbb"},
	), token)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "partial", body["status"])
	assert.Equal(t, "1 file uploaded successfully", body["message"])
	assert.Equal(t, map[string]any{
		"images": []any{"a_alice_1700000000.jpg", "b.jpg"},
	}, body["fileNames"])
}

func TestUploadFiles_Validation(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)

	t.Run("not multipart", func(t *testing.T) {
		rec := h.do(postJSON("/api/v1/files/upload-files", `{}`), token)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decodeJSON(t, rec)
		assert.Equal(t, "failed", body["status"])
		assert.Equal(t, "at least one upload group is required", body["error"])
	})

	t.Run("only blank file inputs", func(t *testing.T) {
		// an empty file input is sent with filename="" and parsed as a plain value
		req := multipartRequest(t, "/api/v1/files/upload-files", formFile{"resume", "", ""})
		rec := h.do(req, token)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assert.Equal(t, "at least one upload group is required", decodeJSON(t, rec)["error"])
		assert.Zero(t, h.backend.PutCount())
	})
}

func TestUploadFiles_TooLarge(t *testing.T) {
	h := newHarness(t, 256)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)

	rec := h.do(multipartRequest(t, "/api/v1/files/upload-files",
		formFile{"images", "big.bin", strings.Repeat("x", 4096)},
	), token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Zero(t, h.backend.PutCount())
}

func TestUploadFiles_RequiresAuth(t *testing.T) {
	h := newHarness(t, 0)
	rec := h.do(multipartRequest(t, "/api/v1/files/upload-files", formFile{"a", "a.txt", "a"}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPresignedURL(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"ok", "file_type=user_file&file_name=x.png", http.StatusOK},
		{"unknown category", "file_type=avatars&file_name=x.png", http.StatusBadRequest},
		{"missing category", "file_name=x.png", http.StatusBadRequest},
		{"missing name", "file_type=user_file", http.StatusBadRequest},
		{"path in name", "file_type=user_file&file_name=a/b.png", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/presigned_url?"+tt.query, nil), token)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				body := decodeJSON(t, rec)
				assert.Equal(t, "https://s3.test/bucket/user-files/x.png?X-Amz-Expires=3600&response-content-disposition=attachment", body["url"])
				assert.Equal(t, float64(3600), body["expiresIn"])
			}
		})
	}
}

func TestDownload(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)
	require.NoError(t, h.backend.PutObject(context.Background(), "user-files/note.txt", strings.NewReader("hello"), 5, "text/plain"))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/download?file_type=user_file&file_name=note.txt", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=note.txt", rec.Header().Get("Content-Disposition"))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/download?file_type=user_file&file_name=missing.txt", nil), token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, 0)
	token, _ := h.login(t, "Alice", "alice@example.com", domain.RoleAgent)
	rec := h.do(multipartRequest(t, "/api/v1/files/upload-files", formFile{"doc", "a.txt", "a"}), token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `upload_batch_files_total{result="stored"} 1`)
	assert.Contains(t, rec.Body.String(), "upload_bytes_total 1")
}
