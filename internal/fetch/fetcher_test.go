package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/status"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>page body</body></html>"))
	})
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("imagebytes"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher() *CollyFetcher {
	return New(Config{
		UserAgent: "archharvest-test",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestFetch(t *testing.T) {
	srv := testServer(t)
	f := newTestFetcher()

	t.Run("ReturnsBody", func(t *testing.T) {
		body, err := f.Fetch(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		assert.Contains(t, string(body), "page body")
	})

	t.Run("HTTPErrorStatusIsTransportError", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		assert.ErrorIs(t, err, status.ErrTransport)
	})

	t.Run("UnreachableHostIsTransportError", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/page")
		assert.ErrorIs(t, err, status.ErrTransport)
	})
}

func TestDownload(t *testing.T) {
	srv := testServer(t)
	f := newTestFetcher()

	t.Run("WritesBodyToDest", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "img.jpg")
		require.NoError(t, f.Download(context.Background(), srv.URL+"/image.jpg", dest))

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "imagebytes", string(data))
	})

	t.Run("FailedFetchLeavesNoFile", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "img.jpg")
		require.Error(t, f.Download(context.Background(), srv.URL+"/missing", dest))

		_, err := os.Stat(dest)
		assert.True(t, os.IsNotExist(err))
	})
}
