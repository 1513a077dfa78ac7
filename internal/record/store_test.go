package record

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriteDetails(t *testing.T) {
	dataDir := t.TempDir()
	store := NewStore(dataDir, zap.NewNop())

	detail := Detail{
		ProjectID:  "123456",
		Title:      "Ocean Science Museum",
		ProjectURL: "https://example.com/123456/x?a=1&b=2",
	}
	require.NoError(t, store.WriteDetails("123456", detail))

	data, err := os.ReadFile(filepath.Join(dataDir, "123456", "123456_details.json"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, `"Project Title": "Ocean Science Museum"`)
	// Empty fields are dropped entirely.
	assert.NotContains(t, content, "Description")
	assert.NotContains(t, content, "Architects")
	// HTML escaping off keeps URLs readable.
	assert.Contains(t, content, "a=1&b=2")
	assert.False(t, strings.Contains(content, "\\u0026"))
}

func TestReadMerged(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())

	t.Run("MissingFileIsEmptyObject", func(t *testing.T) {
		obj, err := store.ReadMerged("999")
		require.NoError(t, err)
		assert.Empty(t, obj)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		require.NoError(t, store.WriteMerged("100", map[string]any{"Project Title": "X"}))
		obj, err := store.ReadMerged("100")
		require.NoError(t, err)
		assert.Equal(t, "X", obj["Project Title"])
	})
}

func TestReadDetailsMissing(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())
	_, err := store.ReadDetails("999")
	assert.Error(t, err)
}
