package enrich

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/record"
)

func TestEnrichProject(t *testing.T) {
	t.Run("MergesWithoutClobbering", func(t *testing.T) {
		srv := modelServer(t,
			`{"Design Concept":"A spiral around a void","Exhibition Area":"","Project Title":"Clobbered"}`,
			http.StatusOK)
		defer srv.Close()

		store := record.NewStore(t.TempDir(), zap.NewNop())
		require.NoError(t, store.WriteMerged("100", map[string]any{
			"Project Title": "Ocean Science Museum",
			"Description":   []any{"The museum rises from the harbor edge."},
		}))

		e := NewEnricher(newTestClient(t, srv.URL), store, zap.NewNop())
		require.NoError(t, e.EnrichProject(context.Background(), "100"))

		merged, err := store.ReadMerged("100")
		require.NoError(t, err)
		assert.Equal(t, "A spiral around a void", merged["Design Concept"])
		assert.Equal(t, "Ocean Science Museum", merged["Project Title"], "existing keys kept")
		_, hasEmpty := merged["Exhibition Area"]
		assert.False(t, hasEmpty, "empty model fields skipped")
	})

	t.Run("FallsBackToDetailRecord", func(t *testing.T) {
		srv := modelServer(t, `{"Design Concept":"Stacked terraces"}`, http.StatusOK)
		defer srv.Close()

		store := record.NewStore(t.TempDir(), zap.NewNop())
		require.NoError(t, store.WriteDetails("200", record.Detail{
			ProjectID:   "200",
			Title:       "Cliff Observatory",
			Description: []string{"Terraces step down the cliff face."},
		}))

		e := NewEnricher(newTestClient(t, srv.URL), store, zap.NewNop())
		require.NoError(t, e.EnrichProject(context.Background(), "200"))

		merged, err := store.ReadMerged("200")
		require.NoError(t, err)
		assert.Equal(t, "Stacked terraces", merged["Design Concept"])
		assert.Equal(t, "Cliff Observatory", merged["Project Title"])
	})

	t.Run("NoDescriptionIsError", func(t *testing.T) {
		store := record.NewStore(t.TempDir(), zap.NewNop())
		require.NoError(t, store.WriteMerged("300", map[string]any{"Project Title": "X"}))

		e := NewEnricher(newTestClient(t, "http://unused.invalid"), store, zap.NewNop())
		assert.Error(t, e.EnrichProject(context.Background(), "300"))
	})

	t.Run("MissingProjectIsError", func(t *testing.T) {
		store := record.NewStore(t.TempDir(), zap.NewNop())
		e := NewEnricher(newTestClient(t, "http://unused.invalid"), store, zap.NewNop())
		assert.Error(t, e.EnrichProject(context.Background(), "999"))
	})
}

func TestJoinDescription(t *testing.T) {
	assert.Equal(t, "a\nb", joinDescription([]any{"a", "b"}))
	assert.Equal(t, "plain", joinDescription("  plain  "))
	assert.Equal(t, "", joinDescription(nil))
	assert.Equal(t, "", joinDescription(42))
}
