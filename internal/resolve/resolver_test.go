package resolve

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlab/archharvest/internal/status"
)

// galleryPage single-quotes the payload attribute so the embedded JSON's
// double quotes survive HTML parsing.
func galleryPage(payload, defaultID string) []byte {
	attrs := fmt.Sprintf("data-images='%s'", payload)
	if defaultID != "" {
		attrs += fmt.Sprintf(" data-id='%s'", defaultID)
	}
	return []byte(fmt.Sprintf(`<html><body><div id="gallery-items" %s></div></body></html>`, attrs))
}

func TestParsePayload(t *testing.T) {
	t.Run("DecodesEntriesAndDefaultID", func(t *testing.T) {
		payload, err := ParsePayload(galleryPage(
			`[{"link":"/a-100","url_large":"https://img.example.com/a.jpg"}]`, "100"))
		require.NoError(t, err)
		require.Len(t, payload.Entries, 1)
		assert.Equal(t, "/a-100", payload.Entries[0].Link)
		assert.Equal(t, "100", payload.DefaultID)
	})

	t.Run("MissingContainer", func(t *testing.T) {
		_, err := ParsePayload([]byte("<html><body></body></html>"))
		assert.ErrorIs(t, err, ErrNoContainer)
		assert.ErrorIs(t, err, status.ErrPayload)
	})

	t.Run("MissingAttribute", func(t *testing.T) {
		_, err := ParsePayload([]byte(`<html><body><div id="gallery-items"></div></body></html>`))
		assert.ErrorIs(t, err, ErrNoPayload)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := ParsePayload(galleryPage(`{not json`, ""))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("EmptyList", func(t *testing.T) {
		_, err := ParsePayload(galleryPage(`[]`, ""))
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestResolveTarget(t *testing.T) {
	payload := Payload{Entries: []Entry{
		{Link: "/a-100"},
		{Link: "/b-200"},
	}}

	t.Run("FragmentTokenWinsOverDefaultID", func(t *testing.T) {
		withDefault := payload
		withDefault.DefaultID = "100"
		entry := ResolveTarget("https://example.com/gallery#200-foo", withDefault)
		assert.Equal(t, "/b-200", entry.Link)
	})

	t.Run("DefaultIDWhenFragmentMissesOrAbsent", func(t *testing.T) {
		withDefault := payload
		withDefault.DefaultID = "200"
		entry := ResolveTarget("https://example.com/gallery", withDefault)
		assert.Equal(t, "/b-200", entry.Link)

		entry = ResolveTarget("https://example.com/gallery#999-miss", withDefault)
		assert.Equal(t, "/b-200", entry.Link)
	})

	t.Run("FirstEntryFallback", func(t *testing.T) {
		entry := ResolveTarget("https://example.com/gallery", payload)
		assert.Equal(t, "/a-100", entry.Link)
	})
}

func TestImageURL(t *testing.T) {
	t.Run("PrefersLarge", func(t *testing.T) {
		u, err := ImageURL(Entry{URLLarge: "https://img/large.jpg", URLSlideshow: "https://img/slide.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "https://img/large.jpg", u)
	})

	t.Run("FallsBackToSlideshow", func(t *testing.T) {
		u, err := ImageURL(Entry{URLSlideshow: "https://img/slide.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "https://img/slide.jpg", u)
	})

	t.Run("NoURLIsPayloadError", func(t *testing.T) {
		_, err := ImageURL(Entry{Link: "/a-100"})
		assert.ErrorIs(t, err, status.ErrPayload)
	})
}

func TestTagNames(t *testing.T) {
	entry := Entry{Tags: []json.RawMessage{
		json.RawMessage(`{"name":"Facade"}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"name":"  Interior "}`),
		json.RawMessage(`{"name":""}`),
	}}
	assert.Equal(t, []string{"Facade", "Interior"}, TagNames(entry))
}

func TestExtension(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://img.example.com/photo.png", ".png"},
		{"https://img.example.com/photo.jpeg?h=600", ".jpeg"},
		{"https://img.example.com/photo", ".jpg"},
		{"https://img.example.com/archive.backup", ".jpg"},
		{"https://img.example.com/photo%2Ewebp", ".webp"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Extension(tc.url), "url %s", tc.url)
	}
}
