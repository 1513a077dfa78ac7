// Package resolve disambiguates which image in an embedded gallery payload a
// given entry-page URL refers to, and downloads the resolved image.
//
// Gallery entry pages embed the full image collection as a JSON array in the
// data-images attribute of the #gallery-items container; the page URL's
// fragment encodes which member the link meant. Resolution walks three tiers,
// first match wins:
//
//  1. the fragment's token before its first '-', substring-matched against
//     each entry's link field;
//  2. the container's data-id default, matched the same way;
//  3. the payload's first entry.
package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/atelierlab/archharvest/internal/status"
)

const (
	containerSelector = "div#gallery-items"
	payloadAttr       = "data-images"
	defaultIDAttr     = "data-id"
)

// Payload errors are terminal for a single gallery item, never for the whole
// harvest.
var (
	ErrNoContainer      = fmt.Errorf("no gallery container: %w", status.ErrPayload)
	ErrNoPayload        = fmt.Errorf("no payload attribute on gallery container: %w", status.ErrPayload)
	ErrMalformedPayload = fmt.Errorf("malformed gallery payload: %w", status.ErrPayload)
)

// Entry is one image record inside the embedded collection payload.
type Entry struct {
	Link         string            `json:"link"`
	URLLarge     string            `json:"url_large"`
	URLSlideshow string            `json:"url_slideshow"`
	Caption      string            `json:"caption"`
	Tags         []json.RawMessage `json:"tags"`
}

// Payload is the parsed image collection of one gallery entry page.
type Payload struct {
	Entries   []Entry
	DefaultID string
}

// ParsePayload locates the gallery container in the page HTML and decodes its
// embedded image collection.
func ParsePayload(html []byte) (Payload, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Payload{}, fmt.Errorf("parse entry page: %v: %w", err, status.ErrParse)
	}

	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return Payload{}, ErrNoContainer
	}

	raw, ok := container.Attr(payloadAttr)
	if !ok || raw == "" {
		return Payload{}, ErrNoPayload
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if len(entries) == 0 {
		return Payload{}, fmt.Errorf("%w: empty image list", ErrMalformedPayload)
	}

	defaultID, _ := container.Attr(defaultIDAttr)
	return Payload{Entries: entries, DefaultID: defaultID}, nil
}

// ResolveTarget picks the payload entry the page URL refers to. Each tier is
// only attempted when the prior tier yields nothing; tier 3 always yields.
func ResolveTarget(pageURL string, payload Payload) Entry {
	if fragment := urlFragment(pageURL); fragment != "" {
		token := strings.SplitN(fragment, "-", 2)[0]
		if entry, ok := matchByLink(payload.Entries, token); ok {
			return entry
		}
	}
	if payload.DefaultID != "" {
		if entry, ok := matchByLink(payload.Entries, payload.DefaultID); ok {
			return entry
		}
	}
	return payload.Entries[0]
}

func matchByLink(entries []Entry, token string) (Entry, bool) {
	if token == "" {
		return Entry{}, false
	}
	for _, entry := range entries {
		if entry.Link != "" && strings.Contains(entry.Link, token) {
			return entry, true
		}
	}
	return Entry{}, false
}

func urlFragment(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Fragment
}

// ImageURL returns the downloadable URL of an entry: the large-resolution
// field, falling back to the slideshow resolution.
func ImageURL(entry Entry) (string, error) {
	if entry.URLLarge != "" {
		return entry.URLLarge, nil
	}
	if entry.URLSlideshow != "" {
		return entry.URLSlideshow, nil
	}
	return "", fmt.Errorf("entry %q has no downloadable url: %w", entry.Link, status.ErrPayload)
}

// TagNames extracts the names of well-formed tag objects, dropping anything
// else in the tag list.
func TagNames(entry Entry) []string {
	names := make([]string, 0, len(entry.Tags))
	for _, raw := range entry.Tags {
		var tag struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &tag); err != nil {
			continue
		}
		if name := strings.TrimSpace(tag.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Extension derives the file extension from the image URL's path suffix,
// defaulting to .jpg when absent or implausibly long.
func Extension(imageURL string) string {
	ext := ""
	if u, err := url.Parse(imageURL); err == nil {
		unescaped := u.Path
		if dec, derr := url.PathUnescape(u.Path); derr == nil {
			unescaped = dec
		}
		ext = path.Ext(unescaped)
	}
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}
