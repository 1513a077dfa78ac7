// Package enrich extracts structured fields from a project's description via
// a language-model API and folds them into the merged project record.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fields requested from the model, in prompt order. Missing information comes
// back as an empty string and is skipped during the merge.
var Fields = []string{
	"Design Concept",
	"Exhibition Area",
	"Public Service Area",
	"Research and Curatorial Space",
	"Collection Storage",
	"Central Hall/Atrium",
	"Special-Format Theater",
	"Science Education Programs",
	"Architectural Form Features",
}

// Config controls the model client.
type Config struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client calls a generateContent-style endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient constructs a Client. The API key is required.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("enrichment api key is not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// ExtractFields sends the description to the model and decodes the JSON
// object it returns.
func (c *Client) ExtractFields(ctx context.Context, description string) (map[string]string, error) {
	prompt := buildPrompt(description)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode model request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model returned status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model response has no candidates")
	}

	answer := StripCodeFences(decoded.Candidates[0].Content.Parts[0].Text)
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(answer), &fields); err != nil {
		return nil, fmt.Errorf("model answer is not a JSON object: %w", err)
	}
	return fields, nil
}

func buildPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You are an architectural data extraction assistant. Read the project description below and return the requested fields as a strict JSON object, preserving the source wording where possible. Use an empty string for anything the description does not mention.\n\nFields:\n")
	for i, field := range Fields {
		fmt.Fprintf(&b, "%d. %q\n", i+1, field)
	}
	b.WriteString("\nDescription:\n")
	b.WriteString(description)
	b.WriteString("\n\nReturn only the JSON object, with no Markdown formatting.")
	return b.String()
}

// StripCodeFences removes a leading/trailing Markdown code fence the model
// may wrap its answer in despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
