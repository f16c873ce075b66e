package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client calls an Ollama-compatible embeddings endpoint. JSON marshalling
// takes care of escaping; the semantic content is exactly the sanitized
// text it receives.
type Client struct {
	url    string
	model  string
	client *http.Client
}

// NewClient creates an embeddings client for the given base URL and model.
func NewClient(url, model string) *Client {
	return &Client{
		url:    url,
		model:  model,
		client: &http.Client{},
	}
}

// EmbedText requests one embedding vector for text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]string{
		"model":  c.model,
		"prompt": text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"/api/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Embedding json.RawMessage `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return decodeVector(response.Embedding)
}

// decodeVector accepts either a numeric array or a JSON-encoded string
// containing one; everything else is an error (and becomes a zero vector
// at the Embedder boundary).
func decodeVector(raw json.RawMessage) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty embedding payload")
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &vec); err == nil {
			return vec, nil
		}
	}

	return nil, fmt.Errorf("unexpected embedding payload shape: %s", head(string(raw), 80))
}
