// Package imagegen is the HTTP client for the external illustration and
// sketch generation service.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type generateRequest struct {
	Prompt          string   `json:"prompt"`
	ReferenceImages []string `json:"reference_images,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
}

type sketchRequest struct {
	SourceImageURL string `json:"source_image_url"`
	Prompt         string `json:"prompt,omitempty"`
}

type generateResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GenerateIllustration requests a full-color illustration and returns the
// raw image bytes.
func (c *Client) GenerateIllustration(ctx context.Context, prompt string, referenceImages []string, aspectRatio string) ([]byte, error) {
	return c.generate(ctx, "/images/generations", generateRequest{
		Prompt:          prompt,
		ReferenceImages: referenceImages,
		AspectRatio:     aspectRatio,
	})
}

// GenerateSketch requests a line-art sketch derived from an existing
// illustration URL.
func (c *Client) GenerateSketch(ctx context.Context, sourceIllustrationURL, prompt string) ([]byte, error) {
	return c.generate(ctx, "/images/sketches", sketchRequest{
		SourceImageURL: sourceIllustrationURL,
		Prompt:         prompt,
	})
}

func (c *Client) generate(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Non-2xx bodies are kept verbatim: the classifier keys off the
	// status text and any embedded error JSON.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation request failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image produced in response, body: %s", string(body))
	}

	imageData, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	return imageData, nil
}
