package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shahar-caura/deskpilot/internal/provider"
)

// HTTP asks a UI-element detection service (an OmniParser-style server) to
// locate clickable elements on a screenshot.
type HTTP struct {
	baseURL       string
	token         string
	minConfidence float64
	client        *http.Client
}

// New returns a detector that posts screenshots to baseURL + "/detect".
// Elements scoring below minConfidence are dropped.
func New(baseURL, token string, minConfidence float64, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL:       baseURL,
		token:         token,
		minConfidence: minConfidence,
		client:        &http.Client{Timeout: timeout},
	}
}

// detectRequest is the JSON body for POST /detect.
type detectRequest struct {
	Image string `json:"image"`
	Hint  string `json:"hint,omitempty"`
}

type detectResponse struct {
	Elements []detectedElement `json:"elements"`
}

type detectedElement struct {
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Detect uploads the screenshot at path and returns the elements found,
// numbered from zero in response order.
func (d *HTTP) Detect(ctx context.Context, path, hint string) ([]provider.Element, error) {
	img, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("detector: reading screenshot: %w", err)
	}

	payload, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(img),
		Hint:  hint,
	})
	if err != nil {
		return nil, fmt.Errorf("detector: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("detector: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector: sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("detector: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector: unexpected status %d: %s", resp.StatusCode, body)
	}

	var result detectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("detector: parsing response: %w", err)
	}

	elements := make([]provider.Element, 0, len(result.Elements))
	for _, e := range result.Elements {
		if e.Confidence < d.minConfidence {
			continue
		}
		elements = append(elements, provider.Element{
			ID:         len(elements),
			Label:      e.Label,
			X:          e.X,
			Y:          e.Y,
			Type:       e.Type,
			Confidence: e.Confidence,
		})
	}
	return elements, nil
}
