package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
)

// FalService calls the image generation provider.
type FalService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewFalService(apiKey, baseURL string, timeout time.Duration) *FalService {
	return &FalService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *FalService) Configured() bool {
	return s.apiKey != ""
}

// FalPayload is the request body sent to an image model. The image fields are
// filled according to the target model's profile.
type FalPayload struct {
	Prompt    string   `json:"prompt"`
	ImageURL  string   `json:"image_url,omitempty"`
	Image     string   `json:"image,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
	Strength  *float64 `json:"strength,omitempty"`
}

// FalResult is a normalized successful image provider response.
type FalResult struct {
	ImageURL string
	Raw      json.RawMessage
}

type falImage struct {
	URL string `json:"url"`
}

type falErrorObject struct {
	Message string `json:"message"`
}

// falResponse holds every response shape seen from image models. Each field is
// decoded independently so a mistyped field reads as absent instead of failing the whole body.
type falResponse struct {
	Images  []falImage
	Image   *falImage
	Detail  json.RawMessage
	Error   json.RawMessage
	Message json.RawMessage
}

func parseFalResponse(body []byte) (falResponse, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return falResponse{}, false
	}

	var r falResponse
	var images []falImage
	if err := json.Unmarshal(fields["images"], &images); err == nil {
		r.Images = images
	}
	var image falImage
	if err := json.Unmarshal(fields["image"], &image); err == nil {
		r.Image = &image
	}
	r.Detail = fields["detail"]
	r.Error = fields["error"]
	r.Message = fields["message"]
	return r, true
}

// imageURL prefers images[0].url, then image.url, else "".
func (r falResponse) imageURL() string {
	if len(r.Images) > 0 && r.Images[0].URL != "" {
		return r.Images[0].URL
	}
	if r.Image != nil && r.Image.URL != "" {
		return r.Image.URL
	}
	return ""
}

func (r falResponse) hasError() bool {
	return present(r.Detail) || present(r.Error)
}

// errorMessage picks detail, then error.message, then message.
func (r falResponse) errorMessage() string {
	if present(r.Detail) {
		if s, ok := asString(r.Detail); ok {
			return s
		}
		return string(r.Detail)
	}
	if present(r.Error) {
		var obj falErrorObject
		if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		if s, ok := asString(r.Error); ok {
			return s
		}
	}
	if s, ok := asString(r.Message); ok && s != "" {
		return s
	}
	return ""
}

// present reports whether a raw field carries a non-empty value.
func present(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Generate posts payload to the given model and normalizes the response.
func (s *FalService) Generate(ctx context.Context, modelID string, payload FalPayload) (*FalResult, error) {
	if !s.Configured() {
		return nil, &domain.ProviderConfigError{Variable: config.FalKeyVar}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.baseURL + "/" + strings.TrimLeft(modelID, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	slog.Info("fal response received", "model", modelID, "status", resp.StatusCode)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	parsed, isJSON := parseFalResponse(respBody)
	if !isJSON {
		if ok {
			return nil, fmt.Errorf("parse response: unexpected body from %s", modelID)
		}
		return nil, s.responseError(resp, strings.TrimSpace(string(respBody)))
	}

	if !ok || parsed.hasError() {
		msg := parsed.errorMessage()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, s.responseError(resp, msg)
	}

	return &FalResult{
		ImageURL: parsed.imageURL(),
		Raw:      json.RawMessage(respBody),
	}, nil
}

func (s *FalService) responseError(resp *http.Response, msg string) error {
	if msg == "" {
		msg = resp.Status
	}
	slog.Error("fal api error", "status", resp.StatusCode, "message", msg)
	return &domain.ProviderResponseError{
		Provider: config.ProviderFal,
		Message:  msg,
		Status:   resp.StatusCode,
	}
}
