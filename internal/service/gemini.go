package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
)

// GeminiService calls the text generation provider.
type GeminiService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGeminiService(apiKey, baseURL, model string, timeout time.Duration) *GeminiService {
	return &GeminiService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *GeminiService) Configured() bool {
	return s.apiKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"system_instruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// geminiResponse holds the parts of a response the proxy reads. Each level is
// decoded on its own so a mistyped field reads as absent.
type geminiResponse struct {
	Text  string
	Error *geminiErrorObject
}

// parseGeminiResponse walks candidates[0].content.parts[0].text, defaulting to "".
// Only a body that is not JSON at all is rejected.
func parseGeminiResponse(body []byte) (geminiResponse, bool) {
	if !json.Valid(body) {
		return geminiResponse{}, false
	}

	var r geminiResponse
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return r, true
	}

	if present(fields["error"]) {
		var obj geminiErrorObject
		if err := json.Unmarshal(fields["error"], &obj); err != nil || obj.Message == "" {
			if s, ok := asString(fields["error"]); ok {
				obj.Message = s
			} else {
				obj.Message = string(fields["error"])
			}
		}
		r.Error = &obj
	}

	var candidates []map[string]json.RawMessage
	if err := json.Unmarshal(fields["candidates"], &candidates); err != nil || len(candidates) == 0 {
		return r, true
	}
	var content map[string]json.RawMessage
	if err := json.Unmarshal(candidates[0]["content"], &content); err != nil {
		return r, true
	}
	var parts []map[string]json.RawMessage
	if err := json.Unmarshal(content["parts"], &parts); err != nil || len(parts) == 0 {
		return r, true
	}
	if text, ok := asString(parts[0]["text"]); ok {
		r.Text = text
	}
	return r, true
}

// Generate sends prompt together with the system instruction and returns the generated text.
func (s *GeminiService) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if !s.Configured() {
		return "", &domain.ProviderConfigError{Variable: config.GeminiKeyVar}
	}

	payload, err := json.Marshal(geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     config.Temperature,
			TopK:            config.TopK,
			TopP:            config.TopP,
			MaxOutputTokens: config.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	genResp, ok := parseGeminiResponse(body)
	if !ok {
		return "", fmt.Errorf("parse response (status %d): body is not json", resp.StatusCode)
	}

	if genResp.Error != nil {
		slog.Error("gemini api error", "status", resp.StatusCode, "code", genResp.Error.Code, "message", genResp.Error.Message)
		return "", &domain.ProviderResponseError{
			Provider: config.ProviderGemini,
			Message:  genResp.Error.Message,
			Status:   resp.StatusCode,
		}
	}

	text := genResp.Text
	slog.Info("gemini response generated", "model", s.model, "length", len(text))
	return text, nil
}
