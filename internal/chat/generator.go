package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/set-night/aishifts/internal/domain"
)

// Generator runs one chat turn. *service.Orchestrator satisfies it in-process,
// HTTPGenerator reaches a remote server.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// ServerError is a failure reported by the server in its {error} body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// HTTPGenerator posts turns to the combined generation endpoint.
type HTTPGenerator struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPGenerator(baseURL string, httpClient *http.Client) *HTTPGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type generateResponse struct {
	GeminiPrompt string          `json:"geminiPrompt"`
	ImageURL     string          `json:"imageUrl"`
	FalData      json.RawMessage `json:"falData"`
	Error        string          `json:"error"`
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (g *HTTPGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"userMessage", req.UserMessage},
		{"itemPrompt", req.ContextPrompt},
		{"falModel", req.TargetModelID},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if att := req.Attachment; att != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, quoteEscaper.Replace(att.Name)))
		h.Set("Content-Type", att.ResolvedMediaType())
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(att.Data); err != nil {
			return nil, fmt.Errorf("write image part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &ServerError{Status: resp.StatusCode, Message: resp.Status}
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if out.Error != "" {
		return nil, &ServerError{Status: resp.StatusCode, Message: out.Error}
	}
	if resp.StatusCode >= 300 {
		return nil, &ServerError{Status: resp.StatusCode, Message: resp.Status}
	}

	return &domain.GenerationResult{
		EnrichedPrompt: out.GeminiPrompt,
		ImageURL:       out.ImageURL,
		ProviderData:   out.FalData,
	}, nil
}
