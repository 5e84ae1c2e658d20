package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/aishifts/internal/domain"
)

type geminiRequest struct {
	UserMessage string `json:"userMessage"`
	ItemPrompt  string `json:"itemPrompt"`
}

type geminiResponse struct {
	Prompt string `json:"prompt"`
}

type falResponse struct {
	ImageURL string          `json:"imageUrl,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type generateResponse struct {
	GeminiPrompt string          `json:"geminiPrompt"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	FalData      json.RawMessage `json:"falData,omitempty"`
}

// Gemini runs the text enrichment step alone.
func (h *Handler) Gemini(c *gin.Context) {
	var body geminiRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}

	prompt, err := h.orchestrator.EnrichPrompt(c.Request.Context(), body.ItemPrompt, body.UserMessage)
	if err != nil {
		respondError(c, "gemini", err)
		return
	}
	c.JSON(http.StatusOK, geminiResponse{Prompt: prompt})
}

// Fal runs the image generation step alone.
func (h *Handler) Fal(c *gin.Context) {
	att, err := readAttachment(c)
	if err != nil {
		respondError(c, "fal", err)
		return
	}

	res, err := h.orchestrator.GenerateImage(c.Request.Context(), c.PostForm("prompt"), att)
	if err != nil {
		respondError(c, "fal", err)
		return
	}
	c.JSON(http.StatusOK, falResponse{ImageURL: res.ImageURL, Data: res.Raw})
}

// Generate runs the full chat turn: text enrichment followed by image generation.
func (h *Handler) Generate(c *gin.Context) {
	att, err := readAttachment(c)
	if err != nil {
		respondError(c, "generate", err)
		return
	}

	res, err := h.orchestrator.Generate(c.Request.Context(), domain.GenerationRequest{
		UserMessage:   c.PostForm("userMessage"),
		ContextPrompt: c.PostForm("itemPrompt"),
		TargetModelID: c.PostForm("falModel"),
		Attachment:    att,
	})
	if err != nil {
		respondError(c, "generate", err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		GeminiPrompt: res.EnrichedPrompt,
		ImageURL:     res.ImageURL,
		FalData:      res.ProviderData,
	})
}
