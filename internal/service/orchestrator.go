package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
)

// TextGenerator turns a prompt into text.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// ImageGenerator turns a prompt and optional reference image into an image.
type ImageGenerator interface {
	Generate(ctx context.Context, modelID string, payload FalPayload) (*FalResult, error)
}

// Orchestrator chains text enrichment and image generation for one chat turn.
// It holds no per-request state; systemPrompt is fixed at construction.
type Orchestrator struct {
	text         TextGenerator
	image        ImageGenerator
	profiles     *config.ModelProfiles
	systemPrompt string
}

func NewOrchestrator(text TextGenerator, image ImageGenerator, profiles *config.ModelProfiles, systemPrompt string) *Orchestrator {
	if profiles == nil {
		profiles = config.NewModelProfiles()
	}
	return &Orchestrator{
		text:         text,
		image:        image,
		profiles:     profiles,
		systemPrompt: systemPrompt,
	}
}

// ComposePrompt joins the item context and the user's message with a labelled separator.
func ComposePrompt(contextPrompt, userMessage string) string {
	return contextPrompt + config.PromptSeparator + userMessage
}

// BuildFalPayload places the attachment under every field the profile names.
func BuildFalPayload(prompt string, att *domain.Attachment, profile domain.ModelProfile) FalPayload {
	payload := FalPayload{Prompt: prompt}
	if att == nil {
		return payload
	}

	dataURI := att.DataURI()
	for _, field := range profile.AttachmentFields {
		switch field {
		case domain.FieldImageURL:
			payload.ImageURL = dataURI
		case domain.FieldImage:
			payload.Image = dataURI
		case domain.FieldImageURLs:
			payload.ImageURLs = []string{dataURI}
		}
	}
	strength := config.EditStrength
	payload.Strength = &strength
	return payload
}

// EnrichPrompt runs the text step on its own.
func (o *Orchestrator) EnrichPrompt(ctx context.Context, contextPrompt, userMessage string) (string, error) {
	prompt := ComposePrompt(contextPrompt, userMessage)
	text, err := o.text.Generate(ctx, o.systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("enrich prompt: %w", err)
	}
	return text, nil
}

// GenerateImage runs the image step on its own: image-to-image when an
// attachment is given, text-to-image otherwise.
func (o *Orchestrator) GenerateImage(ctx context.Context, prompt string, att *domain.Attachment) (*FalResult, error) {
	model := config.TextToImageFalModel
	profile := domain.ModelProfile{ID: model}
	if att != nil {
		model = config.DefaultFalModel
		profile = domain.ModelProfile{ID: model, AttachmentFields: []string{domain.FieldImageURL}}
	}

	res, err := o.image.Generate(ctx, model, BuildFalPayload(prompt, att, profile))
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return res, nil
}

// Generate enriches the user's message and forwards the result to the image
// model. A failure at either step fails the whole turn.
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	userMessage := req.UserMessage
	if userMessage == "" && req.Attachment != nil {
		userMessage = config.DefaultUserMessage
	}

	enriched, err := o.EnrichPrompt(ctx, req.ContextPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	modelID := req.TargetModelID
	if modelID == "" {
		modelID = config.DefaultFalModel
	}
	profile := o.profiles.Lookup(modelID)

	slog.Info("generating image",
		"model", modelID,
		"prompt_length", len(enriched),
		"image_provided", req.Attachment != nil,
		"fields", profile.AttachmentFields,
	)

	res, err := o.image.Generate(ctx, modelID, BuildFalPayload(enriched, req.Attachment, profile))
	if err != nil {
		var respErr *domain.ProviderResponseError
		if errors.As(err, &respErr) {
			return nil, &domain.ProviderResponseError{
				Provider: respErr.Provider,
				Message:  respErr.Prefixed(),
				Status:   respErr.Status,
			}
		}
		return nil, fmt.Errorf("generate image: %w", err)
	}

	return &domain.GenerationResult{
		EnrichedPrompt: enriched,
		ImageURL:       res.ImageURL,
		ProviderData:   res.Raw,
	}, nil
}
