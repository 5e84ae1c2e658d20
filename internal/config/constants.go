package config

import "time"

const (
	// Text generation parameters
	Temperature     = 0.7
	TopK            = 40
	TopP            = 0.95
	MaxOutputTokens = 2048

	// Separator between the item prompt and the user's message
	PromptSeparator = "\n\nUser Request: "

	// Image generation
	DefaultFalModel     = "fal-ai/flux/dev/image-to-image"
	TextToImageFalModel = "fal-ai/flux/dev"
	EditStrength        = 0.75

	// Sent when a turn carries only an attachment
	DefaultUserMessage = "Generate based on the image"

	// Provider names used in error messages
	ProviderGemini = "Gemini"
	ProviderFal    = "Fal.ai"

	// Credential variable names surfaced in configuration errors
	GeminiKeyVar = "GEMINI_API_KEY"
	FalKeyVar    = "FAL_KEY"

	// Catalog read cache
	CatalogCacheDuration = 1 * time.Minute

	// Preview file names longer than this are shortened
	PreviewNameLimit = 20

	// HTTP server
	ReadHeaderTimeout = 15 * time.Second
	ShutdownTimeout   = 30 * time.Second
)
