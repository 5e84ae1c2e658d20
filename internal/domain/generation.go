package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is a binary payload staged by a user together with its declared media type.
type Attachment struct {
	Name      string
	MediaType string
	Data      []byte
}

// ResolvedMediaType returns the declared media type, sniffing the content when none was declared.
func (a *Attachment) ResolvedMediaType() string {
	if mt := strings.TrimSpace(a.MediaType); mt != "" {
		return mt
	}
	return mimetype.Detect(a.Data).String()
}

// Kind classifies the attachment by its media type.
func (a *Attachment) Kind() AttachmentKind {
	return KindForMediaType(a.ResolvedMediaType())
}

// DataURI encodes the attachment as an inline data URI.
func (a *Attachment) DataURI() string {
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(a.ResolvedMediaType())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(a.Data))
	return b.String()
}

// GenerationRequest is one combined chat turn sent to the orchestrator.
type GenerationRequest struct {
	UserMessage   string
	ContextPrompt string
	TargetModelID string
	Attachment    *Attachment
}

// GenerationResult is the normalized outcome of a successful chained generation.
// ImageURL is empty when the image provider returned no recognizable image.
type GenerationResult struct {
	EnrichedPrompt string
	ImageURL       string
	ProviderData   json.RawMessage
}

func (r *GenerationResult) HasImage() bool {
	return r.ImageURL != ""
}
