package chat

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
)

type MessageKind string

const (
	KindUserText       MessageKind = "user-text"
	KindUserAttachment MessageKind = "user-attachment"
	KindBotText        MessageKind = "bot-text"
	KindBotImage       MessageKind = "bot-image"
	KindBotError       MessageKind = "bot-error"
	KindTyping         MessageKind = "typing"
)

// Texts shown to the user.
const (
	FallbackText          = "Görsel oluşturulamadı. Lütfen tekrar deneyin."
	ErrorPrefix           = "❌ Hata: "
	ConnectionErrorPrefix = "❌ Bağlantı hatası: "
	FileIcon              = "📎"
	VideoIcon             = "🎬"
)

// Message is one transcript entry.
type Message struct {
	ID       uuid.UUID
	Kind     MessageKind
	Text     string
	ImageURL string
	Preview  *Preview
}

func (m Message) IsBot() bool {
	switch m.Kind {
	case KindBotText, KindBotImage, KindBotError:
		return true
	}
	return false
}

// Preview is the local rendering of a staged attachment. Images and videos get
// an inline thumbnail, anything else an icon.
type Preview struct {
	Kind      domain.AttachmentKind
	Name      string
	Thumbnail string
	Icon      string
}

func NewPreview(att *domain.Attachment) *Preview {
	p := &Preview{
		Kind: att.Kind(),
		Name: ShortenName(att.Name),
	}
	switch p.Kind {
	case domain.KindImage, domain.KindVideo:
		p.Thumbnail = att.DataURI()
	default:
		p.Icon = FileIcon
	}
	return p
}

// ShortenName truncates long file names to fit the preview chip.
func ShortenName(name string) string {
	limit := config.PreviewNameLimit
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	return string([]rune(name)[:limit-3]) + "..."
}
