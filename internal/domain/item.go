package domain

import (
	"strings"
	"time"
)

type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindVideo AttachmentKind = "video"
	KindFile  AttachmentKind = "file"
	KindText  AttachmentKind = "text"
)

// ParseAttachmentKind maps a binary option type to a kind. "textarea" is accepted as text.
func ParseAttachmentKind(s string) (AttachmentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return KindImage, true
	case "video":
		return KindVideo, true
	case "file":
		return KindFile, true
	case "text", "textarea":
		return KindText, true
	default:
		return "", false
	}
}

// KindForMediaType classifies a MIME type into image, video or generic file.
func KindForMediaType(mediaType string) AttachmentKind {
	mt := strings.ToLower(mediaType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	default:
		return KindFile
	}
}

// Capability records which attachment kinds an item accepts.
type Capability map[AttachmentKind]bool

// Enabled reports whether kind k may be used. Kinds without an entry are enabled.
func (c Capability) Enabled(k AttachmentKind) bool {
	enabled, ok := c[k]
	return !ok || enabled
}

type Category struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	ImageLink  string `json:"imageLink"`
}

type ItemImage struct {
	Name      string `json:"name"`
	ImageLink string `json:"imageLink"`
}

type BinaryOption struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// ChatBot is the chat configuration bound to an item.
type ChatBot struct {
	Model  string         `json:"model,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
	Binary []BinaryOption `json:"binary,omitempty"`
}

type Comment struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Item is a feed post with its chat context.
type Item struct {
	ID          string      `json:"id"`
	ItemID      string      `json:"itemId"`
	Head        string      `json:"head"`
	CategoryID  string      `json:"categoryId"`
	Description string      `json:"description"`
	Username    string      `json:"username"`
	UserAvatar  string      `json:"userAvatar"`
	Likes       int         `json:"likes"`
	TimeAgo     string      `json:"timeAgo"`
	Images      []ItemImage `json:"images"`
	ChatBot     ChatBot     `json:"chatBot"`
	Comments    []Comment   `json:"comments"`
}

// Capability derives the attachment capability matrix from the chat bot config.
// The first entry for a kind wins.
func (i *Item) Capability() Capability {
	caps := make(Capability, len(i.ChatBot.Binary))
	for _, opt := range i.ChatBot.Binary {
		kind, ok := ParseAttachmentKind(opt.Type)
		if !ok {
			continue
		}
		if _, seen := caps[kind]; seen {
			continue
		}
		caps[kind] = opt.Enabled
	}
	return caps
}
