package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
)

// Controller drives one live chat session at a time. Every Send issues its own
// request; replies land in the transcript in completion order.
type Controller struct {
	gen Generator

	mu      sync.Mutex
	session *Session
}

func NewController(gen Generator) *Controller {
	return &Controller{gen: gen}
}

// Turn tracks one in-flight Send.
type Turn struct {
	done   chan struct{}
	result Message
}

// Done is closed once the turn's reply has been appended, or dropped because the session ended.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Result returns the terminal message. Only valid after Done is closed.
func (t *Turn) Result() Message {
	return t.result
}

// Open binds a fresh session to item, discarding any previous one.
func (c *Controller) Open(item domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.session.closed = true
	}
	c.session = newSession(item)
}

// Close ends the current session. Safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}
	c.session.closed = true
	c.session.clearStaged()
	c.session = nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StateClosed
	}
	return StateOpen
}

// Controls returns the usable input controls; all are disabled when no session is open.
func (c *Controller) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Controls{}
	}
	return c.session.controls()
}

// SetText replaces the draft message. Ignored when text input is disabled.
func (c *Controller) SetText(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || !c.session.capability.Enabled(domain.KindText) {
		return false
	}
	c.session.text = text
	return true
}

func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.text
}

// StageAttachment replaces the pending attachment. Attachments of a disabled
// kind are ignored.
func (c *Controller) StageAttachment(att domain.Attachment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return false
	}
	if !c.session.capability.Enabled(att.Kind()) {
		return false
	}
	staged := att
	c.session.pending = &staged
	c.session.preview = NewPreview(&staged)
	return true
}

func (c *Controller) ClearAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.clearStaged()
	}
}

func (c *Controller) Pending() *domain.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.pending
}

func (c *Controller) Preview() *Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.preview
}

// Transcript returns a copy of the current session's messages.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	out := make([]Message, len(c.session.transcript))
	copy(out, c.session.transcript)
	return out
}

// Send submits the draft text and pending attachment. It returns nil without
// doing anything when there is nothing to send.
func (c *Controller) Send(ctx context.Context) *Turn {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return nil
	}
	text := strings.TrimSpace(s.text)
	att := s.pending
	if text == "" && att == nil {
		c.mu.Unlock()
		return nil
	}

	if text != "" {
		c.appendLocked(s, Message{Kind: KindUserText, Text: text})
	}
	if att != nil {
		c.appendLocked(s, Message{Kind: KindUserAttachment, Text: userAttachmentLabel(att), Preview: NewPreview(att)})
	}
	s.text = ""
	s.clearStaged()

	if s.typingIndex() < 0 {
		c.appendLocked(s, Message{Kind: KindTyping})
	}
	s.inFlight++

	req := buildRequest(s.item, text, att)
	c.mu.Unlock()

	turn := &Turn{done: make(chan struct{})}
	go func() {
		res, err := c.gen.Generate(ctx, req)
		c.complete(s, turn, res, err)
	}()
	return turn
}

func (c *Controller) complete(s *Session, turn *Turn, res *domain.GenerationResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(turn.done)

	msg := replyFor(res, err)
	if err != nil {
		slog.Warn("chat generation failed", "error", err)
	}
	if s.closed || c.session != s {
		turn.result = msg
		return
	}

	s.removeTyping()
	s.inFlight--
	turn.result = c.appendLocked(s, msg)
	if s.inFlight > 0 {
		c.appendLocked(s, Message{Kind: KindTyping})
	}
}

func (c *Controller) appendLocked(s *Session, m Message) Message {
	m.ID = uuid.New()
	s.transcript = append(s.transcript, m)
	return m
}

func buildRequest(item domain.Item, text string, att *domain.Attachment) domain.GenerationRequest {
	userMessage := text
	if userMessage == "" {
		userMessage = config.DefaultUserMessage
	}
	model := item.ChatBot.Model
	if model == "" {
		model = config.DefaultFalModel
	}
	return domain.GenerationRequest{
		UserMessage:   userMessage,
		ContextPrompt: item.ChatBot.Prompt,
		TargetModelID: model,
		Attachment:    att,
	}
}

func replyFor(res *domain.GenerationResult, err error) Message {
	if err != nil {
		return Message{Kind: KindBotError, Text: errorText(err)}
	}
	if res != nil && res.HasImage() {
		return Message{Kind: KindBotImage, ImageURL: res.ImageURL}
	}
	return Message{Kind: KindBotText, Text: FallbackText}
}

func errorText(err error) string {
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return ErrorPrefix + srvErr.Message
	}
	if domain.IsProviderError(err) {
		return ErrorPrefix + domain.PublicMessage(err)
	}
	return ConnectionErrorPrefix + err.Error()
}

func userAttachmentLabel(att *domain.Attachment) string {
	switch att.Kind() {
	case domain.KindVideo:
		return VideoIcon + " " + att.Name
	case domain.KindImage:
		return att.Name
	default:
		return FileIcon + " " + att.Name
	}
}
