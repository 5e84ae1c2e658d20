package handler

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/set-night/aishifts/internal/chat"
	"github.com/set-night/aishifts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatControllerAgainstRouter(t *testing.T) {
	s := newTestServer(t, nil)
	backend := httptest.NewServer(s.engine)
	defer backend.Close()

	c := chat.NewController(chat.NewHTTPGenerator(backend.URL, backend.Client()))
	c.Open(domain.Item{ChatBot: domain.ChatBot{Model: "fal-ai/custom/edit", Prompt: "Foxes"}})
	require.True(t, c.StageAttachment(domain.Attachment{Name: "fox.png", MediaType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nfox")}))
	c.SetText("make it snowy")

	turn := c.Send(context.Background())
	require.NotNil(t, turn)
	select {
	case <-turn.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not complete")
	}

	msg := turn.Result()
	assert.Equal(t, chat.KindBotImage, msg.Kind)
	assert.Equal(t, "https://fal.media/out.png", msg.ImageURL)
	assert.Equal(t, "/fal-ai/custom/edit", s.p.falPath)
	assert.NotEmpty(t, s.p.falBody["image_url"])

	kinds := []chat.MessageKind{}
	for _, m := range c.Transcript() {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []chat.MessageKind{chat.KindUserText, chat.KindUserAttachment, chat.KindBotImage}, kinds)
}

func TestChatControllerSurfacesServerError(t *testing.T) {
	s := newTestServer(t, nil)
	s.p.falStatus = 422
	s.p.falReply = `{"detail":"prompt rejected"}`
	backend := httptest.NewServer(s.engine)
	defer backend.Close()

	c := chat.NewController(chat.NewHTTPGenerator(backend.URL, backend.Client()))
	c.Open(domain.Item{})
	c.SetText("x")
	turn := c.Send(context.Background())
	<-turn.Done()

	assert.Equal(t, chat.KindBotError, turn.Result().Kind)
	assert.Equal(t, chat.ErrorPrefix+"Fal.ai: prompt rejected", turn.Result().Text)
}
