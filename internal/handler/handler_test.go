package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/domain"
	"github.com/set-night/aishifts/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type providers struct {
	gemini     *httptest.Server
	fal        *httptest.Server
	falBody    map[string]any
	falPath    string
	geminiText string
	falStatus  int
	falReply   string
}

func newProviders(t *testing.T) *providers {
	t.Helper()
	p := &providers{
		geminiText: "an enriched prompt",
		falStatus:  http.StatusOK,
		falReply:   `{"images":[{"url":"https://fal.media/out.png"}]}`,
	}
	p.gemini = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": p.geminiText}}}}},
		})
	}))
	p.fal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.falPath = r.URL.Path
		p.falBody = nil
		json.NewDecoder(r.Body).Decode(&p.falBody)
		w.WriteHeader(p.falStatus)
		w.Write([]byte(p.falReply))
	}))
	t.Cleanup(p.gemini.Close)
	t.Cleanup(p.fal.Close)
	return p
}

type testServer struct {
	engine *gin.Engine
	p      *providers
	store  *memoryStore
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	p := newProviders(t)
	cfg := &config.Config{
		GeminiAPIKey:   "gk",
		GeminiBaseURL:  p.gemini.URL,
		GeminiModel:    "test-model",
		FalKey:         "fk",
		FalBaseURL:     p.fal.URL,
		MaxUploadBytes: 1 << 20,
		CORSOrigin:     "*",
	}
	if mutate != nil {
		mutate(cfg)
	}
	orch := service.NewOrchestrator(
		service.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel, 0),
		service.NewFalService(cfg.FalKey, cfg.FalBaseURL, 0),
		nil, "system",
	)
	store := newMemoryStore()
	h := New(Deps{Cfg: cfg, Orchestrator: orch, Catalog: service.NewCatalogService(store, time.Minute)})
	h.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("TRT", 3*3600)) }
	return &testServer{engine: h.Router(), p: p, store: store}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","timestamp":"2025-03-04T02:06:07.890Z"}`, rec.Body.String())
}

func TestGenerate_TextOnly(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{
		"userMessage": "kedi çiz",
		"itemPrompt":  "Watercolor",
	}, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "an enriched prompt", body["geminiPrompt"])
	assert.Equal(t, "https://fal.media/out.png", body["imageUrl"])
	assert.NotNil(t, body["falData"])

	assert.Equal(t, "/"+config.DefaultFalModel, s.p.falPath)
	assert.Equal(t, map[string]any{"prompt": "an enriched prompt"}, s.p.falBody)
}

func TestGenerate_WithAttachment(t *testing.T) {
	s := newTestServer(t, nil)
	data := []byte("\x89PNG\r\n\x1a\nfake image bytes")
	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{
		"falModel": "fal-ai/custom/edit",
	}, &formFile{name: "cat.png", contentType: "image/png", data: data}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/fal-ai/custom/edit", s.p.falPath)

	att := domain.Attachment{MediaType: "image/png", Data: data}
	assert.Equal(t, att.DataURI(), s.p.falBody["image_url"])
	assert.Equal(t, att.DataURI(), s.p.falBody["image"])
	assert.Equal(t, []any{att.DataURI()}, s.p.falBody["image_urls"])
	assert.Equal(t, 0.75, s.p.falBody["strength"])
}

func TestGenerate_NoImageOmitsURL(t *testing.T) {
	s := newTestServer(t, nil)
	s.p.falReply = `{"seed":12}`

	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{"userMessage": "hi"}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	_, has := body["imageUrl"]
	assert.False(t, has)
	assert.Equal(t, "an enriched prompt", body["geminiPrompt"])
}

func TestGenerate_FalErrorIsPrefixed(t *testing.T) {
	s := newTestServer(t, nil)
	s.p.falStatus = http.StatusNotFound
	s.p.falReply = `{"detail":"Application not found"}`

	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{"userMessage": "hi"}, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Fal.ai: Application not found"}`, rec.Body.String())
}

func TestGenerate_MissingGeminiKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.GeminiAPIKey = "" })

	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{"userMessage": "hi"}, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"GEMINI_API_KEY not configured"}`, rec.Body.String())
	assert.Nil(t, s.p.falBody)
}

func TestGenerate_AttachmentTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 1024 })

	rec := s.do(multipartRequest(t, "/api/generate", map[string]string{"userMessage": "hi"},
		&formFile{name: "big.png", contentType: "image/png", data: bytes.Repeat([]byte{1}, 8*1024)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGemini(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"userMessage":"hi","itemPrompt":"ctx"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prompt":"an enriched prompt"}`, rec.Body.String())
}

func TestGemini_InvalidBody(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestFal(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(multipartRequest(t, "/api/fal", map[string]string{"prompt": "a red fox"}, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "https://fal.media/out.png", body["imageUrl"])
	assert.Equal(t, "/"+config.TextToImageFalModel, s.p.falPath)
	assert.Equal(t, "a red fox", s.p.falBody["prompt"])
}

func TestFal_UnprefixedError(t *testing.T) {
	s := newTestServer(t, nil)
	s.p.falStatus = http.StatusUnauthorized
	s.p.falReply = `{"detail":"Invalid key"}`

	rec := s.do(multipartRequest(t, "/api/fal", map[string]string{"prompt": "x"}, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid key"}`, rec.Body.String())
}

type memoryStore struct {
	items    []domain.Item
	comments map[uuid.UUID][]domain.Comment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{comments: make(map[uuid.UUID][]domain.Comment)}
}

func (m *memoryStore) Categories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "1", CategoryID: "art", Name: "Art"}}, nil
}

func (m *memoryStore) Items(context.Context) ([]domain.Item, error) {
	return m.items, nil
}

func (m *memoryStore) ResolveItemID(_ context.Context, itemID string) (uuid.UUID, error) {
	for _, it := range m.items {
		if it.ItemID == itemID {
			return uuid.Parse(it.ID)
		}
	}
	return uuid.Nil, domain.ErrItemNotFound
}

func (m *memoryStore) AppendComment(_ context.Context, itemID, _ uuid.UUID, c domain.Comment) (*domain.Comment, error) {
	for _, it := range m.items {
		if it.ID == itemID.String() {
			c.ID = uuid.NewString()
			m.comments[itemID] = append(m.comments[itemID], c)
			return &c, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (m *memoryStore) CreateAnonymousIdentity(context.Context) (uuid.UUID, error) {
	return uuid.New(), nil
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	itemID := uuid.New()
	s.store.items = []domain.Item{{ID: itemID.String(), ItemID: "10", Head: "Foxes", CategoryID: "art"}}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var feed service.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed.Categories, 1)
	assert.Len(t, feed.Items, 1)

	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/api/items", nil)).Code)

	post := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/items/"+id+"/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(req)
	}

	rec = post(itemID.String(), `{"text":"lovely"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "lovely", body["text"])
	assert.Equal(t, service.DefaultCommentUsername, body["username"])

	rec = post("10", `{"username":"mert","text":"by public id"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, s.store.comments[itemID], 2)

	assert.Equal(t, http.StatusNotFound, post(uuid.NewString(), `{"text":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, post("abc", `{"text":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(itemID.String(), `{"text":"   "}`).Code)
}

func TestCatalogRoutes_WithoutStoreServeSample(t *testing.T) {
	h := New(Deps{
		Cfg:     &config.Config{MaxUploadBytes: 1024},
		Catalog: service.NewCatalogService(nil, time.Minute),
	})
	engine := h.Router()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var feed service.Feed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed.Categories, 7)
	assert.Len(t, feed.Items, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/items/1/comments", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
