package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c.Request.Context())})
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return engine
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRecover(t *testing.T) {
	rec := serve(newEngine(Recover()), http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID())

	rec := serve(engine, http.MethodGet, "/ok", nil)
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Contains(t, rec.Body.String(), generated)

	incoming := uuid.NewString()
	rec = serve(engine, http.MethodGet, "/ok", http.Header{RequestIDHeader: {incoming}})
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	rec = serve(engine, http.MethodGet, "/ok", http.Header{RequestIDHeader: {"<script>"}})
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	engine := newEngine(CORS("https://app.example"))

	rec := serve(engine, http.MethodOptions, "/ok", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(engine, http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	engine := newEngine(RateLimit(2))

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ok", nil).Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ok", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodGet, "/ok", nil).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	engine := newEngine(RateLimit(0))
	for range 50 {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ok", nil).Code)
	}
}

func TestLogging_PassesThrough(t *testing.T) {
	rec := serve(newEngine(RequestID(), Logging()), http.MethodGet, "/ok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
