package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/set-night/aishifts/internal/domain"
)

type commentRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, "categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) Items(c *gin.Context) {
	items, err := h.catalog.Items(c.Request.Context())
	if err != nil {
		respondError(c, "items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Feed(c *gin.Context) {
	feed, err := h.catalog.Feed(c.Request.Context())
	if err != nil {
		respondError(c, "feed", err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) AddComment(c *gin.Context) {
	var body commentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body")
		return
	}

	comment, err := h.catalog.AddComment(c.Request.Context(), c.Param("id"), domain.Comment{
		Username: body.Username,
		Text:     body.Text,
	})
	if err != nil {
		respondError(c, "add comment", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
