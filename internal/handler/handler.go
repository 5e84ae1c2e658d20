package handler

import (
	"time"

	"github.com/set-night/aishifts/internal/config"
	"github.com/set-night/aishifts/internal/service"
)

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg          *config.Config
	orchestrator *service.Orchestrator
	catalog      *service.CatalogService
	now          func() time.Time
}

// Deps contains all dependencies required to construct a Handler.
// Catalog may be nil, in which case the catalog routes are not registered.
type Deps struct {
	Cfg          *config.Config
	Orchestrator *service.Orchestrator
	Catalog      *service.CatalogService
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:          deps.Cfg,
		orchestrator: deps.Orchestrator,
		catalog:      deps.Catalog,
		now:          time.Now,
	}
}
