package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"salesboard/internal/models"
	"salesboard/internal/services"
	"salesboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageTitle     = "Weekly Sales Dashboard"
)

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	topN      int
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger, topN int) *PageHandlers {
	return &PageHandlers{analytics: analytics, logger: logger, topN: topN}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	page := templates.Page{
		Title:   pageTitle,
		Options: h.analytics.Options(),
		Signals: templates.Signals{Sort: models.DefaultSort(), Top: h.topN},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := templates.Dashboard(page).Render(ctx, w); err != nil {
		h.logger.ErrorContext(ctx, "render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
