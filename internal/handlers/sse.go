package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"salesboard/internal/engine"
	"salesboard/internal/errors"
	"salesboard/internal/models"
	"salesboard/internal/observability"
	"salesboard/internal/services"
	"salesboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
		metrics:   metrics,
	}
}

// chartData is the chart payload patched into the local charts signal.
type chartData struct {
	TopProducts   models.TopProductsChart `json:"topProducts"`
	CategoryStack models.CategoryStack    `json:"categoryStack"`
	Windows       models.RollingWindows   `json:"windows"`
	Pareto        models.ParetoChart      `json:"pareto"`
}

// HandleRefreshAll re-renders every dashboard region for the current signals.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	res, errMsg := h.result(r)
	sse := datastar.NewSSE(w, r)
	if errMsg != "" {
		h.patchElements(sse, r, "error", templates.ErrorBanner(errMsg))
		return
	}

	h.patchElements(sse, r, "table",
		templates.ErrorBanner(""),
		templates.TotalsCards(res.Totals, res.RecordCount),
		templates.MetricsTable(res.Metrics),
	)
	h.patchCharts(sse, r, res)
	h.patchElements(sse, r, "charts",
		templates.Heatmap(res.Rollups.GeoMatrix),
		templates.Sparklines(res.Rollups.Trends),
	)
}

func (h *SSEHandlers) HandleMetricsTable(w http.ResponseWriter, r *http.Request) {
	res, errMsg := h.result(r)
	sse := datastar.NewSSE(w, r)
	if errMsg != "" {
		h.patchElements(sse, r, "error", templates.ErrorBanner(errMsg))
		return
	}

	h.patchElements(sse, r, "table",
		templates.ErrorBanner(""),
		templates.TotalsCards(res.Totals, res.RecordCount),
		templates.MetricsTable(res.Metrics),
	)
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	res, errMsg := h.result(r)
	sse := datastar.NewSSE(w, r)
	if errMsg != "" {
		h.patchElements(sse, r, "error", templates.ErrorBanner(errMsg))
		return
	}

	h.patchCharts(sse, r, res)
	h.patchElements(sse, r, "charts",
		templates.Heatmap(res.Rollups.GeoMatrix),
		templates.Sparklines(res.Rollups.Trends),
	)
}

// result reads the request signals and computes the pipeline. Failures are
// returned as a message for the error banner.
func (h *SSEHandlers) result(r *http.Request) (engine.Result, string) {
	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.WarnContext(r.Context(), "read signals", "error", err)
		return engine.Result{}, "Could not read dashboard state"
	}

	q, err := signalsQuery(signals)
	if err != nil {
		return engine.Result{}, userMessage(err)
	}

	res, err := h.analytics.Compute(r.Context(), q)
	if err != nil {
		return engine.Result{}, "Request cancelled"
	}
	return res, ""
}

func (h *SSEHandlers) patchElements(sse *datastar.ServerSentEventGenerator, r *http.Request, target string, components ...templ.Component) {
	for _, c := range components {
		html, err := templates.Render(r.Context(), c)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "render fragment", "target", target, "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(r.Context(), "patch elements", "target", target, "error", err)
			return
		}
		h.countPatch(target)
	}
}

func (h *SSEHandlers) patchCharts(sse *datastar.ServerSentEventGenerator, r *http.Request, res engine.Result) {
	payload, err := json.Marshal(map[string]chartData{
		templates.ChartsSignal: {
			TopProducts:   res.Rollups.TopProducts,
			CategoryStack: res.Rollups.CategoryStack,
			Windows:       res.Rollups.Windows,
			Pareto:        res.Rollups.Pareto,
		},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "marshal chart signals", "error", err)
		return
	}
	if err := sse.PatchSignals(payload); err != nil {
		h.logger.WarnContext(r.Context(), "patch signals", "error", err)
		return
	}
	h.countPatch("signals")
}

func (h *SSEHandlers) countPatch(target string) {
	if h.metrics != nil {
		h.metrics.SSEPatches.WithLabelValues(target).Inc()
	}
}

func userMessage(err error) string {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return "Invalid request"
	}
	if appErr.Details == "" {
		return appErr.Message
	}
	return appErr.Message + ": " + strings.ReplaceAll(appErr.Details, "; ", ", ")
}
