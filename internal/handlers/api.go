package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"salesboard/internal/engine"
	"salesboard/internal/errors"
	"salesboard/internal/exporter"
	"salesboard/internal/ingest"
	"salesboard/internal/models"
	"salesboard/internal/services"
)

const (
	defaultMaxUpload = 32 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	noStore          = "no-store"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	maxUpload int64
	version   string
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, maxUpload int64, version string) *APIHandlers {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		maxUpload: maxUpload,
		version:   version,
	}
}

type metricsResponse struct {
	Metrics     []models.ProductMetrics `json:"metrics"`
	Totals      models.Totals           `json:"totals"`
	RecordCount int                     `json:"recordCount"`
}

// compute runs the pipeline for the request's query parameters, writing the
// error response itself when it fails.
func (h *APIHandlers) compute(w http.ResponseWriter, r *http.Request) (engine.Result, bool) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return engine.Result{}, false
	}
	res, err := h.analytics.Compute(r.Context(), q)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.ServiceUnavailable("request cancelled"))
		return engine.Result{}, false
	}
	return res, true
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", noStore)
	errors.WriteSuccess(w, metricsResponse{Metrics: res.Metrics, Totals: res.Totals, RecordCount: res.RecordCount})
}

func (h *APIHandlers) HandleRollup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	res, ok := h.compute(w, r)
	if !ok {
		return
	}

	var data any
	switch name {
	case "category-stack":
		data = res.Rollups.CategoryStack
	case "geo-matrix":
		data = res.Rollups.GeoMatrix
	case "windows":
		data = res.Rollups.Windows
	case "trends":
		data = res.Rollups.Trends
	case "pareto":
		data = res.Rollups.Pareto
	case "top-products":
		data = res.Rollups.TopProducts
	default:
		errors.WriteError(w, r, h.logger, errors.NotFound(fmt.Sprintf("unknown rollup %q", name)))
		return
	}
	w.Header().Set("Cache-Control", noStore)
	errors.WriteSuccess(w, data)
}

func (h *APIHandlers) HandleTotals(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", noStore)
	errors.WriteSuccess(w, res.Totals)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", noStore)
	errors.WriteSuccess(w, h.analytics.Options())
}

func (h *APIHandlers) HandleProduct(w http.ResponseWriter, r *http.Request) {
	product := r.PathValue("product")
	detail, err := h.analytics.Detail(r.Context(), product)
	if stderrors.Is(err, services.ErrProductNotFound) {
		errors.WriteError(w, r, h.logger, errors.NotFound(fmt.Sprintf("product %q not found", product)))
		return
	}
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	errors.WriteSuccess(w, detail)
}

// HandleUpload replaces the dataset with the request body. The format comes
// from the ?format parameter or else the Content-Type header.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	format, err := uploadFormat(r)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.maxUpload)
	payload, err := ingest.Read(body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			errors.WriteError(w, r, h.logger, errors.TooLarge(fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)))
			return
		}
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "could not parse upload"))
		return
	}

	info, err := h.analytics.Load(r.Context(), payload, "upload:"+string(format))
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "could not load upload"))
		return
	}

	h.logger.InfoContext(r.Context(), "dataset replaced by upload",
		"format", format,
		"records", info.Records,
		"dropped", info.Dropped,
		"preaggregated", info.Preaggregated,
	)
	errors.WriteStatus(w, http.StatusCreated, info)
}

func uploadFormat(r *http.Request) (ingest.Format, error) {
	switch f := ingest.Format(r.URL.Query().Get("format")); f {
	case ingest.FormatCSV, ingest.FormatJSON, ingest.FormatXLSX:
		return f, nil
	case "":
	default:
		return "", errors.UnsupportedFormat(fmt.Sprintf("unsupported format %q", f))
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.UnsupportedFormat("missing or invalid Content-Type")
	}
	switch mediaType {
	case "application/json":
		return ingest.FormatJSON, nil
	case "text/csv", "application/csv":
		return ingest.FormatCSV, nil
	case xlsxContentType:
		return ingest.FormatXLSX, nil
	}
	return "", errors.UnsupportedFormat(fmt.Sprintf("unsupported content type %q", mediaType))
}

func (h *APIHandlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("csv"))
	if err := exporter.WriteCSV(w, res.Metrics); err != nil {
		h.logger.ErrorContext(r.Context(), "write csv export", "error", err)
	}
}

func (h *APIHandlers) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", attachment("xlsx"))
	if err := exporter.WriteXLSX(w, res.Metrics, res.Rollups.Windows); err != nil {
		h.logger.ErrorContext(r.Context(), "write xlsx export", "error", err)
	}
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="sales-metrics-%s.%s"`, time.Now().UTC().Format("20060102"), ext)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.analytics.Info()
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"dataset":   info.ID,
		"records":   info.Records,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
