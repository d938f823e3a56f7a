package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salesboard/internal/engine"
	"salesboard/internal/ingest"
	"salesboard/internal/models"
	"salesboard/internal/observability"
)

const defaultCacheSize = 128

var ErrProductNotFound = errors.New("product not found")

type Options struct {
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Tracer     trace.TracerProvider
	Normalizer *engine.Normalizer
	Batch      ingest.BatchOptions
	CacheSize  int
	TopN       int
}

// DatasetInfo describes the dataset currently served.
type DatasetInfo struct {
	ID            string    `json:"id"`
	Version       uint64    `json:"version"`
	Source        string    `json:"source"`
	Preaggregated bool      `json:"preaggregated"`
	Records       int       `json:"records"`
	Products      int       `json:"products"`
	Dropped       int       `json:"dropped"`
	LoadedAt      time.Time `json:"loadedAt"`
}

type dataset struct {
	info    DatasetInfo
	records []models.CanonicalRecord
	metrics []models.ProductMetrics
	options models.DimensionOptions
}

// Analytics holds the current dataset and memoizes pipeline results per
// dataset version and query. Results are shared between callers and must be
// treated as read-only.
type Analytics struct {
	mu      sync.RWMutex
	current *dataset
	version atomic.Uint64

	cache      *lru.Cache[uint64, engine.Result]
	normalizer *engine.Normalizer
	batch      ingest.BatchOptions
	topN       int

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

func NewAnalytics(opts Options) (*Analytics, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.GetTracerProvider()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = engine.NewNormalizer()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.TopN <= 0 {
		opts.TopN = engine.DefaultTopN
	}

	cache, err := lru.New[uint64, engine.Result](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}

	a := &Analytics{
		cache:      cache,
		normalizer: opts.Normalizer,
		batch:      opts.Batch,
		topN:       opts.TopN,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		tracer:     opts.Tracer.Tracer(observability.InstrumentationName),
	}
	a.install(&dataset{options: emptyOptions()}, "empty")
	return a, nil
}

// LoadFile replaces the dataset with the contents of path. An empty format
// is inferred from the file extension.
func (a *Analytics) LoadFile(ctx context.Context, path string, format ingest.Format) (DatasetInfo, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.LoadFile", trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	start := time.Now()
	payload, err := ingest.ReadFile(path, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return DatasetInfo{}, fmt.Errorf("read %s: %w", path, err)
	}

	info, err := a.Load(ctx, payload, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return DatasetInfo{}, err
	}

	duration := time.Since(start)
	a.logger.InfoContext(ctx, "dataset loaded",
		"source", path,
		"records", info.Records,
		"products", info.Products,
		"dropped", info.Dropped,
		"duration", duration,
	)
	return info, nil
}

// Load replaces the dataset with payload. Raw rows are normalized on the
// worker pool; pre-aggregated metrics are served as they are.
func (a *Analytics) Load(ctx context.Context, payload ingest.Payload, source string) (DatasetInfo, error) {
	if payload.Preaggregated() {
		return a.SetMetrics(payload.Metrics, source), nil
	}

	ctx, span := a.tracer.Start(ctx, "analytics.Normalize", trace.WithAttributes(attribute.Int("rows", len(payload.Rows))))
	defer span.End()

	records, dropped, err := ingest.NormalizeBatches(ctx, a.normalizer, payload.Rows, a.batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		return DatasetInfo{}, fmt.Errorf("normalize rows: %w", err)
	}
	if a.metrics != nil {
		a.metrics.RowsIngested.Add(float64(len(payload.Rows)))
		a.metrics.RowsDropped.Add(float64(dropped))
	}
	span.SetAttributes(attribute.Int("records", len(records)), attribute.Int("dropped", dropped))

	return a.installRecords(records, dropped, source), nil
}

// SetRecords replaces the dataset with canonical records.
func (a *Analytics) SetRecords(records []models.CanonicalRecord, source string) DatasetInfo {
	return a.installRecords(records, 0, source)
}

func (a *Analytics) installRecords(records []models.CanonicalRecord, dropped int, source string) DatasetInfo {
	ds := &dataset{
		records: records,
		options: engine.Options(records),
	}
	ds.info.Records = len(records)
	ds.info.Products = countProducts(records)
	ds.info.Dropped = dropped
	return a.install(ds, source)
}

// SetMetrics replaces the dataset with metrics aggregated elsewhere. Only
// the product filter applies to such a dataset.
func (a *Analytics) SetMetrics(metrics []models.ProductMetrics, source string) DatasetInfo {
	ds := &dataset{
		metrics: metrics,
		options: emptyOptions(),
	}
	ds.info.Preaggregated = true
	ds.info.Products = len(metrics)
	for _, m := range metrics {
		ds.info.Records += len(m.Weeks)
	}
	return a.install(ds, source)
}

func (a *Analytics) install(ds *dataset, source string) DatasetInfo {
	ds.info.ID = uuid.NewString()
	ds.info.Version = a.version.Add(1)
	ds.info.Source = source
	ds.info.LoadedAt = time.Now().UTC()

	a.mu.Lock()
	a.current = ds
	a.cache.Purge()
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.DatasetRecords.Set(float64(ds.info.Records))
		a.metrics.DatasetProducts.Set(float64(ds.info.Products))
	}
	return ds.info
}

// Compute runs the pipeline for q over the current dataset, serving repeated
// queries from the cache.
func (a *Analytics) Compute(ctx context.Context, q engine.Query) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}
	q = a.normalizeQuery(q)

	a.mu.RLock()
	ds := a.current
	a.mu.RUnlock()

	key := fingerprint(ds.info.Version, q)
	if res, ok := a.cache.Get(key); ok {
		a.observeRun("hit", 0)
		return res, nil
	}

	_, span := a.tracer.Start(ctx, "analytics.Compute", trace.WithAttributes(
		attribute.Int64("dataset.version", int64(ds.info.Version)),
		attribute.Bool("dataset.preaggregated", ds.info.Preaggregated),
		attribute.String("sort.key", string(q.Sort.Key)),
		attribute.Int("top_n", q.TopN),
	))
	defer span.End()

	start := time.Now()
	var res engine.Result
	if ds.info.Preaggregated {
		res = engine.RunMetrics(ds.metrics, q)
	} else {
		res = engine.Run(ds.records, q)
	}
	elapsed := time.Since(start)
	a.observeRun("miss", elapsed)
	a.logger.DebugContext(ctx, "pipeline computed",
		"dataset_version", ds.info.Version,
		"products", len(res.Metrics),
		"records", res.RecordCount,
		"duration", elapsed,
	)
	span.SetAttributes(attribute.Int("products", len(res.Metrics)), attribute.Int("records", res.RecordCount))

	a.mu.RLock()
	if a.current == ds {
		a.cache.Add(key, res)
	}
	a.mu.RUnlock()

	return res, nil
}

// Detail returns the weekly series of one product over the whole dataset.
func (a *Analytics) Detail(ctx context.Context, product string) (models.ProductDetail, error) {
	res, err := a.Compute(ctx, engine.Query{})
	if err != nil {
		return models.ProductDetail{}, err
	}
	for _, m := range res.Metrics {
		if m.Product == product {
			return engine.Detail(m), nil
		}
	}
	return models.ProductDetail{}, fmt.Errorf("%w: %q", ErrProductNotFound, product)
}

// Options lists the filterable dimension values of the current dataset.
func (a *Analytics) Options() models.DimensionOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.options
}

func (a *Analytics) Info() DatasetInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current.info
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	info := a.Info()
	return map[string]any{
		"dataset_id":     info.ID,
		"version":        info.Version,
		"source":         info.Source,
		"preaggregated":  info.Preaggregated,
		"record_count":   info.Records,
		"products":       info.Products,
		"dropped":        info.Dropped,
		"last_processed": info.LoadedAt,
		"cache_entries":  a.cache.Len(),
	}
}

func (a *Analytics) normalizeQuery(q engine.Query) engine.Query {
	if q.TopN <= 0 {
		q.TopN = a.topN
	}
	def := models.DefaultSort()
	if q.Sort.Key == "" {
		q.Sort.Key = def.Key
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = def.Direction
	}
	return q
}

func (a *Analytics) observeRun(cache string, d time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.PipelineRuns.WithLabelValues(cache).Inc()
	if cache == "miss" {
		a.metrics.PipelineSeconds.Observe(d.Seconds())
	}
}

// fingerprint hashes everything a pipeline result depends on.
func fingerprint(version uint64, q engine.Query) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], version)
	_, _ = d.Write(buf[:])

	f := q.Filter
	for _, part := range []string{
		f.Category, f.Salesman, f.City, f.CustomerType, f.Product, f.FromDate, f.ToDate,
		string(q.Sort.Key), string(q.Sort.Direction), strconv.Itoa(q.TopN),
	} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

func countProducts(records []models.CanonicalRecord) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Product] = struct{}{}
	}
	return len(seen)
}

func emptyOptions() models.DimensionOptions {
	return models.DimensionOptions{
		Categories:    []string{},
		Salesmen:      []string{},
		Cities:        []string{},
		CustomerTypes: []string{},
	}
}
