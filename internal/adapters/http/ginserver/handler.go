package ginserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/i18n"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/audit"
	"github.com/vshulcz/enginestats/internal/services/recorder"
	"github.com/vshulcz/enginestats/internal/services/stats"
)

const maxBodyBytes = 1 << 20

// Handler exposes the statistics pages and the ingestion API.
type Handler struct {
	store    ports.MetricStore
	stats    *stats.Builder
	recorder *recorder.Service
	catalog  *i18n.Catalog
}

// NewHandler wires the services into a gin-compatible HTTP handler.
func NewHandler(store ports.MetricStore, b *stats.Builder, rec *recorder.Service, cat *i18n.Catalog) *Handler {
	return &Handler{store: store, stats: b, recorder: rec, catalog: cat}
}

func (h *Handler) translator(c *gin.Context) ports.Translator {
	return h.catalog.Translator(c.Query("lang"), c.GetHeader("Accept-Language"))
}

func withSource(c *gin.Context) {
	ctx := audit.WithSource(c.Request.Context(), audit.Source{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.Request = c.Request.WithContext(ctx)
}

func decodeStrict(c *gin.Context, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Ping proxies `GET /ping` to the storage health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "db ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

// Index renders `GET /` as HTML bar charts of the ranked series.
func (h *Handler) Index(c *gin.Context) {
	tr := h.translator(c)
	series, err := h.stats.Legacy(c.Request.Context(), tr)
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, indexTemplate, gin.H{
		"Title":  tr.T(i18n.EngineStats),
		"Series": series,
	})
}

// LegacyJSON handles `GET /stats` with the five ranked series.
func (h *Handler) LegacyJSON(c *gin.Context) {
	series, err := h.stats.Legacy(c.Request.Context(), h.translator(c))
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, series)
}

// DashboardJSON handles `GET /stats/engines` with the detailed dashboard payload.
func (h *Handler) DashboardJSON(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context(), h.translator(c))
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, d)
}

// RecordSamples handles `POST /api/v1/samples` with a JSON batch of observations.
func (h *Handler) RecordSamples(c *gin.Context) {
	var batch []domain.Observation
	if err := decodeStrict(c, &batch); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	withSource(c)
	sum, err := h.recorder.Record(c.Request.Context(), batch)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// RecordEngineRun handles `POST /api/v1/engines/:name/runs`; the path names the engine.
func (h *Handler) RecordEngineRun(c *gin.Context) {
	var run recorder.EngineRun
	if err := decodeStrict(c, &run); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	run.Engine = c.Param("name")
	if strings.TrimSpace(run.Engine) == "" {
		c.String(http.StatusNotFound, "not found")
		return
	}
	withSource(c)
	sum, err := h.recorder.RecordEngineRun(c.Request.Context(), run)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// RecordSearch handles `POST /api/v1/searches` with the global timings of one search.
func (h *Handler) RecordSearch(c *gin.Context) {
	var run recorder.SearchRun
	if err := decodeStrict(c, &run); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	withSource(c)
	sum, err := h.recorder.RecordSearch(c.Request.Context(), run)
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownMetric):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, recorder.ErrEmptyBatch):
		c.String(http.StatusBadRequest, "bad request")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
