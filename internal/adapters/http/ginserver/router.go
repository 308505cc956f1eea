package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the statistics pages, the ingestion API and, when metrics is
// non-nil, the Prometheus scrape endpoint.
func NewRouter(h *Handler, metrics http.Handler, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}
	r.SetHTMLTemplate(pageTemplates)

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	r.GET("/", h.Index)
	r.GET("/stats", h.LegacyJSON)
	r.GET("/stats/engines", h.DashboardJSON)

	api := r.Group("/api/v1")
	api.POST("/samples", h.RecordSamples)
	api.POST("/engines/:name/runs", h.RecordEngineRun)
	api.POST("/searches", h.RecordSearch)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}
