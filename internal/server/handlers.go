package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/LouYuanbo1/mapsagent/internal/service/scraper"
	"github.com/LouYuanbo1/mapsagent/param"
	"github.com/gin-gonic/gin"
)

const defaultMaxPlaces = 20

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "google_maps",
		"status":  "ok",
	})
}

// handleScrape 触发一次同步抓取,参数走query string
// query必填,max_places/lang/headless/store/enrich可选
func (s *Server) handleScrape(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少query参数"})
		return
	}

	maxPlaces := defaultMaxPlaces
	if raw := c.Query("max_places"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_places必须为正整数"})
			return
		}
		maxPlaces = n
	}

	p := &param.Scrape{
		Query:     query,
		MaxPlaces: maxPlaces,
		Lang:      c.Query("lang"),
		Headless:  parseBool(c.Query("headless"), true),
		Store:     parseBool(c.Query("store"), true),
		Enrich:    parseBool(c.Query("enrich"), false),
	}

	ctx, cancel := s.requestContext(c.Request.Context())
	defer cancel()

	result, err := s.scraperSvc.Run(ctx, p)
	if err != nil {
		s.writeScrapeError(c, ctx, err)
		return
	}

	resp := gin.H{
		"query":     p.Query,
		"requested": result.History.Requested,
		"returned":  result.History.Returned,
		"dropped":   result.History.Dropped,
		"status":    result.History.Status,
		"places":    result.Places,
	}
	if result.PersistenceErr != nil {
		resp["persistence_error"] = result.PersistenceErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeScrapeError(c *gin.Context, ctx context.Context, err error) {
	var launchErr *scraper.LaunchError
	var collectErr *scraper.CollectionError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "抓取超时"})
	case errors.As(err, &launchErr), errors.As(err, &collectErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置数据库,历史记录不可用"})
		return
	}
	entries, err := s.history.History(c.Request.Context(), c.Param("source"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"history": entries,
	})
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
