package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/LouYuanbo1/mapsagent/internal/service/scraper"
	"github.com/gin-gonic/gin"
)

// HistoryReader 供历史查询接口使用,source为空串时返回全部记录
type HistoryReader interface {
	History(ctx context.Context, source string) ([]*model.HistoryEntry, error)
}

// Server 对外HTTP服务
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	scraperSvc scraper.ScraperService
	history    HistoryReader
}

// InitServer 装配路由,history为nil时历史接口返回503
func InitServer(cfg *config.Config, scraperSvc scraper.ScraperService, history HistoryReader) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	s := &Server{
		cfg:        cfg,
		engine:     engine,
		scraperSvc: scraperSvc,
		history:    history,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	maps := s.engine.Group("/google_maps")
	maps.GET("/", s.handleStatus)
	maps.POST("/scrape", s.handleScrape)
	maps.GET("/history", s.handleHistory)
	maps.GET("/history/:source", s.handleHistory)
}

// Run 阻塞运行直到监听失败
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	log.Printf("HTTP服务监听于 %s", addr)
	if err := s.engine.Run(addr); err != nil {
		return fmt.Errorf("HTTP服务退出: %w", err)
	}
	return nil
}

// corsMiddleware 按配置的白名单放行跨域请求,配置"*"则全放行
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// requestContext 给单次抓取请求套上超时,浏览器任务不允许无限期占用会话
func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.Server.RequestTimeoutSeconds) * time.Second
	return context.WithTimeout(parent, timeout)
}
