package server

import (
	"github.com/gin-gonic/gin"

	"github.com/Mujanati13/eco-solutions-sub001/internal/config"
	"github.com/Mujanati13/eco-solutions-sub001/internal/importer"
	"github.com/Mujanati13/eco-solutions-sub001/internal/scheduler"
	"github.com/Mujanati13/eco-solutions-sub001/internal/server/handlers"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	store    *store.Store
	handlers *handlers.Handlers
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, st *store.Store, orch *importer.Orchestrator, sched *scheduler.Scheduler) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:   gin.Default(),
		store:    st,
		handlers: handlers.NewHandlers(st, orch, sched),
	}

	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.handlers.RegisterRoutes(api)
	}
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router 返回路由（用于测试）
func (s *Server) Router() *gin.Engine {
	return s.router
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
