package server

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"clawboard/internal/config"
	"clawboard/internal/logging"
	"clawboard/internal/model"
	"clawboard/internal/store"
)

// Server 看板静态预览服务器：只托管构建好的页面与 JSON 快照
type Server struct {
	router    *gin.Engine
	staticDir string
	store     *store.Store
	logger    *logging.Logger
	devMode   bool
}

// NewServer 创建服务器；st 用于健康检查中报告快照状态，可为 nil
func NewServer(cfg *config.AppConfig, st *store.Store, logger *logging.Logger) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		router:    gin.New(),
		staticDir: cfg.Server.StaticDir,
		store:     st,
		logger:    logger,
		devMode:   devMode,
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// 开发模式：快照每次构建都会变，禁用缓存
	if s.devMode {
		s.router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store")
			c.Next()
		})
	}

	s.router.GET("/healthz", s.health)

	// 静态资源 + SPA fallback
	s.router.NoRoute(s.serveStatic)
}

// health 健康检查，附带最近一次构建时间与主表记号数
func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.store != nil {
		summary, err := s.store.LoadSummary()
		switch {
		case err == nil:
			resp["updated_at"] = summary.UpdatedAt
			resp["row_count"] = summary.RowCount
		case errors.Is(err, store.ErrSnapshotNotFound):
			resp["updated_at"] = nil
		default:
			s.logger.Warn("load summary failed", "error", err)
		}

		master, err := s.store.LoadMaster()
		switch {
		case err == nil:
			resp["master"] = masterStats(master)
		case errors.Is(err, store.ErrSnapshotNotFound):
			resp["master"] = nil
		default:
			s.logger.Warn("load symbol master failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// masterStats 各分类记号数（只列出非空分类）与机台数
func masterStats(master *model.SymbolMaster) gin.H {
	codes := make(map[string]int, len(master.Specs))
	for _, spec := range master.Specs {
		if n := len(master.Dict[spec.Key]); n > 0 {
			codes[spec.Key] = n
		}
	}
	return gin.H{"codes": codes, "machines": len(master.MachinesByBooth)}
}

// serveStatic 存在的文件直接返回；带扩展名的缺失文件 404；其余路径返回 index.html
func (s *Server) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	rel := path.Clean("/" + c.Request.URL.Path)
	if rel == "/" {
		rel = "/index.html"
	}
	full := filepath.Join(s.staticDir, filepath.FromSlash(rel))
	if info, err := os.Stat(full); err == nil {
		if info.IsDir() {
			full = filepath.Join(full, "index.html")
		}
		if _, err := os.Stat(full); err == nil {
			c.File(full)
			return
		}
	}

	if path.Ext(rel) != "" {
		c.Status(http.StatusNotFound)
		return
	}
	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.String(http.StatusNotFound, "index.html not found in %s", s.staticDir)
		return
	}
	c.File(index)
}

// requestLogger 访问日志
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if strings.HasPrefix(c.Request.URL.Path, "/healthz") {
			return
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// Handler 返回 http.Handler（测试用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
