package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mujanati13/eco-solutions-sub001/internal/exporter"
	"github.com/Mujanati13/eco-solutions-sub001/internal/importer"
	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/scheduler"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// Handlers API处理器
type Handlers struct {
	store    *store.Store
	orch     *importer.Orchestrator
	sched    *scheduler.Scheduler
	exporter *exporter.Exporter
}

// NewHandlers 创建处理器
func NewHandlers(st *store.Store, orch *importer.Orchestrator, sched *scheduler.Scheduler) *Handlers {
	return &Handlers{store: st, orch: orch, sched: sched, exporter: exporter.NewExporter(st)}
}

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// RegisterRoutes 注册 API 路由
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	// 扫描控制
	router.POST("/scan", h.TriggerScan)
	router.GET("/scan/status", h.ScanStatus)

	// 文件处理记录
	router.GET("/files", h.ListFiles)
	router.GET("/files/:id/report", h.FileReport)

	// 订单查询与导出
	router.GET("/orders", h.ListOrders)
	router.GET("/orders/export", h.ExportOrders)

	// 地理参考数据
	router.GET("/wilayas", h.ListWilayas)
	router.GET("/wilayas/:id/communes", h.ListCommunes)

	// 直接上传导入
	router.POST("/import", h.Import)
}

// Health 健康检查
func (h *Handlers) Health(c *gin.Context) {
	success(c, gin.H{"status": "ok"})
}

// TriggerScan 手动触发扫描；已有扫描在跑时返回 409
func (h *Handlers) TriggerScan(c *gin.Context) {
	if !h.sched.TriggerNow() {
		c.JSON(http.StatusConflict, Response{
			Code:    4091,
			Message: "a scan is already running",
		})
		return
	}
	success(c, gin.H{"triggered": true})
}

// ScanStatus 返回扫描状态与最近会话
func (h *Handlers) ScanStatus(c *gin.Context) {
	success(c, h.sched.Status())
}

// ListFiles 列出文件处理记录
func (h *Handlers) ListFiles(c *gin.Context) {
	files, err := h.store.ListProcessedFiles()
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	success(c, files)
}

// FileReport 单个文件的处理记录与已入库订单
func (h *Handlers) FileReport(c *gin.Context) {
	fileID := c.Param("id")

	record, err := h.store.GetProcessedFile(fileID)
	if err != nil {
		if err == store.ErrNotFound {
			errorResponse(c, 4041, "file not found")
			return
		}
		errorResponse(c, 5001, err.Error())
		return
	}

	orders, err := h.store.ListOrders(store.OrderQueryOptions{FileID: &fileID})
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}

	success(c, gin.H{
		"file":   record,
		"orders": orders,
	})
}

// ListOrders 分页订单查询，支持状态与 wilaya 过滤
func (h *Handlers) ListOrders(c *gin.Context) {
	opts := store.OrderQueryOptions{Limit: 50}

	if v := c.Query("status"); v != "" {
		status := model.OrderStatus(v)
		opts.Status = &status
	}
	if v := c.Query("wilaya_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errorResponse(c, 1001, "invalid wilaya_id")
			return
		}
		opts.WilayaID = &id
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			opts.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	orders, err := h.store.ListOrders(opts)
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	total, err := h.store.CountOrders(opts)
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}

	success(c, gin.H{
		"orders": orders,
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// ExportOrders 导出订单工作簿
func (h *Handlers) ExportOrders(c *gin.Context) {
	opts := store.OrderQueryOptions{}
	if v := c.Query("status"); v != "" {
		status := model.OrderStatus(v)
		opts.Status = &status
	}
	if v := c.Query("wilaya_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errorResponse(c, 1001, "invalid wilaya_id")
			return
		}
		opts.WilayaID = &id
	}

	f, err := h.exporter.Export(opts)
	if err != nil {
		errorResponse(c, 5003, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", "attachment; filename="+exporter.Filename())
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		// 响应已开始写出，只能记录
		_ = c.Error(err)
	}
}

// ListWilayas 列出 wilaya 参考数据
func (h *Handlers) ListWilayas(c *gin.Context) {
	wilayas, err := h.store.ListWilayas()
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	success(c, wilayas)
}

// ListCommunes 列出指定 wilaya 下的 commune
func (h *Handlers) ListCommunes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, 1001, "invalid wilaya id")
		return
	}
	communes, err := h.store.ListCommunesByWilaya(id)
	if err != nil {
		errorResponse(c, 5001, err.Error())
		return
	}
	success(c, communes)
}

// Import 上传工作簿直接导入
func (h *Handlers) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, 1001, "missing upload file")
		return
	}
	defer file.Close()

	// 文件大小上限 20MB
	if header.Size > 20*1024*1024 {
		errorResponse(c, 1003, "file too large, 20MB max")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xlsm" && ext != ".xls" {
		errorResponse(c, 1002, "only .xlsx, .xlsm and .xls are supported")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, 1002, "failed to read upload")
		return
	}

	ch := h.orch.Import(importer.ImportOptions{
		FileID:   "upload-" + uuid.New().String(),
		FileName: header.Filename,
		Content:  content,
	})

	// 同步等待导入结束，返回最终报告
	var report *importer.FileReport
	var fatal string
	for ev := range ch {
		switch ev.Type {
		case "done":
			if r, ok := ev.Data.(*importer.FileReport); ok {
				report = r
			}
		case "error":
			fatal = ev.Message
		}
	}

	if report == nil {
		if fatal == "" {
			fatal = "import produced no report"
		}
		errorResponse(c, 5002, fatal)
		return
	}
	success(c, report)
}
