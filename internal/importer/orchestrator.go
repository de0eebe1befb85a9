package importer

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Mujanati13/eco-solutions-sub001/internal/dedup"
	"github.com/Mujanati13/eco-solutions-sub001/internal/geo"
	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/parser"
	"github.com/Mujanati13/eco-solutions-sub001/internal/pricing"
	"github.com/Mujanati13/eco-solutions-sub001/internal/source"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// Orchestrator 导入协调器
// 单文件单 tab 串行处理：识别格式 → 逐行映射 → 地理解析 → 计价 → 判重 → 落库
type Orchestrator struct {
	store    *store.Store
	detector *parser.Detector
	geo      *geo.Resolver
	pricing  *pricing.Resolver
	gate     *dedup.Gate
}

// NewOrchestrator 创建导入协调器
func NewOrchestrator(st *store.Store, pr *pricing.Resolver) *Orchestrator {
	return &Orchestrator{
		store:    st,
		detector: parser.NewDetector(),
		geo:      geo.NewResolver(st),
		pricing:  pr,
		gate:     dedup.NewGate(st),
	}
}

// TabReport 单个工作表的处理结果
type TabReport struct {
	Sheet      string            `json:"sheet"`
	FormatID   string            `json:"formatId"`
	Status     string            `json:"status"` // imported/skipped/error
	TotalRows  int               `json:"totalRows"`
	Imported   int               `json:"imported"`
	Duplicates int               `json:"duplicates"`
	Errors     []parser.RowError `json:"errors,omitempty"`
	Fatal      string            `json:"fatal,omitempty"` // 表级失败原因
	Duration   time.Duration     `json:"duration"`
}

// FileReport 单个文件的处理汇总
type FileReport struct {
	FileID     string        `json:"fileId"`
	FileName   string        `json:"fileName"`
	Tabs       []TabReport   `json:"tabs"`
	TotalRows  int           `json:"totalRows"`
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	ErrorRows  int           `json:"errorRows"`
	Duration   time.Duration `json:"duration"`
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/tab_start/tab_done/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ImportTab 处理单个工作表
// 行级失败只收集不中断；返回 error 仅代表表级致命失败
func (o *Orchestrator) ImportTab(fileID, fileName, sheet string, grid [][]string) *TabReport {
	start := time.Now()
	report := &TabReport{Sheet: sheet, FormatID: parser.FormatUnknown}

	if len(grid) == 0 {
		report.Status = "error"
		report.Fatal = "sheet has no rows"
		report.Duration = time.Since(start)
		return report
	}

	detection, err := o.detector.Detect(grid)
	if err != nil {
		report.Status = "error"
		report.Fatal = err.Error()
		report.Duration = time.Since(start)
		return report
	}
	report.FormatID = detection.FormatID

	mapper := parser.NewRowMapper(detection)

	dataStart := 0
	if detection.HasHeader {
		dataStart = 1
	}

	for i := dataStart; i < len(grid); i++ {
		row := grid[i]
		if emptyRow(row) {
			continue
		}
		report.TotalRows++

		// 行号按源表计（1 起）
		o.processRow(report, mapper, row, i+1, fileID, fileName, sheet)
	}

	if report.TotalRows == 0 {
		report.Status = "error"
		report.Fatal = "no usable rows"
	} else {
		report.Status = "imported"
	}
	report.Duration = time.Since(start)
	return report
}

// processRow 单行管线：映射 → 地理 → 计价 → 判重 → 入库
func (o *Orchestrator) processRow(report *TabReport, mapper *parser.RowMapper, row []string, rowNo int, fileID, fileName, sheet string) {
	mapped, rowErr := mapper.MapRow(row, rowNo)
	if rowErr != nil {
		report.Errors = append(report.Errors, *rowErr)
		return
	}
	order := &mapped.Order
	order.SourceFileID = fileID
	order.SourceFile = fileName
	order.SourceSheet = sheet

	// 地理解析失败不拒单，地理字段留空走默认计价
	wilaya, err := o.geo.ResolveWilaya(mapped.WilayaCode, mapped.WilayaName)
	if err != nil {
		report.Errors = append(report.Errors, parser.RowError{Row: rowNo, Reason: fmt.Sprintf("wilaya lookup failed: %v", err)})
		return
	}
	var commune *model.Commune
	if wilaya != nil {
		order.WilayaID = &wilaya.ID

		text := order.CommuneText
		if text == "" {
			text = order.Address
		}
		commune, err = o.geo.ResolveCommune(wilaya, text)
		if err != nil {
			report.Errors = append(report.Errors, parser.RowError{Row: rowNo, Reason: fmt.Sprintf("commune lookup failed: %v", err)})
			return
		}
		if commune != nil {
			order.CommuneID = &commune.ID
		}
	}

	quote, err := o.quote(order)
	if err != nil {
		report.Errors = append(report.Errors, parser.RowError{Row: rowNo, Reason: fmt.Sprintf("pricing failed: %v", err)})
		return
	}
	order.DeliveryPrice = quote.Price
	order.DeliveryMinDays = quote.MinDays
	order.DeliveryMaxDays = quote.MaxDays

	reason, err := o.gate.CheckOrder(order)
	if err != nil {
		report.Errors = append(report.Errors, parser.RowError{Row: rowNo, Reason: fmt.Sprintf("duplicate check failed: %v", err)})
		return
	}
	if reason != dedup.ReasonNone {
		// 重复不算错误，只是不计入导入数
		report.Duplicates++
		slog.Debug("skipping duplicate order",
			"file", fileName, "sheet", sheet, "row", rowNo, "reason", reason)
		return
	}

	if err := o.store.InsertOrder(order); err != nil {
		report.Errors = append(report.Errors, parser.RowError{Row: rowNo, Reason: fmt.Sprintf("insert failed: %v", err)})
		return
	}
	if err := o.store.InsertOrderSource(&model.OrderSource{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		FileID:  fileID,
		RowNo:   rowNo,
	}); err != nil {
		slog.Warn("failed to record order source",
			"file", fileID, "row", rowNo, "error", err)
	}
	report.Imported++
}

// quote 计价；地理解析失败时使用默认报价
func (o *Orchestrator) quote(order *model.Order) (model.PriceQuote, error) {
	if order.WilayaID == nil {
		return o.pricing.DefaultQuote(), nil
	}
	return o.pricing.Quote(*order.WilayaID, order.CommuneID, order.DeliveryType, order.Weight)
}

// ImportFile 处理来源文件的全部工作表
// 所有 tab 都表级失败才算文件失败
func (o *Orchestrator) ImportFile(src source.SpreadsheetSource, file source.FileInfo) (*FileReport, error) {
	start := time.Now()
	report := &FileReport{FileID: file.ID, FileName: file.Name}

	tabs, err := src.ListTabs(file.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs of %s: %w", file.Name, err)
	}
	if len(tabs) == 0 {
		return nil, fmt.Errorf("file %s has no sheets", file.Name)
	}

	for _, tab := range tabs {
		grid, err := src.ReadRows(file.ID, tab.Title)
		if err != nil {
			report.Tabs = append(report.Tabs, TabReport{
				Sheet:  tab.Title,
				Status: "error",
				Fatal:  fmt.Sprintf("failed to read rows: %v", err),
			})
			continue
		}
		o.recordTab(report, o.ImportTab(file.ID, file.Name, tab.Title, grid))
	}

	report.Duration = time.Since(start)

	if report.Imported == 0 && allFatal(report.Tabs) {
		return report, fmt.Errorf("no sheet of %s could be processed", file.Name)
	}
	return report, nil
}

// ImportOptions 上传导入选项
type ImportOptions struct {
	FileID   string
	FileName string
	Content  []byte
}

// Import 处理上传的工作簿，返回进度通道
func (o *Orchestrator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		o.doImport(opts, progressChan)
	}()

	return progressChan
}

// doImport 执行上传导入
func (o *Orchestrator) doImport(opts ImportOptions, progressChan chan ProgressEvent) {
	start := time.Now()

	sendProgress(progressChan, ProgressEvent{
		Type:      "start",
		Message:   fmt.Sprintf("importing %s", opts.FileName),
		Timestamp: time.Now(),
	})

	f, err := excelize.OpenReader(bytes.NewReader(opts.Content))
	if err != nil {
		sendProgress(progressChan, ProgressEvent{
			Type:      "error",
			Message:   fmt.Sprintf("failed to open workbook: %v", err),
			Timestamp: time.Now(),
		})
		return
	}
	defer f.Close()

	report := &FileReport{FileID: opts.FileID, FileName: opts.FileName}

	for _, sheet := range f.GetSheetList() {
		sendProgress(progressChan, ProgressEvent{
			Type:      "tab_start",
			Message:   fmt.Sprintf("processing sheet %s", sheet),
			Timestamp: time.Now(),
		})

		grid, err := f.GetRows(sheet)
		if err != nil {
			o.recordTab(report, &TabReport{
				Sheet:  sheet,
				Status: "error",
				Fatal:  fmt.Sprintf("failed to read rows: %v", err),
			})
			continue
		}
		tab := o.ImportTab(opts.FileID, opts.FileName, sheet, grid)
		o.recordTab(report, tab)

		sendProgress(progressChan, ProgressEvent{
			Type:      "tab_done",
			Message:   fmt.Sprintf("sheet %s: %d imported, %d duplicates, %d errors", sheet, tab.Imported, tab.Duplicates, len(tab.Errors)),
			Data:      tab,
			Timestamp: time.Now(),
		})
	}

	report.Duration = time.Since(start)
	sendProgress(progressChan, ProgressEvent{
		Type:      "done",
		Message:   "import finished",
		Data:      report,
		Timestamp: time.Now(),
	})
}

// recordTab 把 tab 结果累加进文件汇总
func (o *Orchestrator) recordTab(report *FileReport, tab *TabReport) {
	report.Tabs = append(report.Tabs, *tab)
	report.TotalRows += tab.TotalRows
	report.Imported += tab.Imported
	report.Duplicates += tab.Duplicates
	report.ErrorRows += len(tab.Errors)
}

func allFatal(tabs []TabReport) bool {
	for _, t := range tabs {
		if t.Fatal == "" {
			return false
		}
	}
	return true
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// sendProgress 发送进度事件；通道满时丢弃
func sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
	}
}
