package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Mujanati13/eco-solutions-sub001/internal/dedup"
	"github.com/Mujanati13/eco-solutions-sub001/internal/importer"
	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/normalize"
	"github.com/Mujanati13/eco-solutions-sub001/internal/source"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// 候选文件名关键词（折叠后匹配）
var defaultNameFilters = []string{
	"order", "commande", "livraison", "vente", "طلب", "بيع", "توصيل",
}

// 日期前缀文件名，如 "2026-05 ..." 或 "2026_05..."
var datePrefixRe = regexp.MustCompile(`^\d{4}[-_ ]?\d{2}`)

// Session 单次扫描会话
type Session struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt,omitempty"`
	FilesSeen      int       `json:"filesSeen"`
	FilesProcessed int       `json:"filesProcessed"`
	FilesSkipped   int       `json:"filesSkipped"`
	FilesFailed    int       `json:"filesFailed"`
	OrdersImported int       `json:"ordersImported"`
}

// Status 调度器对外状态
type Status struct {
	Running     bool     `json:"running"`
	LastSession *Session `json:"lastSession,omitempty"`
}

// Scheduler 扫描调度器
// 固定间隔扫描来源目录；单个 running 标志防止重叠，
// 扫描进行中收到的触发请求直接丢弃不排队
type Scheduler struct {
	store       *store.Store
	src         source.SpreadsheetSource
	orch        *importer.Orchestrator
	interval    time.Duration
	nameFilters []string

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	mu   sync.Mutex
	last *Session
}

// New 创建调度器
// nameFilters 为空时使用内置关键词表
func New(st *store.Store, src source.SpreadsheetSource, orch *importer.Orchestrator, interval time.Duration, nameFilters []string) *Scheduler {
	if len(nameFilters) == 0 {
		nameFilters = defaultNameFilters
	}
	return &Scheduler{
		store:       st,
		src:         src,
		orch:        orch,
		interval:    interval,
		nameFilters: nameFilters,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start 启动定时扫描循环
func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// 启动即扫一轮
		s.runScan()
		for {
			select {
			case <-ticker.C:
				s.runScan()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止扫描循环并等待当前轮结束
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// TriggerNow 手动触发一次扫描
// 已有扫描在跑时不排队，返回 false
func (s *Scheduler) TriggerNow() bool {
	if s.running.Load() {
		return false
	}
	go s.runScan()
	return true
}

// Status 返回当前运行状态与最近一次会话
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *Session
	if s.last != nil {
		copied := *s.last
		last = &copied
	}
	return Status{Running: s.running.Load(), LastSession: last}
}

// runScan 执行一轮扫描
func (s *Scheduler) runScan() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	session := &Session{ID: uuid.New().String(), StartedAt: time.Now()}
	slog.Info("scan started", "session", session.ID)

	files, err := s.src.ListCandidateFiles()
	if err != nil {
		// 本轮作废，等下一轮
		slog.Error("failed to list candidate files", "session", session.ID, "error", err)
		s.finish(session)
		return
	}

	candidates := s.filterCandidates(files)
	session.FilesSeen = len(candidates)

	// 最近修改的优先
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastModified.After(candidates[j].LastModified)
	})

	for _, file := range candidates {
		s.processFile(session, file)
	}

	s.finish(session)
	slog.Info("scan finished", "session", session.ID,
		"seen", session.FilesSeen, "processed", session.FilesProcessed,
		"skipped", session.FilesSkipped, "failed", session.FilesFailed,
		"imported", session.OrdersImported)
}

func (s *Scheduler) finish(session *Session) {
	session.FinishedAt = time.Now()
	s.mu.Lock()
	s.last = session
	s.mu.Unlock()
}

// filterCandidates 文件名允许表过滤
func (s *Scheduler) filterCandidates(files []source.FileInfo) []source.FileInfo {
	var out []source.FileInfo
	for _, f := range files {
		if s.isCandidateName(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

func (s *Scheduler) isCandidateName(name string) bool {
	folded := normalize.Fold(name)
	for _, kw := range s.nameFilters {
		if normalize.FoldContains(folded, kw) {
			return true
		}
	}
	return datePrefixRe.MatchString(folded)
}

// processFile 处理单个候选文件
// 未变化的文件跳过；导入结果落到 processed_files 记录
func (s *Scheduler) processFile(session *Session, file source.FileInfo) {
	content, err := s.src.DownloadBytes(file.ID)
	if err != nil {
		slog.Warn("failed to download file", "file", file.Name, "error", err)
		session.FilesFailed++
		return
	}
	hash := dedup.HashBytes(content)

	record, err := s.store.GetProcessedFile(file.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		record = &model.ProcessedFile{
			FileID:         file.ID,
			FileName:       file.Name,
			ContentHash:    hash,
			RemoteModified: file.LastModified,
			Size:           file.Size,
		}
		if err := s.store.CreateProcessedFile(record); err != nil {
			slog.Warn("failed to create file record", "file", file.Name, "error", err)
			session.FilesFailed++
			return
		}
	case err != nil:
		slog.Warn("failed to load file record", "file", file.Name, "error", err)
		session.FilesFailed++
		return
	default:
		if !s.eligible(record, file, hash) {
			session.FilesSkipped++
			return
		}
	}

	// 相同内容换个文件 ID 出现时整体跳过，不逐行解析
	dup, err := dedup.DuplicateContent(s.store, file.ID, hash)
	if err != nil {
		slog.Warn("failed to check content duplicate", "file", file.Name, "error", err)
		session.FilesFailed++
		return
	}
	if dup {
		if err := s.store.MarkFileProcessing(file.ID, hash, file.LastModified, file.Size); err != nil {
			slog.Warn("failed to mark file processing", "file", file.Name, "error", err)
		}
		if err := s.store.MarkFileCompleted(file.ID, 0, "duplicate file"); err != nil {
			slog.Warn("failed to mark duplicate file", "file", file.Name, "error", err)
		}
		slog.Info("skipping duplicate file content", "file", file.Name, "session", session.ID)
		session.FilesSkipped++
		return
	}

	// 先占坑再处理
	if err := s.store.MarkFileProcessing(file.ID, hash, file.LastModified, file.Size); err != nil {
		slog.Warn("failed to mark file processing", "file", file.Name, "error", err)
		session.FilesFailed++
		return
	}

	report, err := s.orch.ImportFile(s.src, file)
	if err != nil {
		if markErr := s.store.MarkFileFailed(file.ID, err.Error()); markErr != nil {
			slog.Warn("failed to mark file failed", "file", file.Name, "error", markErr)
		}
		slog.Warn("file import failed", "file", file.Name, "session", session.ID, "error", err)
		session.FilesFailed++
		return
	}

	note := ""
	if report.ErrorRows > 0 {
		note = fmt.Sprintf("%d rows rejected", report.ErrorRows)
	}
	if err := s.store.MarkFileCompleted(file.ID, report.Imported, note); err != nil {
		slog.Warn("failed to mark file completed", "file", file.Name, "error", err)
	}

	session.FilesProcessed++
	session.OrdersImported += report.Imported
	slog.Info("file imported", "file", file.Name, "session", session.ID,
		"rows", report.TotalRows, "imported", report.Imported,
		"duplicates", report.Duplicates, "rejected", report.ErrorRows)
}

// eligible 判断已有记录的文件是否需要重新处理
// 只有 completed 且内容未变的文件才可跳过；processing 状态的占坑记录不接手
func (s *Scheduler) eligible(record *model.ProcessedFile, file source.FileInfo, hash string) bool {
	if record.Status == model.FileStatusProcessing {
		return false
	}
	unchanged, err := dedup.FileUnchanged(s.store, file.ID, hash)
	if err != nil {
		slog.Warn("failed to compare file record", "file", file.Name, "error", err)
		return false
	}
	if !unchanged {
		return true
	}
	return file.LastModified.After(record.RemoteModified)
}
