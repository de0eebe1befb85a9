package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FolderSource 本地同步目录来源
// 远端网盘由外部同步进程落到本地目录，这里只读目录内容
// 文件 ID 即相对文件名
type FolderSource struct {
	dir string
}

// NewFolderSource 创建目录来源
func NewFolderSource(dir string) *FolderSource {
	return &FolderSource{dir: dir}
}

// ListCandidateFiles 列出目录下的表格文件
func (s *FolderSource) ListCandidateFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xlsm" && ext != ".xls" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			ID:           name,
			Name:         name,
			LastModified: info.ModTime(),
			Size:         info.Size(),
		})
	}
	return files, nil
}

// ListTabs 列出文件内的工作表
func (s *FolderSource) ListTabs(fileID string) ([]TabInfo, error) {
	f, err := s.open(fileID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tabs []TabInfo
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		tabs = append(tabs, TabInfo{Title: name, RowCount: len(rows)})
	}
	return tabs, nil
}

// ReadRows 读取指定工作表的全部单元格
func (s *FolderSource) ReadRows(fileID, tab string) ([][]string, error) {
	f, err := s.open(fileID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", tab, err)
	}
	return rows, nil
}

// DownloadBytes 读取文件原始内容（用于内容哈希）
func (s *FolderSource) DownloadBytes(fileID string) ([]byte, error) {
	b, err := os.ReadFile(s.path(fileID))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return b, nil
}

func (s *FolderSource) path(fileID string) string {
	return filepath.Join(s.dir, filepath.Base(fileID))
}

func (s *FolderSource) open(fileID string) (*excelize.File, error) {
	b, err := s.DownloadBytes(fileID)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel %s: %w", fileID, err)
	}
	return f, nil
}
