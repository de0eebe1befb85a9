package source

import "time"

// FileInfo 候选文件元信息
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
}

// TabInfo 工作表信息
type TabInfo struct {
	Title    string `json:"title"`
	RowCount int    `json:"rowCount"`
}

// SpreadsheetSource 表格文件来源
// 鉴权、会话续期全部是实现方的事，这里只管列文件和读单元格
type SpreadsheetSource interface {
	ListCandidateFiles() ([]FileInfo, error)
	ListTabs(fileID string) ([]TabInfo, error)
	ReadRows(fileID, tab string) ([][]string, error)
	DownloadBytes(fileID string) ([]byte, error)
}
