package model

import "time"

// FileStatus 文件处理状态
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// ProcessedFile 文件处理记录
// 生命周期：首次发现时创建 pending；processing → completed/failed；
// 仅当远端修改时间推进或内容哈希变化时重新进入 processing
type ProcessedFile struct {
	ID             int64      `json:"id"`
	FileID         string     `json:"fileId"` // 外部存储文件 ID，唯一
	FileName       string     `json:"fileName"`
	ContentHash    string     `json:"contentHash"`
	RemoteModified time.Time  `json:"remoteModified"`
	Size           int64      `json:"size"`
	Status         FileStatus `json:"status"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	OrdersImported int        `json:"ordersImported"` // 跨多次运行累加
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// OrderSource 订单来源关联
// (order_no, file_id) 唯一，防止重复关联
type OrderSource struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"orderId"`
	OrderNo string `json:"orderNo"`
	FileID  string `json:"fileId"`
	RowNo   int    `json:"rowNo"`
}
