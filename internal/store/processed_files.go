package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

const processedFileColumns = `id, file_id, file_name, content_hash, remote_modified,
	size, status, error_message, orders_imported, created_at, updated_at`

// GetProcessedFile 按外部文件 ID 查询处理记录
func (s *Store) GetProcessedFile(fileID string) (*model.ProcessedFile, error) {
	row := s.db.QueryRow("SELECT "+processedFileColumns+" FROM processed_files WHERE file_id = ?", fileID)
	return scanProcessedFile(row)
}

// ContentHashExists 判断内容哈希是否已被其他文件的 completed 记录持有
func (s *Store) ContentHashExists(hash, excludeFileID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM processed_files
		WHERE content_hash = ? AND status = ? AND file_id != ?
	`, hash, model.FileStatusCompleted, excludeFileID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check content hash: %w", err)
	}
	return n > 0, nil
}

// CreateProcessedFile 首次发现文件时创建 pending 记录
func (s *Store) CreateProcessedFile(f *model.ProcessedFile) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO processed_files (file_id, file_name, content_hash, remote_modified, size, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, f.FileID, f.FileName, f.ContentHash, f.RemoteModified, f.Size, model.FileStatusPending, now, now)
	if err != nil {
		return fmt.Errorf("failed to create processed file: %w", err)
	}
	f.Status = model.FileStatusPending
	f.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get processed file id: %w", err)
	}
	return nil
}

// MarkFileProcessing 置 processing 并更新远端元数据
// 先占坑再处理，阻止重叠扫描重复处理同一文件
func (s *Store) MarkFileProcessing(fileID, contentHash string, remoteModified time.Time, size int64) error {
	_, err := s.db.Exec(`
		UPDATE processed_files SET
			status = ?, content_hash = ?, remote_modified = ?, size = ?,
			error_message = '', updated_at = CURRENT_TIMESTAMP
		WHERE file_id = ?
	`, model.FileStatusProcessing, contentHash, remoteModified, size, fileID)
	if err != nil {
		return fmt.Errorf("failed to mark file processing: %w", err)
	}
	return nil
}

// MarkFileCompleted 置 completed，导入计数跨运行累加
func (s *Store) MarkFileCompleted(fileID string, imported int, note string) error {
	_, err := s.db.Exec(`
		UPDATE processed_files SET
			status = ?, orders_imported = orders_imported + ?,
			error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE file_id = ?
	`, model.FileStatusCompleted, imported, note, fileID)
	if err != nil {
		return fmt.Errorf("failed to mark file completed: %w", err)
	}
	return nil
}

// MarkFileFailed 置 failed 并保留错误信息
func (s *Store) MarkFileFailed(fileID, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE processed_files SET
			status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE file_id = ?
	`, model.FileStatusFailed, errorMessage, fileID)
	if err != nil {
		return fmt.Errorf("failed to mark file failed: %w", err)
	}
	return nil
}

// ListProcessedFiles 按更新时间倒序列出处理记录
func (s *Store) ListProcessedFiles() ([]*model.ProcessedFile, error) {
	rows, err := s.db.Query("SELECT " + processedFileColumns + " FROM processed_files ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list processed files: %w", err)
	}
	defer rows.Close()

	var out []*model.ProcessedFile
	for rows.Next() {
		f, err := scanProcessedFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanProcessedFile(row rowScanner) (*model.ProcessedFile, error) {
	var f model.ProcessedFile
	var remoteModified sql.NullTime
	err := row.Scan(&f.ID, &f.FileID, &f.FileName, &f.ContentHash, &remoteModified,
		&f.Size, &f.Status, &f.ErrorMessage, &f.OrdersImported, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan processed file: %w", err)
	}
	if remoteModified.Valid {
		f.RemoteModified = remoteModified.Time
	}
	return &f, nil
}
