package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

const wilayaColumns = "id, code, name_ar, name_fr, name_en, active, created_at"

// GetWilaya 按 ID 查询
func (s *Store) GetWilaya(id int64) (*model.Wilaya, error) {
	row := s.db.QueryRow("SELECT "+wilayaColumns+" FROM wilayas WHERE id = ?", id)
	return scanWilaya(row)
}

// GetWilayaByCode 按编码精确查询
func (s *Store) GetWilayaByCode(code string) (*model.Wilaya, error) {
	row := s.db.QueryRow("SELECT "+wilayaColumns+" FROM wilayas WHERE code = ?", code)
	return scanWilaya(row)
}

// ListWilayas 列出全部激活 wilaya
func (s *Store) ListWilayas() ([]*model.Wilaya, error) {
	rows, err := s.db.Query("SELECT " + wilayaColumns + " FROM wilayas WHERE active = 1 ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list wilayas: %w", err)
	}
	defer rows.Close()

	var out []*model.Wilaya
	for rows.Next() {
		w, err := scanWilaya(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateWilaya 插入新 wilaya（编码冲突时返回错误，调用方负责重试）
func (s *Store) CreateWilaya(w *model.Wilaya) error {
	res, err := s.db.Exec(`
		INSERT INTO wilayas (code, name_ar, name_fr, name_en, active)
		VALUES (?, ?, ?, ?, ?)
	`, w.Code, w.NameAr, w.NameFr, w.NameEn, w.Active)
	if err != nil {
		return fmt.Errorf("failed to create wilaya: %w", err)
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get wilaya id: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWilaya(row rowScanner) (*model.Wilaya, error) {
	var w model.Wilaya
	err := row.Scan(&w.ID, &w.Code, &w.NameAr, &w.NameFr, &w.NameEn, &w.Active, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wilaya: %w", err)
	}
	return &w, nil
}
