package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

const communeColumns = "id, wilaya_id, code, name_ar, name_fr, name_en, zone, active, created_at"

// GetCommune 按 ID 查询
func (s *Store) GetCommune(id int64) (*model.Commune, error) {
	row := s.db.QueryRow("SELECT "+communeColumns+" FROM communes WHERE id = ?", id)
	return scanCommune(row)
}

// GetCommuneByCode 按编码精确查询
func (s *Store) GetCommuneByCode(code string) (*model.Commune, error) {
	row := s.db.QueryRow("SELECT "+communeColumns+" FROM communes WHERE code = ?", code)
	return scanCommune(row)
}

// ListCommunesByWilaya 列出指定 wilaya 下全部激活 commune
func (s *Store) ListCommunesByWilaya(wilayaID int64) ([]*model.Commune, error) {
	rows, err := s.db.Query("SELECT "+communeColumns+" FROM communes WHERE wilaya_id = ? AND active = 1 ORDER BY code", wilayaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list communes: %w", err)
	}
	defer rows.Close()

	var out []*model.Commune
	for rows.Next() {
		c, err := scanCommune(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCommune 插入新 commune（编码冲突时返回错误，调用方负责重试）
func (s *Store) CreateCommune(c *model.Commune) error {
	res, err := s.db.Exec(`
		INSERT INTO communes (wilaya_id, code, name_ar, name_fr, name_en, zone, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.WilayaID, c.Code, c.NameAr, c.NameFr, c.NameEn, c.Zone, c.Active)
	if err != nil {
		return fmt.Errorf("failed to create commune: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get commune id: %w", err)
	}
	return nil
}

func scanCommune(row rowScanner) (*model.Commune, error) {
	var c model.Commune
	err := row.Scan(&c.ID, &c.WilayaID, &c.Code, &c.NameAr, &c.NameFr, &c.NameEn, &c.Zone, &c.Active, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan commune: %w", err)
	}
	return &c, nil
}
