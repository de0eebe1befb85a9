package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

// InsertOrder 插入规范化订单，回填 ID 与创建时间
func (s *Store) InsertOrder(o *model.Order) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO orders (
			order_no, customer_name, phone, phone2, address,
			wilaya_id, commune_id, wilaya_text, commune_text,
			product, variant, notes, weight, total_amount,
			delivery_price, delivery_min_days, delivery_max_days,
			delivery_type, station_code, open_package, status,
			source_file_id, source_file, source_sheet, row_no, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.OrderNo, o.CustomerName, o.Phone, o.Phone2, o.Address,
		o.WilayaID, o.CommuneID, o.WilayaText, o.CommuneText,
		o.Product, o.Variant, o.Notes, o.Weight, o.TotalAmount,
		o.DeliveryPrice, o.DeliveryMinDays, o.DeliveryMaxDays,
		o.DeliveryType, o.StationCode, o.OpenPackage, o.Status,
		o.SourceFileID, o.SourceFile, o.SourceSheet, o.RowNo, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	o.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order id: %w", err)
	}
	o.CreatedAt = now
	return nil
}

// OrderNoExists 判断订单号是否已存在
func (s *Store) OrderNoExists(orderNo string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM orders WHERE order_no = ?", orderNo).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check order no: %w", err)
	}
	return n > 0, nil
}

// FingerprintExists 指纹查重：相同电话+姓名、金额差 ≤ tolerance、创建时间不早于 since
func (s *Store) FingerprintExists(phone, customerName string, amount, tolerance float64, since time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM orders
		WHERE phone = ? AND customer_name = ?
		  AND ABS(total_amount - ?) <= ?
		  AND created_at >= ?
	`, phone, customerName, amount, tolerance, since.UTC()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return n > 0, nil
}

// InsertOrderSource 记录订单来源关联；(order_no, file_id) 已存在时静默忽略
func (s *Store) InsertOrderSource(src *model.OrderSource) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO order_sources (order_id, order_no, file_id, row_no)
		VALUES (?, ?, ?, ?)
	`, src.OrderID, src.OrderNo, src.FileID, src.RowNo)
	if err != nil {
		return fmt.Errorf("failed to insert order source: %w", err)
	}
	return nil
}

// OrderQueryOptions 订单查询条件
type OrderQueryOptions struct {
	Status   *model.OrderStatus
	WilayaID *int64
	FileID   *string
	Limit    int
	Offset   int
}

// ListOrders 分页查询订单
func (s *Store) ListOrders(opts OrderQueryOptions) ([]*model.Order, error) {
	where, args := buildOrderWhere(opts)

	query := `
		SELECT id, order_no, customer_name, phone, phone2, address,
			wilaya_id, commune_id, wilaya_text, commune_text,
			product, variant, notes, weight, total_amount,
			delivery_price, delivery_min_days, delivery_max_days,
			delivery_type, station_code, open_package, status,
			source_file_id, source_file, source_sheet, row_no, created_at
		FROM orders` + where + " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, opts.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.OrderNo, &o.CustomerName, &o.Phone, &o.Phone2, &o.Address,
			&o.WilayaID, &o.CommuneID, &o.WilayaText, &o.CommuneText,
			&o.Product, &o.Variant, &o.Notes, &o.Weight, &o.TotalAmount,
			&o.DeliveryPrice, &o.DeliveryMinDays, &o.DeliveryMaxDays,
			&o.DeliveryType, &o.StationCode, &o.OpenPackage, &o.Status,
			&o.SourceFileID, &o.SourceFile, &o.SourceSheet, &o.RowNo, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// CountOrders 按条件统计订单数
func (s *Store) CountOrders(opts OrderQueryOptions) (int, error) {
	where, args := buildOrderWhere(opts)
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orders"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func buildOrderWhere(opts OrderQueryOptions) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if opts.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *opts.Status)
	}
	if opts.WilayaID != nil {
		conds = append(conds, "wilaya_id = ?")
		args = append(args, *opts.WilayaID)
	}
	if opts.FileID != nil {
		conds = append(conds, "source_file_id = ?")
		args = append(args, *opts.FileID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
