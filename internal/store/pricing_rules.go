package store

import (
	"fmt"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

const pricingColumns = `id, wilaya_id, commune_id, pricing_level, delivery_type,
	base_price, weight_threshold, extra_per_kg, delivery_min_days, delivery_max_days,
	priority, active, created_at`

// ListActivePricingRules 列出指定 wilaya + 递送方式的全部激活规则（含两个层级）
// 规则选择（commune 级优先、priority 最小优先）由 pricing 包完成
func (s *Store) ListActivePricingRules(wilayaID int64, deliveryType model.DeliveryType) ([]*model.PricingRule, error) {
	rows, err := s.db.Query(`
		SELECT `+pricingColumns+`
		FROM pricing_rules
		WHERE wilaya_id = ? AND delivery_type = ? AND active = 1
		ORDER BY priority, id
	`, wilayaID, deliveryType)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	defer rows.Close()

	var out []*model.PricingRule
	for rows.Next() {
		var r model.PricingRule
		if err := rows.Scan(
			&r.ID, &r.WilayaID, &r.CommuneID, &r.PricingLevel, &r.DeliveryType,
			&r.BasePrice, &r.WeightThreshold, &r.ExtraPerKg, &r.DeliveryMinDays, &r.DeliveryMaxDays,
			&r.Priority, &r.Active, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// CreatePricingRule 插入价格规则（供测试与管理操作使用）
func (s *Store) CreatePricingRule(r *model.PricingRule) error {
	res, err := s.db.Exec(`
		INSERT INTO pricing_rules (
			wilaya_id, commune_id, pricing_level, delivery_type,
			base_price, weight_threshold, extra_per_kg,
			delivery_min_days, delivery_max_days, priority, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.WilayaID, r.CommuneID, r.PricingLevel, r.DeliveryType,
		r.BasePrice, r.WeightThreshold, r.ExtraPerKg,
		r.DeliveryMinDays, r.DeliveryMaxDays, r.Priority, r.Active)
	if err != nil {
		return fmt.Errorf("failed to create pricing rule: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pricing rule id: %w", err)
	}
	return nil
}
