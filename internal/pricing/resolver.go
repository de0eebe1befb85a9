package pricing

import (
	"log/slog"
	"math"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

// RuleStore 价格规则读取
type RuleStore interface {
	ListActivePricingRules(wilayaID int64, deliveryType model.DeliveryType) ([]*model.PricingRule, error)
}

// Defaults 无规则命中时的兜底价格与时效
type Defaults struct {
	Price   float64
	MinDays int
	MaxDays int
}

// Resolver 计价解析器
// 两级覆盖：commune 级规则优先，wilaya 级兜底，最后落到默认值
type Resolver struct {
	store    RuleStore
	defaults Defaults
}

// NewResolver 创建计价解析器
func NewResolver(st RuleStore, defaults Defaults) *Resolver {
	return &Resolver{store: st, defaults: defaults}
}

// Quote 计算递送报价
// commune 级与 wilaya 级同时存在时必须取 commune 级；同层级 priority 最小优先
func (r *Resolver) Quote(wilayaID int64, communeID *int64, deliveryType model.DeliveryType, weight float64) (model.PriceQuote, error) {
	effective := model.EffectiveDeliveryType(deliveryType)

	rules, err := r.store.ListActivePricingRules(wilayaID, effective)
	if err != nil {
		return model.PriceQuote{}, err
	}

	rule := selectRule(rules, communeID)
	if rule == nil {
		slog.Debug("pricing lookup miss, using defaults",
			"wilaya_id", wilayaID, "delivery_type", effective)
		return r.DefaultQuote(), nil
	}

	return model.PriceQuote{
		Price:        applyWeight(rule, weight),
		MinDays:      rule.DeliveryMinDays,
		MaxDays:      rule.DeliveryMaxDays,
		PricingLevel: rule.PricingLevel,
		RuleID:       &rule.ID,
	}, nil
}

// DefaultQuote 默认报价（地理解析失败或规则完全缺失时）
func (r *Resolver) DefaultQuote() model.PriceQuote {
	return model.PriceQuote{
		Price:        r.defaults.Price,
		MinDays:      r.defaults.MinDays,
		MaxDays:      r.defaults.MaxDays,
		PricingLevel: model.PricingLevelWilaya,
	}
}

// selectRule 规则选择
// rules 已按 (priority, id) 升序；commune 命中集合非空时 wilaya 级一律不考虑
func selectRule(rules []*model.PricingRule, communeID *int64) *model.PricingRule {
	if communeID != nil {
		for _, rule := range rules {
			if rule.CommuneID != nil && *rule.CommuneID == *communeID {
				return rule
			}
		}
	}
	for _, rule := range rules {
		if rule.CommuneID == nil {
			return rule
		}
	}
	return nil
}

// applyWeight 重量加价
// 超出阈值的部分按 kg 向上取整计费（对超量取整，而不是对总价取整）
func applyWeight(rule *model.PricingRule, weight float64) float64 {
	excess := weight - rule.WeightThreshold
	if excess <= 0 {
		return rule.BasePrice
	}
	return rule.BasePrice + math.Ceil(excess)*rule.ExtraPerKg
}
