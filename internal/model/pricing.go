package model

import "time"

// DeliveryType 递送方式
type DeliveryType string

const (
	DeliveryHome     DeliveryType = "home"     // 送货上门
	DeliveryStopDesk DeliveryType = "stopdesk" // 站点自提（需要站点编码）
	DeliveryPickup   DeliveryType = "pickup"   // 揽收
	DeliveryExchange DeliveryType = "exchange" // 换货（按 home 计价）
)

// PricingLevel 价格规则作用层级
type PricingLevel string

const (
	PricingLevelWilaya  PricingLevel = "wilaya"
	PricingLevelCommune PricingLevel = "commune"
)

// PricingRule 递送价格规则
// 约束：同一 (wilaya, commune-or-null, delivery_type) 至多一条激活规则
type PricingRule struct {
	ID              int64        `json:"id"`
	WilayaID        int64        `json:"wilayaId"`
	CommuneID       *int64       `json:"communeId,omitempty"` // null 表示 wilaya 级规则
	PricingLevel    PricingLevel `json:"pricingLevel"`
	DeliveryType    DeliveryType `json:"deliveryType"`
	BasePrice       float64      `json:"basePrice"`
	WeightThreshold float64      `json:"weightThreshold"` // 单位 kg
	ExtraPerKg      float64      `json:"extraPerKg"`      // 超出阈值后每 kg 加价
	DeliveryMinDays int          `json:"deliveryMinDays"`
	DeliveryMaxDays int          `json:"deliveryMaxDays"`
	Priority        int          `json:"priority"` // 数值越小越优先
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// PriceQuote 计价结果
type PriceQuote struct {
	Price        float64      `json:"price"`
	MinDays      int          `json:"minDays"`
	MaxDays      int          `json:"maxDays"`
	PricingLevel PricingLevel `json:"pricingLevel"`
	RuleID       *int64       `json:"ruleId,omitempty"` // null 表示使用默认价
}

// EffectiveDeliveryType 计价用递送方式（换货按上门计价）
func EffectiveDeliveryType(t DeliveryType) DeliveryType {
	if t == DeliveryExchange {
		return DeliveryHome
	}
	return t
}
