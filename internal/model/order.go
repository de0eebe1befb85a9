package model

import "time"

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order 规范化订单记录
// 由导入管线独占创建；一行源数据对应一条记录
type Order struct {
	ID           int64  `json:"id"`
	OrderNo      string `json:"orderNo"` // 可为空；非空时唯一
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Phone2       string `json:"phone2,omitempty"`
	Address      string `json:"address"`

	WilayaID    *int64 `json:"wilayaId,omitempty"` // 解析失败时为 null
	CommuneID   *int64 `json:"communeId,omitempty"`
	WilayaText  string `json:"wilayaText"`  // 源文件原文
	CommuneText string `json:"communeText"` // 源文件原文

	Product     string  `json:"product"`
	Variant     string  `json:"variant,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Weight      float64 `json:"weight"`
	TotalAmount float64 `json:"totalAmount"` // 源表金额（含货到付款）

	// 计价结果
	DeliveryPrice   float64 `json:"deliveryPrice"`
	DeliveryMinDays int     `json:"deliveryMinDays"`
	DeliveryMaxDays int     `json:"deliveryMaxDays"`

	DeliveryType DeliveryType `json:"deliveryType"`
	StationCode  string       `json:"stationCode,omitempty"` // stopdesk 必填
	OpenPackage  bool         `json:"openPackage"`
	Status       OrderStatus  `json:"status"`

	// 来源信息
	SourceFileID string `json:"sourceFileId"`
	SourceFile   string `json:"sourceFile"`
	SourceSheet  string `json:"sourceSheet"`
	RowNo        int    `json:"rowNo"`

	CreatedAt time.Time `json:"createdAt"`
}
