package parser

import "github.com/Mujanati13/eco-solutions-sub001/internal/model"

// Field 订单字段标识
type Field string

const (
	FieldOrderNo      Field = "order_no"
	FieldFullName     Field = "full_name"
	FieldPhone        Field = "phone"
	FieldPhone2       Field = "phone2"
	FieldAddress      Field = "address"
	FieldCommune      Field = "commune"
	FieldPrice        Field = "price"
	FieldWilaya       Field = "wilaya"
	FieldProduct      Field = "product"
	FieldVariant      Field = "variant"
	FieldNotes        Field = "notes"
	FieldWeight       Field = "weight"
	FieldPickupFlag   Field = "pickup_flag"
	FieldExchangeFlag Field = "exchange_flag"
	FieldStopDeskFlag Field = "stopdesk_flag"
	FieldOpenFlag     Field = "open_flag"
	FieldStationCode  Field = "station_code"
)

// FormatUnknown 无法识别的格式
const FormatUnknown = "unknown"

// DetectionResult 格式识别结果
type DetectionResult struct {
	FormatID   string        `json:"formatId"`
	Columns    map[Field]int `json:"columns"`    // 字段 → 列索引
	Confidence float64       `json:"confidence"` // 聚合得分（归一化前）
	HasHeader  bool          `json:"hasHeader"`
}

// RowError 单行校验失败
// 行级错误仅被收集，不中断文件处理
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// MappedRow 单行映射结果
// WilayaCode/WilayaName 是 wilaya 复合文本拆分结果，供地理解析使用
type MappedRow struct {
	Order      model.Order
	WilayaCode string
	WilayaName string
}
