package parser

import (
	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/normalize"
)

// RowMapper 行映射器
// 按识别出的列映射把原始行转换为规范化订单记录
type RowMapper struct {
	detection DetectionResult
}

// NewRowMapper 创建行映射器
func NewRowMapper(detection DetectionResult) *RowMapper {
	return &RowMapper{detection: detection}
}

// MapRow 映射单行
// 校验失败返回 RowError（行级、可恢复），不中断文件处理
func (m *RowMapper) MapRow(row []string, rowNo int) (*MappedRow, *RowError) {
	get := func(f Field) string {
		col, ok := m.detection.Columns[f]
		if !ok || col < 0 || col >= len(row) {
			return ""
		}
		return row[col]
	}

	order := model.Order{
		OrderNo:      normalize.Clean(get(FieldOrderNo)),
		CustomerName: normalize.Clean(get(FieldFullName)),
		Phone:        ParsePhone(get(FieldPhone)),
		Phone2:       ParsePhone(get(FieldPhone2)),
		Address:      normalize.Clean(get(FieldAddress)),
		CommuneText:  normalize.Clean(get(FieldCommune)),
		WilayaText:   normalize.Clean(get(FieldWilaya)),
		Product:      normalize.Clean(get(FieldProduct)),
		Variant:      normalize.Clean(get(FieldVariant)),
		Notes:        normalize.Clean(get(FieldNotes)),
		Weight:       ParseWeight(get(FieldWeight)),
		StationCode:  normalize.Clean(get(FieldStationCode)),
		OpenPackage:  IsAffirmative(get(FieldOpenFlag)),
		Status:       model.OrderStatusPending,
		RowNo:        rowNo,
	}

	// 主价格列为 0 时从变体描述兜底取价
	order.TotalAmount = ParseMoney(get(FieldPrice))
	if order.TotalAmount == 0 {
		order.TotalAmount = ExtractMoneyToken(get(FieldVariant))
	}

	order.DeliveryType = m.deliveryType(get)

	if order.CustomerName == "" {
		return nil, &RowError{Row: rowNo, Reason: "missing customer name"}
	}
	if order.Phone == "" {
		return nil, &RowError{Row: rowNo, Reason: "missing or invalid phone number"}
	}
	if order.TotalAmount <= 0 {
		return nil, &RowError{Row: rowNo, Reason: "non-positive order amount"}
	}
	if order.WilayaText == "" && order.CommuneText == "" && order.Address == "" {
		return nil, &RowError{Row: rowNo, Reason: "no region information"}
	}
	if order.DeliveryType == model.DeliveryStopDesk && order.StationCode == "" {
		return nil, &RowError{Row: rowNo, Reason: "stopdesk delivery requires a station code"}
	}

	code, name := SplitWilayaComposite(order.WilayaText)
	return &MappedRow{Order: order, WilayaCode: code, WilayaName: name}, nil
}

// deliveryType 扫描方式指示列选择递送方式
// 优先级：站点自提 → 揽收 → 换货 → 默认送货上门
func (m *RowMapper) deliveryType(get func(Field) string) model.DeliveryType {
	if IsAffirmative(get(FieldStopDeskFlag)) {
		return model.DeliveryStopDesk
	}
	if IsAffirmative(get(FieldPickupFlag)) {
		return model.DeliveryPickup
	}
	if IsAffirmative(get(FieldExchangeFlag)) {
		return model.DeliveryExchange
	}
	return model.DeliveryHome
}
