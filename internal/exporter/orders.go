package exporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

// Exporter 订单导出器
// 按查询条件把已入库订单导出为工作簿，供运营侧核对
type Exporter struct {
	store *store.Store
}

// NewExporter 创建导出器
func NewExporter(st *store.Store) *Exporter {
	return &Exporter{store: st}
}

const ordersSheet = "Orders"

var orderHeaders = []interface{}{
	"Order No", "Customer", "Phone", "Address", "Wilaya", "Commune",
	"Product", "Weight (kg)", "Amount", "Delivery", "Delivery Price",
	"Est. Days", "Status", "Source File", "Row",
}

// Export 导出订单为 Excel
func (e *Exporter) Export(opts store.OrderQueryOptions) (*excelize.File, error) {
	orders, err := e.store.ListOrders(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeaders); err != nil {
		_ = f.Close()
		return nil, err
	}

	wilayaNames, communeNames, err := e.referenceNames(orders)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, o := range orders {
		row := []interface{}{
			o.OrderNo,
			o.CustomerName,
			o.Phone,
			o.Address,
			geoName(wilayaNames, o.WilayaID, o.WilayaText),
			geoName(communeNames, o.CommuneID, o.CommuneText),
			o.Product,
			o.Weight,
			o.TotalAmount,
			string(o.DeliveryType),
			o.DeliveryPrice,
			estimate(o),
			string(o.Status),
			o.SourceFile,
			o.RowNo,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Filename 导出文件名（带日期戳）
func Filename() string {
	return fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102-150405"))
}

// referenceNames 批量解析订单引用的地理名称
func (e *Exporter) referenceNames(orders []*model.Order) (map[int64]string, map[int64]string, error) {
	wilayas := make(map[int64]string)
	communes := make(map[int64]string)

	for _, o := range orders {
		if o.WilayaID != nil {
			if _, ok := wilayas[*o.WilayaID]; !ok {
				w, err := e.store.GetWilaya(*o.WilayaID)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to load wilaya %d: %w", *o.WilayaID, err)
				}
				wilayas[*o.WilayaID] = w.NameFr
			}
		}
		if o.CommuneID != nil {
			if _, ok := communes[*o.CommuneID]; !ok {
				c, err := e.store.GetCommune(*o.CommuneID)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to load commune %d: %w", *o.CommuneID, err)
				}
				communes[*o.CommuneID] = c.NameFr
			}
		}
	}
	return wilayas, communes, nil
}

func geoName(names map[int64]string, id *int64, fallback string) string {
	if id != nil {
		if name, ok := names[*id]; ok && name != "" {
			return name
		}
	}
	return fallback
}

func estimate(o *model.Order) string {
	if o.DeliveryMaxDays == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", o.DeliveryMinDays, o.DeliveryMaxDays)
}
