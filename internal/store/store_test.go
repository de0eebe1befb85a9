package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSeededWilayas(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	wilayas, err := st.ListWilayas()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wilayas) != 58 {
		t.Fatalf("got %d wilayas, want 58", len(wilayas))
	}

	w, err := st.GetWilayaByCode("16")
	if err != nil {
		t.Fatalf("get 16: %v", err)
	}
	if w.NameFr != "Alger" {
		t.Errorf("name = %q", w.NameFr)
	}
	if !w.Active {
		t.Error("seeded wilaya should be active")
	}
}

func TestWilayaCodeUnique(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	err := st.CreateWilaya(&model.Wilaya{Code: "16", NameFr: "dup", Active: true})
	if err == nil {
		t.Fatal("duplicate code should fail")
	}
}

func TestCommuneLifecycle(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	w, err := st.GetWilayaByCode("31")
	if err != nil {
		t.Fatal(err)
	}

	c := &model.Commune{
		WilayaID: w.ID, Code: "3101",
		NameAr: "وهران", NameFr: "Oran", NameEn: "Oran",
		Zone: model.ZoneUrban, Active: true,
	}
	if err := st.CreateCommune(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("id not backfilled")
	}

	got, err := st.GetCommuneByCode("3101")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.NameFr != "Oran" || got.WilayaID != w.ID {
		t.Errorf("commune = %+v", got)
	}

	list, err := st.ListCommunesByWilaya(w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d", len(list))
	}

	if _, err := st.GetCommuneByCode("9999"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestActivePricingRuleConflict(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	w, err := st.GetWilayaByCode("16")
	if err != nil {
		t.Fatal(err)
	}

	rule := func() *model.PricingRule {
		return &model.PricingRule{
			WilayaID:     w.ID,
			PricingLevel: model.PricingLevelWilaya,
			DeliveryType: model.DeliveryHome,
			BasePrice:    500,
			Priority:     100,
			Active:       true,
		}
	}

	if err := st.CreatePricingRule(rule()); err != nil {
		t.Fatalf("first rule: %v", err)
	}
	// 同 (wilaya, null commune, delivery) 第二条激活规则违反唯一约束
	if err := st.CreatePricingRule(rule()); err == nil {
		t.Fatal("second active rule for same scope should fail")
	}

	// 不同递送方式不冲突
	r := rule()
	r.DeliveryType = model.DeliveryStopDesk
	if err := st.CreatePricingRule(r); err != nil {
		t.Fatalf("stopdesk rule: %v", err)
	}
}

func TestOrderNoUniqueWhenPresent(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	order := func(no string) *model.Order {
		return &model.Order{
			OrderNo: no, CustomerName: "Client", Phone: "0551234567",
			TotalAmount: 1000, DeliveryType: model.DeliveryHome,
			Status: model.OrderStatusPending,
		}
	}

	if err := st.InsertOrder(order("CMD-1")); err != nil {
		t.Fatal(err)
	}
	if err := st.InsertOrder(order("CMD-1")); err == nil {
		t.Fatal("duplicate order no should fail")
	}

	// 空单号不受唯一约束
	if err := st.InsertOrder(order("")); err != nil {
		t.Fatalf("first empty order no: %v", err)
	}
	if err := st.InsertOrder(order("")); err != nil {
		t.Fatalf("second empty order no: %v", err)
	}
}

func TestFingerprintExists(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if err := st.InsertOrder(&model.Order{
		CustomerName: "Amina B.", Phone: "0551234567",
		TotalAmount: 3500, DeliveryType: model.DeliveryHome,
		Status: model.OrderStatusPending,
	}); err != nil {
		t.Fatal(err)
	}

	since := time.Now().Add(-24 * time.Hour)

	exists, err := st.FingerprintExists("0551234567", "Amina B.", 3500.005, 0.01, since)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("within tolerance should match")
	}

	exists, err = st.FingerprintExists("0551234567", "Amina B.", 3501, 0.01, since)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("outside tolerance should not match")
	}

	exists, err = st.FingerprintExists("0551234567", "Amina B.", 3500, 0.01, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("future window should not match")
	}
}

func TestProcessedFileLifecycle(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	f := &model.ProcessedFile{
		FileID: "f1", FileName: "commandes.xlsx",
		ContentHash: "h1", RemoteModified: time.Now().UTC(), Size: 128,
	}
	if err := st.CreateProcessedFile(f); err != nil {
		t.Fatal(err)
	}
	if f.Status != model.FileStatusPending {
		t.Errorf("status = %s", f.Status)
	}

	if err := st.MarkFileProcessing("f1", "h1", time.Now().UTC(), 128); err != nil {
		t.Fatal(err)
	}
	if err := st.MarkFileCompleted("f1", 3, ""); err != nil {
		t.Fatal(err)
	}
	// 再次运行：计数累加
	if err := st.MarkFileCompleted("f1", 2, "1 rows rejected"); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetProcessedFile("f1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.FileStatusCompleted {
		t.Errorf("status = %s", got.Status)
	}
	if got.OrdersImported != 5 {
		t.Errorf("orders imported = %d, want accumulated 5", got.OrdersImported)
	}

	// 跨文件查重：自身记录排除，其他文件 ID 命中
	ok, err := st.ContentHashExists("h1", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("own record should be excluded")
	}
	ok, err = st.ContentHashExists("h1", "f2")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("completed hash should match from another file id")
	}

	if err := st.MarkFileFailed("f1", "boom"); err != nil {
		t.Fatal(err)
	}
	got, err = st.GetProcessedFile("f1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.FileStatusFailed || got.ErrorMessage != "boom" {
		t.Errorf("record = %+v", got)
	}
}

func TestOrderSourceIgnoreDuplicate(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	o := &model.Order{
		OrderNo: "CMD-1", CustomerName: "Client", Phone: "0551234567",
		TotalAmount: 1000, DeliveryType: model.DeliveryHome,
		Status: model.OrderStatusPending,
	}
	if err := st.InsertOrder(o); err != nil {
		t.Fatal(err)
	}

	src := &model.OrderSource{OrderID: o.ID, OrderNo: "CMD-1", FileID: "f1", RowNo: 2}
	if err := st.InsertOrderSource(src); err != nil {
		t.Fatal(err)
	}
	// (order_no, file_id) 重复时静默忽略
	if err := st.InsertOrderSource(src); err != nil {
		t.Fatalf("duplicate source: %v", err)
	}
}
