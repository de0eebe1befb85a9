package importer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Mujanati13/eco-solutions-sub001/internal/model"
	"github.com/Mujanati13/eco-solutions-sub001/internal/pricing"
	"github.com/Mujanati13/eco-solutions-sub001/internal/source"
	"github.com/Mujanati13/eco-solutions-sub001/internal/store"
)

type fakeSource struct {
	tabs map[string][][]string
}

func (f *fakeSource) ListCandidateFiles() ([]source.FileInfo, error) { return nil, nil }

func (f *fakeSource) ListTabs(fileID string) ([]source.TabInfo, error) {
	var out []source.TabInfo
	for _, title := range []string{"mai", "juin", "Sheet1"} {
		if rows, ok := f.tabs[title]; ok {
			out = append(out, source.TabInfo{Title: title, RowCount: len(rows)})
		}
	}
	return out, nil
}

func (f *fakeSource) ReadRows(fileID, tab string) ([][]string, error) {
	return f.tabs[tab], nil
}

func (f *fakeSource) DownloadBytes(fileID string) ([]byte, error) { return nil, nil }

func sourceFile(id, name string) source.FileInfo {
	return source.FileInfo{ID: id, Name: name, LastModified: time.Now(), Size: 1}
}

func buildWorkbook(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for sheet, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for i, row := range rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestOrchestrator(t *testing.T, st *store.Store) *Orchestrator {
	t.Helper()
	pr := pricing.NewResolver(st, pricing.Defaults{Price: 600, MinDays: 2, MaxDays: 7})
	return NewOrchestrator(st, pr)
}

func seedRule(t *testing.T, st *store.Store, wilayaCode string, base float64) {
	t.Helper()
	w, err := st.GetWilayaByCode(wilayaCode)
	if err != nil {
		t.Fatalf("wilaya %s: %v", wilayaCode, err)
	}
	if err := st.CreatePricingRule(&model.PricingRule{
		WilayaID:        w.ID,
		PricingLevel:    model.PricingLevelWilaya,
		DeliveryType:    model.DeliveryHome,
		BasePrice:       base,
		WeightThreshold: 5,
		ExtraPerKg:      50,
		DeliveryMinDays: 1,
		DeliveryMaxDays: 3,
		Priority:        100,
		Active:          true,
	}); err != nil {
		t.Fatalf("seed rule: %v", err)
	}
}

func standardGrid(rows ...[]string) [][]string {
	grid := [][]string{
		{"Commande", "Nom", "Téléphone", "Adresse", "Commune", "Wilaya", "Produit", "Montant", "Poids", "Remarque"},
	}
	return append(grid, rows...)
}

func TestImportTab_EndToEnd(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	seedRule(t, st, "16", 500)
	o := newTestOrchestrator(t, st)

	grid := standardGrid(
		[]string{"CMD-1", "Amina B.", "0551234567", "Rue Didouche", "Alger Centre", "16 - Alger", "Sérum", "3500", "1", ""},
		[]string{"CMD-2", "Karim Z.", "0661112233", "", "Bab El Oued", "Alger", "Crème", "2 500,50", "2", "fragile"},
	)

	report := o.ImportTab("f1", "commandes.xlsx", "mai", grid)
	if report.Status != "imported" {
		t.Fatalf("status = %s, fatal = %s", report.Status, report.Fatal)
	}
	if report.TotalRows != 2 || report.Imported != 2 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("errors = %v", report.Errors)
	}

	orders, err := st.ListOrders(store.OrderQueryOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders", len(orders))
	}

	// 最新插入在前
	second, first := orders[0], orders[1]
	if first.CustomerName != "Amina B." || first.TotalAmount != 3500 {
		t.Errorf("first order = %+v", first)
	}
	if first.WilayaID == nil {
		t.Fatal("wilaya should resolve from composite code")
	}
	if first.DeliveryPrice != 500 || first.DeliveryMinDays != 1 || first.DeliveryMaxDays != 3 {
		t.Errorf("quote = %v (%d-%d)", first.DeliveryPrice, first.DeliveryMinDays, first.DeliveryMaxDays)
	}
	if first.SourceFileID != "f1" || first.SourceSheet != "mai" || first.RowNo != 2 {
		t.Errorf("provenance = %s/%s/%d", first.SourceFileID, first.SourceSheet, first.RowNo)
	}
	if second.TotalAmount != 2500.5 {
		t.Errorf("second amount = %v", second.TotalAmount)
	}
	if second.WilayaID == nil {
		t.Error("name-only wilaya should resolve by fuzzy match")
	}
}

// 纯数字 wilaya 单元格命中预置编码，不得另建新区
func TestImportTab_BareNumericWilayaUsesSeededCode(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	seedRule(t, st, "16", 500)
	o := newTestOrchestrator(t, st)

	grid := standardGrid(
		[]string{"CMD-9", "Karim Z.", "0550000000", "Rue Y", "Hydra", "16", "Chemise", "1000", "1", ""},
	)
	report := o.ImportTab("f1", "commandes.xlsx", "mai", grid)
	if report.Imported != 1 {
		t.Fatalf("imported = %d, errors = %v", report.Imported, report.Errors)
	}

	want, err := st.GetWilayaByCode("16")
	if err != nil {
		t.Fatalf("wilaya 16: %v", err)
	}
	orders, err := st.ListOrders(store.OrderQueryOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if orders[0].WilayaID == nil || *orders[0].WilayaID != want.ID {
		t.Errorf("wilaya id = %v, want %d", orders[0].WilayaID, want.ID)
	}
	if orders[0].DeliveryPrice != 500 {
		t.Errorf("delivery price = %v, want 500 from seeded rule", orders[0].DeliveryPrice)
	}

	wilayas, err := st.ListWilayas()
	if err != nil {
		t.Fatalf("list wilayas: %v", err)
	}
	if len(wilayas) != 58 {
		t.Errorf("wilaya count = %d, want 58", len(wilayas))
	}
}

func TestImportTab_RowErrorsDoNotAbort(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	grid := standardGrid(
		[]string{"CMD-1", "", "0551234567", "Alger", "Alger Centre", "16", "Sérum", "3500", "1", ""}, // 缺姓名
		[]string{"CMD-2", "Karim Z.", "12", "Oran", "", "31", "Crème", "2000", "1", ""},              // 电话无效
		[]string{"CMD-3", "Nadia M.", "0771234567", "Oran", "Es Senia", "31", "Crème", "2000", "1", ""},
	)

	report := o.ImportTab("f1", "commandes.xlsx", "mai", grid)
	if report.TotalRows != 3 {
		t.Fatalf("total = %d", report.TotalRows)
	}
	if report.Imported != 1 {
		t.Fatalf("imported = %d, errors = %v", report.Imported, report.Errors)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("errors = %v", report.Errors)
	}
	if report.Errors[0].Row != 2 || report.Errors[1].Row != 3 {
		t.Errorf("error rows = %+v", report.Errors)
	}
}

func TestImportTab_DuplicatesSkippedSilently(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	row := []string{"CMD-9", "Amina B.", "0551234567", "Alger", "Alger Centre", "16", "Sérum", "3500", "1", ""}

	first := o.ImportTab("f1", "a.xlsx", "mai", standardGrid(row))
	if first.Imported != 1 {
		t.Fatalf("first run: %+v", first)
	}

	second := o.ImportTab("f2", "b.xlsx", "mai", standardGrid(row))
	if second.Imported != 0 {
		t.Errorf("second run imported = %d, want 0", second.Imported)
	}
	if second.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", second.Duplicates)
	}
	if second.TotalRows != 1 {
		t.Errorf("total = %d, duplicate still counts as seen", second.TotalRows)
	}
	if len(second.Errors) != 0 {
		t.Errorf("duplicate must not be an error: %v", second.Errors)
	}
}

func TestImportTab_UnknownFormatIsFatal(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	report := o.ImportTab("f1", "junk.xlsx", "Sheet1", [][]string{
		{"lorem", "ipsum"},
		{"dolor", "sit"},
	})
	if report.Status != "error" {
		t.Fatalf("status = %s", report.Status)
	}
	if report.Fatal == "" {
		t.Error("fatal reason should be recorded")
	}

	empty := o.ImportTab("f1", "junk.xlsx", "Sheet1", nil)
	if empty.Status != "error" || empty.Fatal == "" {
		t.Errorf("empty sheet: %+v", empty)
	}
}

func TestImportTab_AutoCreatesGeography(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	grid := standardGrid(
		[]string{"CMD-1", "Samir K.", "0551112233", "", "Nouvelle Commune", "16", "Sérum", "3000", "1", ""},
	)
	report := o.ImportTab("f1", "a.xlsx", "mai", grid)
	if report.Imported != 1 {
		t.Fatalf("report = %+v errors=%v", report, report.Errors)
	}

	orders, err := st.ListOrders(store.OrderQueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if orders[0].CommuneID == nil {
		t.Fatal("commune should be auto-created")
	}
	c, err := st.GetCommune(*orders[0].CommuneID)
	if err != nil {
		t.Fatal(err)
	}
	if c.NameFr != "Nouvelle Commune" {
		t.Errorf("commune name = %q", c.NameFr)
	}
}

func TestImport_ProgressEvents(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	content := buildWorkbook(t, map[string][][]string{
		"mai": standardGrid(
			[]string{"CMD-1", "Amina B.", "0551234567", "Alger", "Alger Centre", "16", "Sérum", "3500", "1", ""},
		),
	})

	ch := o.Import(ImportOptions{FileID: "up-1", FileName: "upload.xlsx", Content: content})

	var types []string
	var final *FileReport
	for ev := range ch {
		types = append(types, ev.Type)
		if ev.Type == "done" {
			r, ok := ev.Data.(*FileReport)
			if !ok {
				t.Fatalf("done data type %T", ev.Data)
			}
			final = r
		}
	}

	if len(types) == 0 || types[0] != "start" {
		t.Fatalf("event types = %v", types)
	}
	if final == nil {
		t.Fatal("missing done event")
	}
	if final.Imported != 1 {
		t.Errorf("final report = %+v", final)
	}
}

func TestImportFile_AccumulatesTabs(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	src := &fakeSource{tabs: map[string][][]string{
		"mai": standardGrid(
			[]string{"CMD-1", "Amina B.", "0551234567", "Alger", "Alger Centre", "16", "Sérum", "3500", "1", ""},
		),
		"juin": {{"lorem", "ipsum"}, {"dolor", "sit"}},
	}}

	report, err := o.ImportFile(src, sourceFile("f1", "commandes.xlsx"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Tabs) != 2 {
		t.Fatalf("tabs = %d", len(report.Tabs))
	}
	if report.Imported != 1 {
		t.Errorf("imported = %d", report.Imported)
	}

	// 全部 tab 致命失败 → 文件失败
	bad := &fakeSource{tabs: map[string][][]string{
		"Sheet1": {{"lorem", "ipsum"}, {"dolor", "sit"}},
	}}
	if _, err := o.ImportFile(bad, sourceFile("f2", "junk.xlsx")); err == nil {
		t.Error("expected file-level failure when every sheet is fatal")
	}
}

func TestImportTab_AmountOnlyRowRejected(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	grid := standardGrid(
		[]string{"CMD-1", "Amina B.", "0551234567", "Alger", "Alger Centre", "16", "Sérum", "0", "1", ""},
	)
	report := o.ImportTab("f1", "a.xlsx", "mai", grid)
	if report.Imported != 0 || len(report.Errors) != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestImportTab_OrdersImportedCountMatchesStore(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	o := newTestOrchestrator(t, st)

	var rows [][]string
	for i := 0; i < 5; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("CMD-%d", i), fmt.Sprintf("Client %d", i), "0551234567", "Alger", "Alger Centre", "16", "Sérum", "3500", "1", "",
		})
	}
	report := o.ImportTab("f1", "a.xlsx", "mai", standardGrid(rows...))
	if report.Imported != 5 {
		t.Fatalf("imported = %d errors=%v", report.Imported, report.Errors)
	}

	n, err := st.CountOrders(store.OrderQueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("store count = %d", n)
	}
}
