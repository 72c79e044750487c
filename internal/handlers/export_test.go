package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/export"
)

var exportNow = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)

func newExportHandlers(e *env) *ExportHandlers {
	h := NewExportHandlers(e.deps)
	h.now = func() time.Time { return exportNow }
	return h
}

func rowsOf(t *testing.T, body []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("OpenReader() failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	return rows
}

func hasCell(rows [][]string, value string) bool {
	for _, row := range rows {
		for _, c := range row {
			if c == value {
				return true
			}
		}
	}
	return false
}

func TestExportHandlers_Transactions(t *testing.T) {
	e := newEnv(t)
	h := newExportHandlers(e)

	w := httptest.NewRecorder()
	h.HandleTransactions(w, e.request(t, "GET", "/export/transactions.xlsx?startDate=2024-01-01&endDate=2024-01-31", "RetailerCooperative", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content-type = %q", ct)
	}
	wantName := export.FileName(export.VariantGlobal, "", exportNow.In(e.deps.Display.Location()))
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "filename*=UTF-8''"+url.PathEscape(wantName)) {
		t.Errorf("content-disposition = %q, want encoded %q", cd, wantName)
	}

	rows := rowsOf(t, w.Body.Bytes())
	if len(rows) == 0 || !strings.Contains(rows[0][0], "01-01-2024") || !strings.Contains(rows[0][0], "31-01-2024") {
		t.Errorf("title row = %v", rows[0])
	}
	if !hasCell(rows, export.SubtotalLabel) {
		t.Error("global report should carry commodity subtotals")
	}
	if hasCell(rows, export.TotalLabel) {
		t.Error("global report has no grand total")
	}
	if hasCell(rows, "Shop Three") {
		t.Error("cooperative export leaked another cooperative's shop")
	}
}

func TestExportHandlers_ShopTransactions(t *testing.T) {
	e := newEnv(t)
	h := newExportHandlers(e)

	w := httptest.NewRecorder()
	r := e.request(t, "GET", "/export/shops/s1/transactions.xlsx", "TradeBureau", "")
	r.SetPathValue("shopID", "s1")
	h.HandleShopTransactions(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	// The file is named in the display location, like the report timestamps.
	wantName := export.FileName(export.VariantShop, "Shop One", exportNow.In(e.deps.Display.Location()))
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, url.PathEscape(wantName)) {
		t.Errorf("content-disposition = %q, want %q", cd, wantName)
	}
	if !hasCell(rowsOf(t, w.Body.Bytes()), export.TotalLabel) {
		t.Error("shop report should end with a grand total")
	}
}

func TestExportHandlers_NoData(t *testing.T) {
	e := newEnv(t)
	h := newExportHandlers(e)

	w := httptest.NewRecorder()
	h.HandleTransactions(w, e.request(t, "GET", "/export/transactions.xlsx?status=failed", "RetailerCooperative", ""))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	env := decode(t, w)
	if env.Error == nil || env.Error.Code != "NO_DATA" || env.Error.Message != "No data available to export" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestContentDisposition(t *testing.T) {
	got := contentDisposition("የግብይት_ሪፖርት_2024-02-01.xlsx")
	if !strings.HasPrefix(got, `attachment; filename="report.xlsx"; filename*=UTF-8''`) {
		t.Errorf("contentDisposition() = %q", got)
	}
	if strings.Contains(got, "ሪ") {
		t.Errorf("name should be percent-encoded: %q", got)
	}
}
