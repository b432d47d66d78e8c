package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

type fakePrinters struct {
	printers []*printer.Printer
}

func (f *fakePrinters) GetPrinter(id string) *printer.Printer {
	for _, p := range f.printers {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakePrinters) ResolvePrinter(role registry.Role) (*printer.Printer, error) {
	for _, p := range f.printers {
		if p.Role == role {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s printer", printer.ErrPrinterNotFound, role)
}

type queued struct {
	printerID string
	kind      string
	payload   []byte
	image     image.Image
}

type fakeQueue struct {
	jobs []queued
}

func (q *fakeQueue) Enqueue(printerID, kind string, payload []byte) string {
	q.jobs = append(q.jobs, queued{printerID: printerID, kind: kind, payload: payload})
	return fmt.Sprintf("job-%d", len(q.jobs))
}

func (q *fakeQueue) EnqueueImage(printerID, kind string, img image.Image) string {
	q.jobs = append(q.jobs, queued{printerID: printerID, kind: kind, image: img})
	return fmt.Sprintf("job-%d", len(q.jobs))
}

type fakeOrders struct {
	recorded []string
	report   *receiptformat.Document
	from, to time.Time
}

func (o *fakeOrders) RecordOrder(_ context.Context, doc *receiptformat.Document) (bool, error) {
	for _, id := range o.recorded {
		if id == doc.OrderID {
			return false, nil
		}
	}
	o.recorded = append(o.recorded, doc.OrderID)
	return true, nil
}

func (o *fakeOrders) SalesReport(_ context.Context, from, to time.Time, period, printedBy string) (*receiptformat.Document, error) {
	o.from, o.to = from, to
	if o.report == nil {
		return nil, errors.New("no sales")
	}
	doc := *o.report
	doc.Period = period
	doc.CashierName = printedBy
	return &doc, nil
}

type staticProfile receiptformat.StoreProfile

func (p staticProfile) Profile() receiptformat.StoreProfile {
	return receiptformat.StoreProfile(p)
}

func sampleOrder() *receiptformat.Document {
	return &receiptformat.Document{
		OrderID: "ORD-1",
		Items: []receiptformat.Item{
			{Name: "Kopi Hitam", Quantity: 2, UnitPrice: 15000},
			{Name: "Nasi Goreng", Quantity: 1, UnitPrice: 10000},
		},
		Subtotal:      40000,
		Total:         40000,
		PaymentMethod: receiptformat.PaymentCash,
		AmountPaid:    50000,
		Timestamp:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newTestService() (*Service, *fakePrinters, *fakeQueue, *fakeOrders) {
	printers := &fakePrinters{printers: []*printer.Printer{
		{ID: "kasir", Role: registry.RoleCashier, Columns: 24},
		{ID: "dapur", Role: registry.RoleKitchen, Raster: true},
	}}
	queue := &fakeQueue{}
	orders := &fakeOrders{}
	profile := staticProfile(receiptformat.StoreProfile{Header: "KANTIN UJI", Footer: "Makasih"})
	return New(printers, queue, profile, orders, 32), printers, queue, orders
}

func TestPrint_CashierUsesRolePrinterAndRecords(t *testing.T) {
	svc, _, queue, orders := newTestService()

	res, err := svc.Print(context.Background(), PrintRequest{Kind: receiptformat.KindCashier, Document: sampleOrder()})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.PrinterID != "kasir" || res.Columns != 24 {
		t.Errorf("Expected kasir printer at 24 columns, got %+v", res)
	}
	if !res.Recorded || len(orders.recorded) != 1 {
		t.Error("Expected cashier order to be recorded")
	}
	if len(queue.jobs) != 1 || queue.jobs[0].payload == nil {
		t.Fatalf("Expected one text job, got %+v", queue.jobs)
	}

	payload := queue.jobs[0].payload
	if !bytes.HasPrefix(payload, []byte("\x1b@\x1bt\x00")) {
		t.Error("Expected payload to start with init and code page selection")
	}
	if !bytes.Contains(payload, []byte("KANTIN UJI")) {
		t.Error("Expected store profile header in payload")
	}
	if !bytes.Contains(payload, []byte(renderer.Rule('=', 24))) {
		t.Error("Expected rules at the printer's 24 columns")
	}
}

func TestPrint_KitchenRasterPrinter(t *testing.T) {
	svc, _, queue, orders := newTestService()

	res, err := svc.Print(context.Background(), PrintRequest{Kind: receiptformat.KindKitchen, Document: sampleOrder()})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.PrinterID != "dapur" || !res.Raster || res.Columns != 32 {
		t.Errorf("Expected raster dapur printer at default width, got %+v", res)
	}
	if queue.jobs[0].image == nil || queue.jobs[0].image.Bounds().Dx() != 576 {
		t.Error("Expected a 576 dot image job")
	}
	if len(orders.recorded) != 0 {
		t.Error("Kitchen tickets must not be recorded as sales")
	}
}

func TestPrint_DocumentWidthWins(t *testing.T) {
	svc, _, _, _ := newTestService()
	doc := sampleOrder()
	doc.PaperWidth = 32

	res, err := svc.Print(context.Background(), PrintRequest{PrinterID: "kasir", Kind: receiptformat.KindCashier, Document: doc})
	if err != nil {
		t.Fatal(err)
	}
	if res.Columns != 32 {
		t.Errorf("Expected document width 32, got %d", res.Columns)
	}
}

func TestPrint_Errors(t *testing.T) {
	svc, printers, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Print(ctx, PrintRequest{Kind: receiptformat.KindCashier}); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Expected ErrInvalidDocument for nil document, got %v", err)
	}

	bad := sampleOrder()
	bad.Items[0].Quantity = 0
	if _, err := svc.Print(ctx, PrintRequest{Kind: receiptformat.KindCashier, Document: bad}); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Expected ErrInvalidDocument, got %v", err)
	}

	if _, err := svc.Print(ctx, PrintRequest{PrinterID: "nope", Document: sampleOrder()}); !errors.Is(err, printer.ErrPrinterNotFound) {
		t.Errorf("Expected ErrPrinterNotFound, got %v", err)
	}

	printers.printers = printers.printers[:1]
	if _, err := svc.Print(ctx, PrintRequest{Kind: receiptformat.KindKitchen, Document: sampleOrder()}); !errors.Is(err, printer.ErrPrinterNotFound) {
		t.Errorf("Expected ErrPrinterNotFound without kitchen printer, got %v", err)
	}
}

func TestRender_UsesProfileAndDefaultWidth(t *testing.T) {
	svc, _, _, _ := newTestService()

	out := svc.Render(sampleOrder(), receiptformat.KindCashier)
	if !strings.Contains(out, "KANTIN UJI") || !strings.Contains(out, "Makasih") {
		t.Error("Expected profile header and footer")
	}
	if !strings.Contains(out, renderer.Rule('=', 32)) {
		t.Error("Expected default width of 32 columns")
	}

	nilProfile := New(&fakePrinters{}, &fakeQueue{}, nil, nil, 24)
	if !strings.Contains(nilProfile.Render(sampleOrder(), receiptformat.KindCashier), "BK POS") {
		t.Error("Expected default store profile without a profile source")
	}
}

func TestPrintReport(t *testing.T) {
	svc, _, queue, orders := newTestService()
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC) }
	orders.report = &receiptformat.Document{
		Sales:        []receiptformat.ProductSales{{Name: "Es Teh", Quantity: 4, Revenue: 20000}},
		Transactions: 3,
	}

	res, err := svc.PrintReport(context.Background(), ReportRequest{Period: "today", PrintedBy: "Admin"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if res.Kind != receiptformat.KindSalesReport || res.PrinterID != "kasir" {
		t.Errorf("Expected report on cashier printer, got %+v", res)
	}
	if !orders.from.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected report from start of day, got %v", orders.from)
	}
	if !bytes.Contains(queue.jobs[0].payload, []byte("LAPORAN PENJUALAN")) {
		t.Error("Expected report text in payload")
	}
	if !bytes.Contains(queue.jobs[0].payload, []byte("Periode: 14/03/2026")) {
		t.Error("Expected period line in payload")
	}
}

func TestReport_Disabled(t *testing.T) {
	svc := New(&fakePrinters{}, &fakeQueue{}, nil, nil, 32)
	if _, err := svc.Report(context.Background(), "today", ""); !errors.Is(err, ErrReportsDisabled) {
		t.Errorf("Expected ErrReportsDisabled, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	svc, _, _, _ := newTestService()

	img, err := svc.Preview(sampleOrder(), receiptformat.KindCashier, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 576 {
		t.Errorf("Expected 576 dots wide, got %d", img.Bounds().Dx())
	}
}

func TestRoleFor(t *testing.T) {
	if RoleFor(receiptformat.KindKitchen) != registry.RoleKitchen {
		t.Error("Expected kitchen role for kitchen tickets")
	}
	if RoleFor(receiptformat.KindSalesReport) != registry.RoleCashier {
		t.Error("Expected cashier role for reports")
	}
}
