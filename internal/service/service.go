// Package service renders documents and hands them to printers. The HTTP
// API and the command executor both go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/preview"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/store"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// ErrInvalidDocument wraps validation failures of incoming documents
var ErrInvalidDocument = errors.New("invalid document")

// ErrReportsDisabled is returned by report operations when no order log is configured
var ErrReportsDisabled = errors.New("sales reports need an order database")

// Printers finds the printer a job goes to
type Printers interface {
	GetPrinter(id string) *printer.Printer
	ResolvePrinter(role registry.Role) (*printer.Printer, error)
}

// Queue accepts print jobs
type Queue interface {
	Enqueue(printerID, kind string, payload []byte) string
	EnqueueImage(printerID, kind string, img image.Image) string
}

// Profiles supplies the current store profile
type Profiles interface {
	Profile() receiptformat.StoreProfile
}

// OrderLog records printed orders and aggregates them into reports
type OrderLog interface {
	RecordOrder(ctx context.Context, doc *receiptformat.Document) (bool, error)
	SalesReport(ctx context.Context, from, to time.Time, period, printedBy string) (*receiptformat.Document, error)
}

// Service ties rendering, printer selection and the print queue together
type Service struct {
	printers     Printers
	queue        Queue
	profiles     Profiles
	orders       OrderLog
	defaultWidth int
	now          func() time.Time
}

// New creates a service. orders may be nil, which disables order recording
// and sales reports.
func New(printers Printers, queue Queue, profiles Profiles, orders OrderLog, defaultWidth int) *Service {
	return &Service{
		printers:     printers,
		queue:        queue,
		profiles:     profiles,
		orders:       orders,
		defaultWidth: receiptformat.Columns(defaultWidth),
		now:          time.Now,
	}
}

// PrintRequest asks for one document to be printed. An empty PrinterID
// selects a printer by the role matching Kind.
type PrintRequest struct {
	PrinterID string
	Kind      receiptformat.Kind
	Document  *receiptformat.Document
}

// PrintResult describes the queued job
type PrintResult struct {
	JobID     string             `json:"job_id"`
	PrinterID string             `json:"printer_id"`
	Kind      receiptformat.Kind `json:"kind"`
	Columns   int                `json:"columns"`
	Raster    bool               `json:"raster"`
	Recorded  bool               `json:"recorded"`
}

// ReportRequest asks for a sales report over a period (see store.ParseRange)
type ReportRequest struct {
	PrinterID  string
	Period     string
	PrintedBy  string
	PaperWidth int
}

// Profile returns the store profile used for rendering
func (s *Service) Profile() receiptformat.StoreProfile {
	if s.profiles == nil {
		return receiptformat.DefaultStoreProfile()
	}
	return s.profiles.Profile()
}

// Render returns the printable text for doc with the current store profile
func (s *Service) Render(doc *receiptformat.Document, kind receiptformat.Kind) string {
	return renderer.Render(s.withWidth(doc, 0), s.Profile(), kind)
}

// Preview renders doc as a PNG-ready image. Cashier receipts get a barcode
// of the order id; qr, when set, is printed below it.
func (s *Service) Preview(doc *receiptformat.Document, kind receiptformat.Kind, qr string) (image.Image, error) {
	d := s.withWidth(doc, 0)
	text := renderer.Render(d, s.Profile(), kind)
	return preview.Render(text, d.PaperWidth, s.graphics(d, kind, qr))
}

func (s *Service) graphics(doc *receiptformat.Document, kind receiptformat.Kind, qr string) preview.Options {
	opts := preview.Options{QR: qr}
	if kind == receiptformat.KindCashier && isASCII(doc.OrderID) {
		opts.Barcode = doc.OrderID
	}
	return opts
}

// Print validates, renders and queues a document
func (s *Service) Print(ctx context.Context, req PrintRequest) (*PrintResult, error) {
	if req.Document == nil {
		return nil, fmt.Errorf("%w: document is required", ErrInvalidDocument)
	}
	if err := receiptformat.Validate(req.Document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	p, err := s.resolve(req.PrinterID, req.Kind)
	if err != nil {
		return nil, err
	}

	doc := s.withWidth(req.Document, p.Columns)
	text := renderer.Render(doc, s.Profile(), req.Kind)

	result := &PrintResult{
		PrinterID: p.ID,
		Kind:      req.Kind,
		Columns:   doc.PaperWidth,
		Raster:    p.Raster,
	}

	if p.Raster {
		img, err := preview.Render(text, doc.PaperWidth, s.graphics(doc, req.Kind, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize receipt: %w", err)
		}
		result.JobID = s.queue.EnqueueImage(p.ID, string(req.Kind), img)
	} else {
		result.JobID = s.queue.Enqueue(p.ID, string(req.Kind), printer.EncodeReceipt(text))
	}

	log.Printf("🖨️  Queued %s %s on %s (job %s)", req.Kind, doc.OrderID, p.DisplayName(), result.JobID)

	if req.Kind == receiptformat.KindCashier && s.orders != nil && doc.OrderID != "" {
		recorded, err := s.orders.RecordOrder(ctx, doc)
		if err != nil {
			log.Printf("⚠️  %v", err)
		}
		result.Recorded = recorded
	}

	return result, nil
}

// Report builds the sales report document for a period
func (s *Service) Report(ctx context.Context, period, printedBy string) (*receiptformat.Document, error) {
	if s.orders == nil {
		return nil, ErrReportsDisabled
	}
	r, err := store.ParseRange(period, s.now())
	if err != nil {
		return nil, err
	}
	doc, err := s.orders.SalesReport(ctx, r.From, r.To, r.Label, printedBy)
	if err != nil {
		return nil, err
	}
	doc.Timestamp = s.now()
	return doc, nil
}

// PrintReport builds and prints a sales report
func (s *Service) PrintReport(ctx context.Context, req ReportRequest) (*PrintResult, error) {
	doc, err := s.Report(ctx, req.Period, req.PrintedBy)
	if err != nil {
		return nil, err
	}
	doc.PaperWidth = req.PaperWidth

	return s.Print(ctx, PrintRequest{
		PrinterID: req.PrinterID,
		Kind:      receiptformat.KindSalesReport,
		Document:  doc,
	})
}

func (s *Service) resolve(printerID string, kind receiptformat.Kind) (*printer.Printer, error) {
	if printerID != "" {
		p := s.printers.GetPrinter(printerID)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", printer.ErrPrinterNotFound, printerID)
		}
		return p, nil
	}
	return s.printers.ResolvePrinter(RoleFor(kind))
}

// RoleFor maps a document kind to the printer role that receives it
func RoleFor(kind receiptformat.Kind) registry.Role {
	if kind == receiptformat.KindKitchen {
		return registry.RoleKitchen
	}
	return registry.RoleCashier
}

// withWidth returns a copy of doc with its paper width settled: the
// document's own width, else the printer's, else the server default
func (s *Service) withWidth(doc *receiptformat.Document, printerColumns int) *receiptformat.Document {
	d := receiptformat.Document{}
	if doc != nil {
		d = *doc
	}
	switch {
	case d.PaperWidth > 0:
	case printerColumns > 0:
		d.PaperWidth = printerColumns
	default:
		d.PaperWidth = s.defaultWidth
	}
	d.PaperWidth = receiptformat.Columns(d.PaperWidth)
	return &d
}

func isASCII(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
