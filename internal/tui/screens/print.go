package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

var kindOptions = []receiptformat.Kind{
	receiptformat.KindCashier,
	receiptformat.KindKitchen,
	receiptformat.KindSalesReport,
}

const autoPrinter = "Auto (by role)"

// PrintBuilder is a screen for loading an order document and printing it
type PrintBuilder struct {
	app         *tview.Application
	manager     *printer.Manager
	service     *service.Service
	form        *tview.Form
	kindList    *tview.DropDown
	printerList *tview.DropDown
	fileInput   *tview.InputField
	preview     *tview.TextView
	layout      *tview.Flex
	document    *receiptformat.Document
	printerIDs  []string
}

// NewPrintBuilder creates a new print builder screen
func NewPrintBuilder(app *tview.Application, manager *printer.Manager, svc *service.Service) *PrintBuilder {
	p := &PrintBuilder{
		app:     app,
		manager: manager,
		service: svc,
	}

	p.setupUI()
	return p
}

func (p *PrintBuilder) setupUI() {
	kinds := make([]string, len(kindOptions))
	for i, k := range kindOptions {
		kinds[i] = string(k)
	}
	p.kindList = tview.NewDropDown()
	p.kindList.SetLabel("Kind: ")
	p.kindList.SetOptions(kinds, func(string, int) {
		if p.document != nil {
			p.showPreview()
		}
	})
	p.kindList.SetCurrentOption(0)

	p.printerList = tview.NewDropDown()
	p.printerList.SetLabel("Printer: ")
	p.refreshPrinters()

	p.fileInput = tview.NewInputField()
	p.fileInput.SetLabel("Order File: ")
	p.fileInput.SetPlaceholder("/path/to/order.json or https://...")

	p.preview = tview.NewTextView()
	p.preview.SetBorder(true)
	p.preview.SetTitle("Preview")
	p.preview.SetScrollable(true)

	p.form = tview.NewForm()
	p.form.SetBorder(true)
	p.form.SetTitle("Print Receipt")
	p.form.AddFormItem(p.kindList)
	p.form.AddFormItem(p.printerList)
	p.form.AddFormItem(p.fileInput)
	p.form.AddButton("Load", func() {
		p.loadDocument()
	})
	p.form.AddButton("Print", func() {
		p.printDocument()
	})

	p.layout = tview.NewFlex().
		AddItem(p.form, 0, 1, true).
		AddItem(p.preview, 0, 1, false)

	p.form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlR {
			p.refreshPrinters()
			return nil
		}
		return event
	})
}

// Refresh reloads the printer choices
func (p *PrintBuilder) Refresh() {
	p.refreshPrinters()
}

func (p *PrintBuilder) refreshPrinters() {
	printers := p.manager.GetAllPrinters()

	options := []string{autoPrinter}
	p.printerIDs = []string{""}
	for _, pr := range printers {
		label := pr.DisplayName()
		if pr.Role != "" {
			label += " (" + string(pr.Role) + ")"
		}
		options = append(options, label)
		p.printerIDs = append(p.printerIDs, pr.ID)
	}

	p.printerList.SetOptions(options, nil)
	p.printerList.SetCurrentOption(0)
}

func (p *PrintBuilder) selectedKind() receiptformat.Kind {
	i, _ := p.kindList.GetCurrentOption()
	if i < 0 || i >= len(kindOptions) {
		return receiptformat.KindCashier
	}
	return kindOptions[i]
}

func (p *PrintBuilder) loadDocument() {
	path := strings.TrimSpace(p.fileInput.GetText())
	if path == "" {
		p.preview.SetText("Please enter an order file path")
		return
	}

	doc, err := command.LoadDocument(context.Background(), path)
	if err != nil {
		p.preview.SetText(fmt.Sprintf("Error loading order: %v", err))
		return
	}

	p.document = doc
	p.showPreview()
}

func (p *PrintBuilder) showPreview() {
	text := p.service.Render(p.document, p.selectedKind())
	p.preview.SetText(renderer.Annotate(text))
	p.preview.ScrollToBeginning()
}

func (p *PrintBuilder) printDocument() {
	if p.document == nil {
		p.preview.SetText("Please load an order first")
		return
	}

	printerID := ""
	if i, _ := p.printerList.GetCurrentOption(); i > 0 && i < len(p.printerIDs) {
		printerID = p.printerIDs[i]
	}

	res, err := p.service.Print(context.Background(), service.PrintRequest{
		PrinterID: printerID,
		Kind:      p.selectedKind(),
		Document:  p.document,
	})
	if err != nil {
		p.preview.SetText(fmt.Sprintf("✗ %v", err))
		return
	}

	p.preview.SetText(fmt.Sprintf("✓ Print job queued\n\nJob ID: %s\nPrinter: %s\nColumns: %d\nRecorded: %v",
		res.JobID, res.PrinterID, res.Columns, res.Recorded))
}

// GetRoot returns the root primitive for this screen
func (p *PrintBuilder) GetRoot() tview.Primitive {
	return p.layout
}
