package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

var periodOptions = []string{"today", "yesterday", "week", "month"}

// ReportView previews and prints the product sales report
type ReportView struct {
	app     *tview.Application
	service *service.Service
	form    *tview.Form
	preview *tview.TextView
	layout  *tview.Flex
}

// NewReportView creates a new sales report screen
func NewReportView(app *tview.Application, svc *service.Service) *ReportView {
	r := &ReportView{
		app:     app,
		service: svc,
	}

	r.setupUI()
	return r
}

func (r *ReportView) setupUI() {
	r.preview = tview.NewTextView()
	r.preview.SetBorder(true)
	r.preview.SetTitle("Sales Report")
	r.preview.SetScrollable(true)

	r.form = tview.NewForm()
	r.form.SetBorder(true)
	r.form.SetTitle("Report")
	r.form.AddDropDown("Period", periodOptions, 0, nil)
	r.form.AddInputField("Or dates", "", 24, nil, nil)
	r.form.AddInputField("Printed by", "", 24, nil, nil)
	r.form.AddButton("Preview", func() {
		r.showPreview()
	})
	r.form.AddButton("Print", func() {
		r.print()
	})

	r.layout = tview.NewFlex().
		AddItem(r.form, 0, 1, true).
		AddItem(r.preview, 0, 1, false)

	r.form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlP {
			r.showPreview()
			return nil
		}
		return event
	})

	r.preview.SetText("YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD in 'Or dates' overrides the period")
}

// period returns the typed date range, falling back to the dropdown
func (r *ReportView) period() string {
	if dates := strings.TrimSpace(r.form.GetFormItem(1).(*tview.InputField).GetText()); dates != "" {
		return dates
	}
	_, option := r.form.GetFormItem(0).(*tview.DropDown).GetCurrentOption()
	return option
}

func (r *ReportView) printedBy() string {
	return strings.TrimSpace(r.form.GetFormItem(2).(*tview.InputField).GetText())
}

func (r *ReportView) showPreview() {
	doc, err := r.service.Report(context.Background(), r.period(), r.printedBy())
	if err != nil {
		r.preview.SetText(fmt.Sprintf("✗ %v", err))
		return
	}

	r.preview.SetText(renderer.Annotate(r.service.Render(doc, receiptformat.KindSalesReport)))
	r.preview.ScrollToBeginning()
}

func (r *ReportView) print() {
	res, err := r.service.PrintReport(context.Background(), service.ReportRequest{
		Period:    r.period(),
		PrintedBy: r.printedBy(),
	})
	if err != nil {
		r.preview.SetText(fmt.Sprintf("✗ %v", err))
		return
	}

	r.preview.SetText(fmt.Sprintf("✓ Sales report queued\n\nJob ID: %s\nPrinter: %s", res.JobID, res.PrinterID))
}

// GetRoot returns the root primitive for this screen
func (r *ReportView) GetRoot() tview.Primitive {
	return r.layout
}
