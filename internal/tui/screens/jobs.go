package screens

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/kantin-receipt/internal/printer"
)

// JobsView shows detailed information about print jobs
type JobsView struct {
	app     *tview.Application
	queue   *printer.PrintQueue
	manager *printer.Manager
	table   *tview.Table
	details *tview.TextView
	layout  *tview.Flex
	jobs    []*printer.PrintJob
}

// NewJobsView creates a new jobs view screen
func NewJobsView(app *tview.Application, queue *printer.PrintQueue, manager *printer.Manager) *JobsView {
	j := &JobsView{
		app:     app,
		queue:   queue,
		manager: manager,
	}

	j.setupUI()
	return j
}

func (j *JobsView) setupUI() {
	j.table = tview.NewTable()
	j.table.SetBorder(true)
	j.table.SetTitle("Print Jobs")
	j.table.SetSelectable(true, false)
	j.table.SetFixed(1, 0)
	j.table.SetSelectionChangedFunc(func(row, column int) {
		j.selectJob(row)
	})

	j.details = tview.NewTextView()
	j.details.SetBorder(true)
	j.details.SetTitle("Job Details")
	j.details.SetDynamicColors(true)

	j.layout = tview.NewFlex().
		AddItem(j.table, 0, 2, true).
		AddItem(j.details, 0, 1, false)

	j.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			return event // Let parent handle
		case tcell.KeyRune:
			switch event.Rune() {
			case 'r':
				j.Refresh()
				return nil
			case 'c':
				j.clear(false)
				return nil
			case 'C':
				j.clear(true)
				return nil
			}
		}
		return event
	})

	j.Refresh()
}

// Refresh reloads the job table
func (j *JobsView) Refresh() {
	j.table.Clear()

	headers := []string{"ID", "Kind", "Printer", "Status", "Retries", "Age"}
	for col, h := range headers {
		j.table.SetCell(0, col, tview.NewTableCell(h).SetAlign(tview.AlignCenter).SetSelectable(false))
	}

	j.jobs = j.queue.GetAllJobs()

	for i, job := range j.jobs {
		row := i + 1
		j.table.SetCell(row, 0, tview.NewTableCell(shortID(job.ID)))
		j.table.SetCell(row, 1, tview.NewTableCell(job.Kind))
		j.table.SetCell(row, 2, tview.NewTableCell(j.printerName(job.PrinterID)))
		j.table.SetCell(row, 3, tview.NewTableCell(getStatusIcon(job.Status)+" "+job.Status))
		j.table.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%d", job.Retries)))
		j.table.SetCell(row, 5, tview.NewTableCell(time.Since(job.CreatedAt).Truncate(time.Second).String()))
	}

	if len(j.jobs) == 0 {
		j.details.SetText("[yellow]No jobs in queue[white]")
	}
}

func (j *JobsView) printerName(id string) string {
	if p := j.manager.GetPrinter(id); p != nil {
		return p.DisplayName()
	}
	return shortID(id)
}

func (j *JobsView) selectJob(row int) {
	if row < 1 || row-1 >= len(j.jobs) {
		return
	}
	job := j.jobs[row-1]

	var details strings.Builder
	fmt.Fprintf(&details, "[yellow]Job ID:[white] %s\n", job.ID)
	fmt.Fprintf(&details, "[yellow]Kind:[white] %s\n", job.Kind)
	fmt.Fprintf(&details, "[yellow]Printer:[white] %s\n", tview.Escape(j.printerName(job.PrinterID)))
	fmt.Fprintf(&details, "[yellow]Status:[white] %s %s\n", getStatusIcon(job.Status), job.Status)
	fmt.Fprintf(&details, "[yellow]Retries:[white] %d\n", job.Retries)
	if job.Size > 0 {
		fmt.Fprintf(&details, "[yellow]Size:[white] %d bytes\n", job.Size)
	} else if job.Image != nil {
		details.WriteString("[yellow]Size:[white] raster\n")
	}
	fmt.Fprintf(&details, "[yellow]Created:[white] %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	if !job.CompletedAt.IsZero() {
		fmt.Fprintf(&details, "[yellow]Finished:[white] %s\n", job.CompletedAt.Format("2006-01-02 15:04:05"))
	}

	if job.ErrorText != "" {
		fmt.Fprintf(&details, "\n[red]Error:[white] %s\n", tview.Escape(job.ErrorText))
	}

	details.WriteString("\n[yellow]'r' refresh, 'c' clear completed, 'C' clear failed too[white]")

	j.details.SetText(details.String())
}

func (j *JobsView) clear(failed bool) {
	var n int
	if failed {
		n = j.queue.ClearFinished()
	} else {
		n = j.queue.ClearCompleted()
	}
	j.Refresh()
	j.details.SetText(fmt.Sprintf("[green]✓ Cleared %d job(s)[white]", n))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func getStatusIcon(status string) string {
	switch status {
	case printer.StatusQueued:
		return "⏳"
	case printer.StatusPrinting:
		return "🟡"
	case printer.StatusCompleted:
		return "✅"
	case printer.StatusFailed:
		return "❌"
	default:
		return "⚪"
	}
}

// GetRoot returns the root primitive for this screen
func (j *JobsView) GetRoot() tview.Primitive {
	return j.layout
}
