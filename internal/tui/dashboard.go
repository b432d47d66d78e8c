// Package tui holds the server dashboard (tview) and the receipt preview
// pager used by the CLI (bubbletea)
package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/internal/tui/screens"
)

// Dashboard is the server's terminal UI
type Dashboard struct {
	App      *tview.Application
	manager  *printer.Manager
	pool     *printer.ConnectionPool
	queue    *printer.PrintQueue
	service  *service.Service
	executor *command.Executor
	port     string

	// Main layout
	flex *tview.Flex

	// Panels
	printersList *tview.List
	queueTable   *tview.Table
	statusBox    *tview.TextView
	logsArea     *tview.TextView
	commandInput *tview.InputField

	// State
	logs      []string
	maxLogs   int
	startTime time.Time
	reports   bool

	// Screens
	currentScreen  string // "main", "registry", "jobs", "print", "report"
	registryScreen *screens.RegistryEditor
	jobsScreen     *screens.JobsView
	printScreen    *screens.PrintBuilder
	reportScreen   *screens.ReportView
}

// NewDashboard creates the dashboard. reports tells the status panel
// whether an order database is attached.
func NewDashboard(manager *printer.Manager, pool *printer.ConnectionPool, queue *printer.PrintQueue, svc *service.Service, executor *command.Executor, port string, reports bool) *Dashboard {
	d := &Dashboard{
		App:           tview.NewApplication(),
		manager:       manager,
		pool:          pool,
		queue:         queue,
		service:       svc,
		executor:      executor,
		port:          port,
		logs:          make([]string, 0),
		maxLogs:       200,
		startTime:     time.Now(),
		reports:       reports,
		currentScreen: "main",
	}

	d.setupUI()
	d.setupScreens()
	return d
}

func (d *Dashboard) setupScreens() {
	d.registryScreen = screens.NewRegistryEditor(d.App, d.manager)
	d.jobsScreen = screens.NewJobsView(d.App, d.queue, d.manager)
	d.printScreen = screens.NewPrintBuilder(d.App, d.manager, d.service)
	d.reportScreen = screens.NewReportView(d.App, d.service)
}

func (d *Dashboard) setupUI() {
	d.printersList = tview.NewList()
	d.printersList.SetBorder(true)
	d.printersList.SetTitle("Printers")

	d.queueTable = tview.NewTable()
	d.queueTable.SetBorder(true)
	d.queueTable.SetTitle("Print Queue")

	d.statusBox = tview.NewTextView()
	d.statusBox.SetBorder(true)
	d.statusBox.SetTitle("Server Status")
	d.statusBox.SetDynamicColors(true)

	d.logsArea = tview.NewTextView()
	d.logsArea.SetBorder(true)
	d.logsArea.SetTitle("Server Logs")
	d.logsArea.SetDynamicColors(true)
	d.logsArea.SetScrollable(true)

	d.commandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0).
		SetPlaceholder("Type a command (e.g., 'help')").
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEnter {
				d.executeCommand(d.commandInput.GetText())
				d.commandInput.SetText("")
			}
		})

	topRow := tview.NewFlex().
		AddItem(d.printersList, 0, 1, false).
		AddItem(d.queueTable, 0, 1, false).
		AddItem(d.statusBox, 0, 1, false)

	bottom := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(d.logsArea, 0, 3, false).
		AddItem(d.commandInput, 1, 0, true)

	d.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, false).
		AddItem(bottom, 0, 1, false)

	d.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if d.currentScreen != "main" {
			if event.Key() == tcell.KeyEsc {
				d.showMainScreen()
				return nil
			}
			return event
		}

		// Shortcuts are off while typing a command
		if d.commandInput.HasFocus() {
			if event.Key() == tcell.KeyEsc {
				d.App.SetFocus(d.printersList)
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEsc:
			d.App.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case ':':
				d.App.SetFocus(d.commandInput)
				return nil
			case 'q':
				d.App.Stop()
				return nil
			case 'r':
				d.showScreen("registry")
				return nil
			case 'j':
				d.showScreen("jobs")
				return nil
			case 'p':
				d.showScreen("print")
				return nil
			case 's':
				d.showScreen("report")
				return nil
			}
		}
		return event
	})

	d.App.SetRoot(d.flex, true)
}

// Run starts the TUI and blocks until it quits
func (d *Dashboard) Run() error {
	d.refreshAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.refreshTicker(ctx)

	return d.App.Run()
}

func (d *Dashboard) refreshTicker(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.App.QueueUpdateDraw(d.refreshAll)
		}
	}
}

// RefreshPrinters redraws the printers panel from any goroutine
func (d *Dashboard) RefreshPrinters() {
	go d.App.QueueUpdateDraw(func() {
		d.refreshPrinters()
		if d.currentScreen == "registry" {
			d.registryScreen.Refresh()
		}
		d.printScreen.Refresh()
	})
}

// RefreshJobs redraws the queue panel from any goroutine
func (d *Dashboard) RefreshJobs() {
	go d.App.QueueUpdateDraw(func() {
		d.refreshQueue()
		if d.currentScreen == "jobs" {
			d.jobsScreen.Refresh()
		}
	})
}

func (d *Dashboard) refreshAll() {
	d.refreshPrinters()
	d.refreshQueue()
	d.refreshStatus()
}

func (d *Dashboard) refreshPrinters() {
	d.printersList.Clear()

	printers := d.manager.GetAllPrinters()
	if len(printers) == 0 {
		d.printersList.AddItem("No printers detected", "", 0, nil)
		return
	}

	for _, p := range printers {
		status := "⚪"
		if d.pool.IsConnected(p.ID) {
			status = "🟢"
		}

		details := strings.ToUpper(p.Type)
		if p.Device != "" {
			details += " • " + p.Device
		} else if p.Host != "" {
			details += fmt.Sprintf(" • %s:%d", p.Host, p.Port)
		}
		if p.Role != "" {
			details += " • " + string(p.Role)
		}

		d.printersList.AddItem(fmt.Sprintf("%s %s", status, tview.Escape(p.DisplayName())), details, 0, nil)
	}
}

func (d *Dashboard) refreshQueue() {
	d.queueTable.Clear()

	headers := []string{"Status", "Kind", "Printer", "Retries", "Age"}
	for col, h := range headers {
		d.queueTable.SetCell(0, col, tview.NewTableCell(h).SetAlign(tview.AlignCenter).SetSelectable(false))
	}

	jobs := d.queue.GetAllJobs()
	// Newest first on the dashboard
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	counts := map[string]int{}
	for i, job := range jobs {
		row := i + 1
		counts[job.Status]++

		printerName := job.PrinterID
		if p := d.manager.GetPrinter(job.PrinterID); p != nil {
			printerName = p.DisplayName()
		}

		d.queueTable.SetCell(row, 0, tview.NewTableCell(getStatusIcon(job.Status)+" "+job.Status))
		d.queueTable.SetCell(row, 1, tview.NewTableCell(job.Kind))
		d.queueTable.SetCell(row, 2, tview.NewTableCell(tview.Escape(printerName)))
		d.queueTable.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", job.Retries)))
		d.queueTable.SetCell(row, 4, tview.NewTableCell(time.Since(job.CreatedAt).Truncate(time.Second).String()))
	}

	if len(jobs) > 0 {
		summary := fmt.Sprintf("[%d] Queued [%d] Printing [%d] Completed [%d] Failed",
			counts[printer.StatusQueued], counts[printer.StatusPrinting],
			counts[printer.StatusCompleted], counts[printer.StatusFailed])
		d.queueTable.SetCell(len(jobs)+1, 0, tview.NewTableCell(tview.Escape(summary)).SetSelectable(false).SetExpansion(1))
	}
}

func (d *Dashboard) refreshStatus() {
	uptime := time.Since(d.startTime)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60

	reports := "[yellow]off (no database)[white]"
	if d.reports {
		reports = "[green]on[white]"
	}

	profile := d.service.Profile()

	status := fmt.Sprintf(`[green]🟢 Running[white]

Store: %s
Uptime: %dh %dm
API: :%s
Reports: %s
Pending jobs: %d

[gray]r registry • j jobs • p print • s report • : command[white]`,
		tview.Escape(profile.Title()), hours, minutes, d.port, reports, d.queue.Pending())

	d.statusBox.SetText(status)
}

func (d *Dashboard) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	d.addLog(fmt.Sprintf("> %s", cmd), "command")

	switch strings.ToLower(cmd) {
	case "registry", "r":
		d.showScreen("registry")
		return
	case "jobs", "j":
		d.showScreen("jobs")
		return
	case "print", "p":
		d.showScreen("print")
		return
	case "sales", "s":
		d.showScreen("report")
		return
	case "clear":
		d.logs = d.logs[:0]
		d.logsArea.Clear()
		return
	case "refresh":
		d.refreshAll()
		return
	case "quit", "q", "exit":
		d.App.Stop()
		return
	}

	result := d.executor.Execute(context.Background(), cmd)
	if !result.Success {
		d.addLog(result.Error, "error")
		return
	}

	d.addLog(describeResult(result), "info")
	d.refreshAll()
}

// describeResult turns list results into readable lines
func describeResult(result *command.Result) string {
	var b strings.Builder
	b.WriteString(result.Message)

	if printers, ok := result.Data["printers"].([]*printer.Printer); ok {
		for _, p := range printers {
			role := string(p.Role)
			if role == "" {
				role = "-"
			}
			fmt.Fprintf(&b, "\n  %s  %-24s %-8s %s", p.ID, p.DisplayName(), p.Type, role)
		}
	}
	if jobs, ok := result.Data["jobs"].([]*printer.PrintJob); ok {
		for _, j := range jobs {
			fmt.Fprintf(&b, "\n  %s  %-10s %-9s %s", j.ID, j.Kind, j.Status, j.ErrorText)
		}
	}

	return b.String()
}

func (d *Dashboard) showScreen(screenName string) {
	d.currentScreen = screenName

	switch screenName {
	case "registry":
		d.registryScreen.Refresh()
		d.App.SetRoot(d.registryScreen.GetRoot(), true)
		d.App.SetFocus(d.registryScreen.GetRoot())
	case "jobs":
		d.jobsScreen.Refresh()
		d.App.SetRoot(d.jobsScreen.GetRoot(), true)
		d.App.SetFocus(d.jobsScreen.GetRoot())
	case "print":
		d.printScreen.Refresh()
		d.App.SetRoot(d.printScreen.GetRoot(), true)
		d.App.SetFocus(d.printScreen.GetRoot())
	case "report":
		d.App.SetRoot(d.reportScreen.GetRoot(), true)
		d.App.SetFocus(d.reportScreen.GetRoot())
	default:
		d.showMainScreen()
	}
}

func (d *Dashboard) showMainScreen() {
	d.currentScreen = "main"
	d.refreshAll()
	d.App.SetRoot(d.flex, true)
	d.App.SetFocus(d.commandInput)
}

// AddLog adds a log entry from any goroutine
func (d *Dashboard) AddLog(message string, level string) {
	entry := formatLog(message, level, time.Now())
	go d.App.QueueUpdateDraw(func() {
		d.appendLog(entry)
	})
}

// addLog is AddLog for code already running on the UI goroutine
func (d *Dashboard) addLog(message string, level string) {
	d.appendLog(formatLog(message, level, time.Now()))
}

func (d *Dashboard) appendLog(entry string) {
	d.logs = append(d.logs, entry)
	if len(d.logs) > d.maxLogs {
		d.logs = d.logs[len(d.logs)-d.maxLogs:]
	}

	d.logsArea.SetText(strings.Join(d.logs, ""))
	d.logsArea.ScrollToEnd()
}

func formatLog(message, level string, at time.Time) string {
	var color, prefix string

	switch level {
	case "error":
		color = "[red]"
		prefix = "❌ "
	case "warning":
		color = "[yellow]"
		prefix = "⚠️ "
	case "command":
		color = "[cyan]"
	default:
		color = "[white]"
	}

	return fmt.Sprintf("%s[%s] %s%s[white]\n", color, at.Format("15:04:05"), prefix, tview.Escape(message))
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

// LogWriter returns an io.Writer that feeds the logs panel, for log.SetOutput
func (d *Dashboard) LogWriter() io.Writer {
	return &logWriter{dashboard: d}
}

type logWriter struct {
	dashboard *Dashboard
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		level := "info"
		switch {
		case strings.Contains(line, "❌"):
			level = "error"
		case strings.Contains(line, "⚠️"):
			level = "warning"
		}
		w.dashboard.AddLog(line, level)
	}
	return len(p), nil
}
