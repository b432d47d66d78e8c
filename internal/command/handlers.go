package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// handlePrint handles print commands
// Usage: print <kind> <document-path|url> [printer-id]
func (e *Executor) handlePrint(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return failure("usage: print <cashier|kitchen|report> <document-path|url> [printer-id]")
	}

	kind, err := receiptformat.ParseKind(args[0])
	if err != nil {
		return failure("%v", err)
	}

	doc, err := LoadDocument(ctx, args[1])
	if err != nil {
		return failure("failed to load document: %v", err)
	}

	req := service.PrintRequest{Kind: kind, Document: doc}
	if len(args) >= 3 {
		req.PrinterID = args[2]
	}

	res, err := e.service.Print(ctx, req)
	if err != nil {
		return failure("%v", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Print job queued: %s", res.JobID),
		Data: map[string]interface{}{
			"job_id":     res.JobID,
			"printer_id": res.PrinterID,
			"columns":    res.Columns,
		},
	}
}

// handleRender renders a document without printing it
// Usage: render <kind> <document-path|url>
func (e *Executor) handleRender(ctx context.Context, args []string) *Result {
	if len(args) < 2 {
		return failure("usage: render <cashier|kitchen|report> <document-path|url>")
	}

	kind, err := receiptformat.ParseKind(args[0])
	if err != nil {
		return failure("%v", err)
	}

	doc, err := LoadDocument(ctx, args[1])
	if err != nil {
		return failure("failed to load document: %v", err)
	}

	text := e.service.Render(doc, kind)
	return &Result{
		Success: true,
		Message: renderer.Annotate(text),
		Data: map[string]interface{}{
			"text": text,
		},
	}
}

// handleReport prints a sales report
// Usage: report [period] [printer-id] [printed-by]
func (e *Executor) handleReport(ctx context.Context, args []string) *Result {
	req := service.ReportRequest{Period: "today"}
	if len(args) >= 1 {
		req.Period = args[0]
	}
	if len(args) >= 2 {
		req.PrinterID = args[1]
	}
	if len(args) >= 3 {
		req.PrintedBy = args[2]
	}

	res, err := e.service.PrintReport(ctx, req)
	if err != nil {
		return failure("%v", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Sales report queued: %s", res.JobID),
		Data: map[string]interface{}{
			"job_id":     res.JobID,
			"printer_id": res.PrinterID,
		},
	}
}

// handlePrinter handles printer commands
// Usage: printer list | name <id> <name> | role <id> <role> | width <id> <24|32> | raster <id> <on|off> | add <host> [port] [description]
func (e *Executor) handlePrinter(args []string) *Result {
	if len(args) == 0 {
		return failure("usage: printer <list|name|role|width|raster|add>")
	}

	subcommand := args[0]

	switch subcommand {
	case "list":
		printers := e.manager.GetAllPrinters()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d printer(s)", len(printers)),
			Data: map[string]interface{}{
				"printers": printers,
			},
		}

	case "add":
		if len(args) < 2 {
			return failure("usage: printer add <host> [port] [description]")
		}
		host := args[1]
		port := printer.DefaultNetworkPort
		if len(args) >= 3 {
			var err error
			port, err = strconv.Atoi(args[2])
			if err != nil || port <= 0 || port > 65535 {
				return failure("invalid port: %s", args[2])
			}
		}
		description := ""
		if len(args) >= 4 {
			description = strings.Join(args[3:], " ")
		}
		printerID := e.manager.AddNetworkPrinter(host, port, description)
		p := e.manager.GetPrinter(printerID)
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Added network printer: %s", p.DisplayName()),
			Data: map[string]interface{}{
				"printer_id": printerID,
				"printer":    p,
			},
		}

	case "name", "rename":
		if len(args) < 3 {
			return failure("usage: printer name <id> <name>")
		}
		printerID := args[1]
		name := strings.Join(args[2:], " ")
		if !e.manager.SetPrinterName(printerID, name) {
			return failure("printer not found: %s", printerID)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Renamed printer %s to %s", printerID, name),
		}

	case "role", "width", "raster":
		if len(args) < 3 {
			return failure("usage: printer %s <id> <value>", subcommand)
		}
		return e.updateSettings(subcommand, args[1], args[2])

	default:
		return failure("unknown printer subcommand: %s. Use: list, name, role, width, raster, add", subcommand)
	}
}

func (e *Executor) updateSettings(field, printerID, value string) *Result {
	if e.manager.GetPrinter(printerID) == nil && e.manager.Registry().GetPrinterInfo(printerID) == nil {
		return failure("printer not found: %s", printerID)
	}
	settings := e.manager.Registry().GetSettings(printerID)

	switch field {
	case "role":
		if value == "none" {
			value = ""
		}
		role, err := registry.ParseRole(value)
		if err != nil {
			return failure("%v", err)
		}
		settings.Role = role
	case "width":
		columns, err := strconv.Atoi(value)
		if err != nil {
			return failure("invalid width: %s", value)
		}
		settings.Columns = columns
	case "raster":
		switch strings.ToLower(value) {
		case "on", "true", "yes", "1":
			settings.Raster = true
		case "off", "false", "no", "0":
			settings.Raster = false
		default:
			return failure("invalid raster value: %s (use on or off)", value)
		}
	}

	if err := e.manager.SetPrinterSettings(printerID, settings); err != nil {
		return failure("%v", err)
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Updated %s of printer %s", field, printerID),
		Data: map[string]interface{}{
			"settings": settings,
		},
	}
}

// handleJob handles job commands
// Usage: job list | status <id> | clear [all]
func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return failure("usage: job <list|status|clear>")
	}

	subcommand := args[0]

	switch subcommand {
	case "list":
		jobs := e.queue.GetAllJobs()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d job(s)", len(jobs)),
			Data: map[string]interface{}{
				"jobs": jobs,
			},
		}

	case "status":
		if len(args) < 2 {
			return failure("usage: job status <id>")
		}
		job := e.queue.GetJob(args[1])
		if job == nil {
			return failure("job not found: %s", args[1])
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Job %s is %s", job.ID, job.Status),
			Data: map[string]interface{}{
				"job": job,
			},
		}

	case "clear":
		var n int
		if len(args) >= 2 && args[1] == "all" {
			n = e.queue.ClearFinished()
		} else {
			n = e.queue.ClearCompleted()
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Cleared %d job(s)", n),
			Data: map[string]interface{}{
				"cleared": n,
			},
		}

	default:
		return failure("unknown job subcommand: %s. Use: list, status, clear", subcommand)
	}
}

// handleDetect handles detect command
// Usage: detect
func (e *Executor) handleDetect(args []string) *Result {
	printers, err := e.manager.DetectPrinters()
	if err != nil {
		return failure("detection failed: %v", err)
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Detected %d printer(s)", len(printers)),
		Data: map[string]interface{}{
			"count": len(printers),
		},
	}
}

// handleHelp handles help command
func (e *Executor) handleHelp(args []string) *Result {
	helpText := `Available Commands:

  print <kind> <document-path|url> [printer-id]
    Print a document. kind is cashier, kitchen or report.
    Without a printer id the printer with the matching role is used.

  render <kind> <document-path|url>
    Show the receipt text without printing

  report [period] [printer-id] [printed-by]
    Print the sales report. period: today, yesterday, week, month,
    YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD

  printer list
    List all printers

  printer add <host> [port] [description]
    Add a network printer (default port: 9100)

  printer name <id> <name>
    Set a custom name for a printer

  printer role <id> <cashier|kitchen|none>
  printer width <id> <24|32>
  printer raster <id> <on|off>
    Change print settings

  job list
  job status <id>
  job clear [all]

  detect
    Scan for printers

  help
    Show this help message

Examples:
  print kitchen ./order-42.json
  print cashier ./order-42.json 3f2a9c1e
  report week
  printer role 3f2a9c1e kitchen
  printer name 3f2a9c1e "Printer Dapur"
`

	return &Result{
		Success: true,
		Message: helpText,
	}
}

// ErrSourceNotAllowed is returned by LoadDocument for contexts marked InlineOnly
var ErrSourceNotAllowed = errors.New("document paths and URLs are not accepted from this client")

type inlineOnlyKey struct{}

// InlineOnly marks ctx so LoadDocument refuses to read files or fetch URLs.
// The API uses it for unauthenticated clients.
func InlineOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, inlineOnlyKey{}, true)
}

func isInlineOnly(ctx context.Context) bool {
	v, _ := ctx.Value(inlineOnlyKey{}).(bool)
	return v
}

// LoadDocument reads a document from a file path or an http(s) URL
func LoadDocument(ctx context.Context, pathOrURL string) (*receiptformat.Document, error) {
	if isInlineOnly(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotAllowed, pathOrURL)
	}
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		return receiptformat.ParseFile(pathOrURL)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read document from URL: %w", err)
	}

	return receiptformat.Parse(data)
}
