package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/discovery"
	"github.com/thereceipt/kantin-receipt/internal/renderer"
	"github.com/thereceipt/kantin-receipt/internal/settings"
	"github.com/thereceipt/kantin-receipt/internal/tui"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

const (
	defaultServerURL = "http://localhost:12212"
)

var (
	serverURL string
	token     string
	printerID string
	width     int
	plain     bool
)

func main() {
	flag.StringVar(&serverURL, "server", "", "Server URL (default: mDNS lookup, then "+defaultServerURL+")")
	flag.StringVar(&serverURL, "s", "", "Server URL (short)")
	flag.StringVar(&token, "token", os.Getenv("KANTIN_TOKEN"), "API token")
	flag.StringVar(&printerID, "printer", "", "Printer ID (default: chosen by receipt kind)")
	flag.StringVar(&printerID, "p", "", "Printer ID (short)")
	flag.IntVar(&width, "width", 0, "Paper width in columns for preview (24 or 32)")
	flag.BoolVar(&plain, "plain", false, "Print previews to stdout instead of opening the pager")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	args := flag.Args()
	var err error

	switch args[0] {
	case "preview":
		err = runPreview(args[1:])
	case "compose":
		err = runCompose(args[1:])
	case "print":
		err = runPrint(connect(), args[1:])
	case "render":
		err = runRender(connect(), args[1:])
	case "report":
		err = runReport(connect(), args[1:])
	default:
		result := connect().command(strings.Join(args, " "))
		if !result.Success {
			printError(result.Error)
			os.Exit(1)
		}
		printSuccess(result)
		return
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Kantin Receipt CLI

Usage:
  kantin-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: discovered via mDNS, else %s)
  -token <token>       API token (default: $KANTIN_TOKEN)
  -p, -printer <id>    Printer to use instead of the one picked by role
  -width <24|32>       Paper width for preview
  -plain               Write previews to stdout

Commands:
  preview <kind> <document.json|url>
    Render a receipt locally and show it in a pager (no server needed)

  compose <out.json> <fields...>
    Write an order document built from command-line fields
    Fields:
      item:"Kopi Hitam" qty:3 price:5000 variant:Large note:"less ice"
      order:ID cashier:Name customer:Name pay:cash|qris|transfer|debit|credit
      paid:50000 discount:5000 tax:0 promo:CODE width:24|32

  print <kind> <document.json|url>
  print <kind> --compose <fields...>
    Print a cashier receipt, kitchen ticket or report

  render <kind> <document.json|url>
    Show the text the server would print

  report [period] [printed-by]
    Show the sales report (period: today, yesterday, week, month,
    YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD)

  report print [period] [printed-by]
    Print the sales report on the cashier printer

  printer list | add <host> [port] | name <id> <name>
  printer role <id> <cashier|kitchen|none> | width <id> <24|32> | raster <id> <on|off>
  job list | status <id> | clear
  detect
  help
    Passed to the server's command console

Kinds: cashier (kasir), kitchen (dapur), report

Examples:
  kantin-cli preview cashier ./order.json
  kantin-cli -width 24 preview kitchen ./order.json
  kantin-cli print cashier ./order.json
  kantin-cli print kitchen --compose item:"Nasi Goreng" qty:2 note:"pedas" order:A-12
  kantin-cli -p <printer-id> print cashier ./order.json
  kantin-cli report week
  kantin-cli report print today "Sari"
  kantin-cli printer role <printer-id> kitchen

`, defaultServerURL)
}

// connect picks the server: -server, then $KANTIN_SERVER, then an mDNS
// lookup on the local network, then localhost.
func connect() *client {
	base := serverURL
	if base == "" {
		base = os.Getenv("KANTIN_SERVER")
	}
	if base == "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		found, err := discovery.Lookup(ctx, 2*time.Second)
		cancel()
		if err == nil {
			fmt.Fprintln(os.Stderr, tui.MutedStyle.Render("Using server "+found))
			base = found
		} else {
			base = defaultServerURL
		}
	}
	return newClient(base, token)
}

func runPreview(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: preview <kind> <document.json|url>")
	}

	kind, err := receiptformat.ParseKind(args[0])
	if err != nil {
		return err
	}
	doc, err := command.LoadDocument(context.Background(), args[1])
	if err != nil {
		return err
	}
	if width != 0 {
		doc.PaperWidth = width
	}

	profilePath := os.Getenv("PROFILE_PATH")
	if profilePath == "" {
		profilePath = "store.yaml"
	}
	profile := settings.Load(profilePath).Profile()

	text := renderer.Render(doc, profile, kind)
	if plain {
		fmt.Print(renderer.Annotate(text))
		return nil
	}

	title := fmt.Sprintf("%s • %s", filepath.Base(args[1]), kind)
	return tui.RunPager(title, text, receiptformat.Columns(doc.PaperWidth))
}

func runCompose(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: compose <out.json> <fields...>")
	}

	doc, err := composeDocument(args[1:], time.Now())
	if err != nil {
		return err
	}
	if err := doc.SaveToFile(args[0]); err != nil {
		return err
	}

	fmt.Println(tui.SuccessStyle.Render("✓") + " Wrote " + args[0])
	return nil
}

func runPrint(c *client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: print <kind> <document.json|url> | print <kind> --compose <fields...>")
	}

	kind, err := receiptformat.ParseKind(args[0])
	if err != nil {
		return err
	}

	body, err := documentBody(kind, args[1:])
	if err != nil {
		return err
	}

	var res printResponse
	if err := c.do(http.MethodPost, "/print", body, &res); err != nil {
		return err
	}

	fmt.Printf("%s Print job queued: %s\n", tui.SuccessStyle.Render("✓"), res.JobID)
	fmt.Printf("  Printer: %s (%d columns)\n", res.Job.PrinterID, res.Job.Columns)
	if res.Job.Recorded {
		fmt.Println(tui.MutedStyle.Render("  Order recorded for sales reports"))
	}
	return nil
}

func runRender(c *client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: render <kind> <document.json|url>")
	}

	kind, err := receiptformat.ParseKind(args[0])
	if err != nil {
		return err
	}

	body, err := documentBody(kind, args[1:])
	if err != nil {
		return err
	}

	var res struct {
		Text string `json:"text"`
	}
	if err := c.do(http.MethodPost, "/render", body, &res); err != nil {
		return err
	}

	fmt.Print(renderer.Annotate(res.Text))
	return nil
}

func runReport(c *client, args []string) error {
	if len(args) > 0 && args[0] == "print" {
		req := map[string]interface{}{"printer_id": printerID, "period": "today"}
		if len(args) > 1 {
			req["period"] = args[1]
		}
		if len(args) > 2 {
			req["printed_by"] = args[2]
		}
		if width != 0 {
			req["paper_width"] = width
		}

		var res printResponse
		if err := c.do(http.MethodPost, "/report/print", req, &res); err != nil {
			return err
		}
		fmt.Printf("%s Sales report queued: %s (printer %s)\n", tui.SuccessStyle.Render("✓"), res.JobID, res.Job.PrinterID)
		return nil
	}

	query := url.Values{}
	if len(args) > 0 {
		query.Set("period", args[0])
	}
	if len(args) > 1 {
		query.Set("by", args[1])
	}

	var res struct {
		Text string `json:"text"`
	}
	if err := c.do(http.MethodGet, "/report?"+query.Encode(), nil, &res); err != nil {
		return err
	}

	fmt.Print(res.Text)
	return nil
}

// documentBody builds a /print or /render request. Files and URLs are loaded
// here and sent inline; servers without auth only accept inline documents.
func documentBody(kind receiptformat.Kind, args []string) (map[string]interface{}, error) {
	body := map[string]interface{}{"kind": kind}
	if printerID != "" {
		body["printer_id"] = printerID
	}

	source := args[0]
	if source == "--compose" {
		doc, err := composeDocument(args[1:], time.Now())
		if err != nil {
			return nil, fmt.Errorf("error composing document: %w", err)
		}
		body["document"] = doc
		return body, nil
	}

	doc, err := command.LoadDocument(context.Background(), source)
	if err != nil {
		return nil, err
	}
	body["document"] = doc
	return body, nil
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if printers, ok := result.Data["printers"].([]interface{}); ok {
		fmt.Println(tui.InfoStyle.Render("\nPrinters:"))
		for _, p := range printers {
			printer, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := printer["name"].(string)
			if name == "" {
				name, _ = printer["description"].(string)
			}
			role, _ := printer["role"].(string)
			if role == "" {
				role = "-"
			}
			fmt.Printf("  %s %s  %s (%s, role %s)\n", tui.StatusIcon("online"),
				printer["id"], tui.Truncate(name, 32), printer["type"], role)
		}
	}

	if jobs, ok := result.Data["jobs"].([]interface{}); ok {
		fmt.Println(tui.InfoStyle.Render("\nJobs:"))
		for _, j := range jobs {
			job, ok := j.(map[string]interface{})
			if !ok {
				continue
			}
			status, _ := job["status"].(string)
			fmt.Printf("  %s %s  %-9s %s (printer: %s)\n", tui.StatusIcon(status),
				job["id"], status, job["kind"], job["printer_id"])
			if msg, ok := job["error"].(string); ok && msg != "" {
				fmt.Println(tui.ErrorStyle.Render("      " + msg))
			}
		}
	}

	if job, ok := result.Data["job"].(map[string]interface{}); ok {
		fmt.Printf("  %s %s %v\n", tui.StatusIcon(fmt.Sprint(job["status"])), job["id"], job["status"])
	}

	if jobID, ok := result.Data["job_id"].(string); ok {
		fmt.Printf("Job ID: %s\n", jobID)
	}

	if id, ok := result.Data["printer_id"].(string); ok {
		fmt.Printf("Printer ID: %s\n", id)
	}
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", tui.ErrorStyle.Render("Error:"), msg)
}
