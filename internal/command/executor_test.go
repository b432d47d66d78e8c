package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/registry"
	"github.com/thereceipt/kantin-receipt/internal/service"
)

type discardConnection struct {
	mu sync.Mutex
	n  int
}

func (c *discardConnection) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += len(p)
	return len(p), nil
}

func (c *discardConnection) Close() error { return nil }

const orderJSON = `{
  "order_id": "ORD-7",
  "items": [{"name": "Kopi Hitam", "quantity": 2, "unit_price": 15000}],
  "subtotal": 30000,
  "total": 30000,
  "payment_method": "cash",
  "timestamp": "2026-03-14T09:00:00Z"
}`

func newTestExecutor(t *testing.T) (*Executor, *printer.Manager, *printer.ConnectionPool) {
	t.Helper()
	manager, err := printer.NewManager(filepath.Join(t.TempDir(), "printers.json"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	pool := printer.NewConnectionPool()
	queue := printer.NewPrintQueue(pool, manager, 1)
	t.Cleanup(queue.Stop)

	svc := service.New(manager, queue, nil, nil, 32)
	return NewExecutor(manager, queue, svc), manager, pool
}

func writeOrder(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order 7.json")
	if err := os.WriteFile(path, []byte(orderJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"help", []string{"help"}},
		{"  job   list ", []string{"job", "list"}},
		{`printer name abc "Printer Dapur"`, []string{"printer", "name", "abc", "Printer Dapur"}},
		{`print kasir 'it"s.json'`, []string{"print", "kasir", `it"s.json`}},
		{`printer name abc ""`, []string{"printer", "name", "abc", ""}},
	}

	for _, tt := range tests {
		if got := parseCommand(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommand(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestExecute_UnknownAndEmpty(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	ctx := context.Background()

	if r := e.Execute(ctx, ""); r.Success || r.Error != "empty command" {
		t.Errorf("Expected empty command error, got %+v", r)
	}
	if r := e.Execute(ctx, "fly away"); r.Success || !strings.Contains(r.Error, "unknown command") {
		t.Errorf("Expected unknown command error, got %+v", r)
	}
	if r := e.Execute(ctx, "help"); !r.Success || !strings.Contains(r.Message, "printer role") {
		t.Error("Expected help text")
	}
}

func TestExecute_PrinterSettings(t *testing.T) {
	e, manager, _ := newTestExecutor(t)
	ctx := context.Background()

	r := e.Execute(ctx, `printer add 192.168.1.50 9100 "Printer Dapur"`)
	if !r.Success {
		t.Fatalf("Expected printer add to succeed: %s", r.Error)
	}
	id := r.Data["printer_id"].(string)

	steps := []string{
		"printer role " + id + " kitchen",
		"printer width " + id + " 24",
		"printer raster " + id + " on",
		"printer name " + id + " 'Dapur Belakang'",
	}
	for _, cmd := range steps {
		if r := e.Execute(ctx, cmd); !r.Success {
			t.Fatalf("%s: %s", cmd, r.Error)
		}
	}

	p := manager.GetPrinter(id)
	if p.Role != registry.RoleKitchen || p.Columns != 24 || !p.Raster || p.Name != "Dapur Belakang" {
		t.Errorf("Unexpected printer settings: %+v", p)
	}

	bad := []string{
		"printer role " + id + " bar",
		"printer width " + id + " 40",
		"printer raster " + id + " maybe",
		"printer role missing kitchen",
		"printer add 10.0.0.1 notaport",
	}
	for _, cmd := range bad {
		if r := e.Execute(ctx, cmd); r.Success {
			t.Errorf("%s: expected failure", cmd)
		}
	}

	if r := e.Execute(ctx, "printer list"); !r.Success || !strings.Contains(r.Message, "1 printer") {
		t.Errorf("Expected one printer listed, got %+v", r)
	}
}

func TestExecute_RenderAndPrint(t *testing.T) {
	e, manager, pool := newTestExecutor(t)
	ctx := context.Background()
	path := writeOrder(t)

	r := e.Execute(ctx, `render kasir "`+path+`"`)
	if !r.Success {
		t.Fatalf("Expected render to succeed: %s", r.Error)
	}
	if !strings.Contains(r.Message, "TOTAL") || !strings.Contains(r.Message, "Rp30.000") {
		t.Errorf("Expected rendered receipt, got:\n%s", r.Message)
	}

	if r := e.Execute(ctx, `print kasir "`+path+`"`); r.Success {
		t.Error("Expected print to fail without printers")
	}

	id := manager.AddNetworkPrinter("192.168.1.60", 9100, "")
	conn := &discardConnection{}
	pool.Attach(id, conn)

	r = e.Execute(ctx, `print kasir "`+path+`"`)
	if !r.Success {
		t.Fatalf("Expected print to succeed: %s", r.Error)
	}
	jobID := r.Data["job_id"].(string)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s := e.Execute(ctx, "job status "+jobID); s.Success && strings.HasSuffix(s.Message, printer.StatusCompleted) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	conn.mu.Lock()
	written := conn.n
	conn.mu.Unlock()
	if written == 0 {
		t.Error("Expected receipt bytes to reach the printer")
	}

	if r := e.Execute(ctx, "job clear"); !r.Success || r.Data["cleared"].(int) != 1 {
		t.Errorf("Expected one job cleared, got %+v", r)
	}
	if r := e.Execute(ctx, "job status "+jobID); r.Success {
		t.Error("Expected cleared job to be gone")
	}
}

func TestLoadDocument_InlineOnly(t *testing.T) {
	path := writeOrder(t)

	doc, err := LoadDocument(context.Background(), path)
	if err != nil || doc.OrderID != "ORD-7" {
		t.Fatalf("Expected ORD-7 from file, got %v %v", doc, err)
	}

	ctx := InlineOnly(context.Background())
	for _, source := range []string{path, "http://127.0.0.1:1/order.json"} {
		if _, err := LoadDocument(ctx, source); !errors.Is(err, ErrSourceNotAllowed) {
			t.Errorf("Expected ErrSourceNotAllowed for %s, got %v", source, err)
		}
	}

	e, _, _ := newTestExecutor(t)
	if r := e.Execute(ctx, `render kasir "`+path+`"`); r.Success || !strings.Contains(r.Error, "not accepted") {
		t.Errorf("Expected render to refuse the path, got %+v", r)
	}
}

func TestExecute_BadKind(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	if r := e.Execute(context.Background(), "print bar ./x.json"); r.Success || !strings.Contains(r.Error, "unknown receipt kind") {
		t.Errorf("Expected unknown kind error, got %+v", r)
	}
}

func TestExecute_ReportWithoutDatabase(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	if r := e.Execute(context.Background(), "report today"); r.Success {
		t.Error("Expected report to fail without an order database")
	}
}
