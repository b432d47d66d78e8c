package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/service"
)

func newTestDashboard(t *testing.T) (*Dashboard, *printer.Manager) {
	t.Helper()
	manager, err := printer.NewManager(filepath.Join(t.TempDir(), "printers.json"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	pool := printer.NewConnectionPool()
	queue := printer.NewPrintQueue(pool, manager, 1)
	t.Cleanup(queue.Stop)

	svc := service.New(manager, queue, nil, nil, 32)
	executor := command.NewExecutor(manager, queue, svc)
	return NewDashboard(manager, pool, queue, svc, executor, "12212", false), manager
}

func TestFormatLog(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	got := formatLog("printer [dapur] offline", "error", at)
	if !strings.HasPrefix(got, "[red][09:05:00] ❌ ") {
		t.Errorf("Unexpected error line: %q", got)
	}
	if !strings.Contains(got, "[dapur[]") {
		t.Errorf("Expected brackets to be escaped, got %q", got)
	}

	if got := formatLog("> help", "command", at); got != "[cyan][09:05:00] > help[white]\n" {
		t.Errorf("Unexpected command line: %q", got)
	}
}

func TestDashboard_ExecuteCommand(t *testing.T) {
	d, manager := newTestDashboard(t)

	d.executeCommand("printer add 10.0.0.5")
	if len(manager.GetAllPrinters()) != 1 {
		t.Fatal("Expected command to add a printer")
	}

	d.executeCommand("printer list")
	d.executeCommand("fly away")

	logs := strings.Join(d.logs, "")
	if !strings.Contains(logs, "Found 1 printer(s)") {
		t.Errorf("Expected printer list in logs, got:\n%s", logs)
	}
	if !strings.Contains(logs, "10.0.0.5") {
		t.Errorf("Expected printer details in logs, got:\n%s", logs)
	}
	if !strings.Contains(logs, "unknown command") {
		t.Errorf("Expected error in logs, got:\n%s", logs)
	}

	d.executeCommand("clear")
	if len(d.logs) != 0 {
		t.Errorf("Expected logs cleared, got %d entries", len(d.logs))
	}
}

func TestDashboard_Screens(t *testing.T) {
	d, _ := newTestDashboard(t)

	for _, name := range []string{"registry", "jobs", "print", "report"} {
		d.showScreen(name)
		if d.currentScreen != name {
			t.Errorf("Expected screen %s, got %s", name, d.currentScreen)
		}
	}

	d.showMainScreen()
	if d.currentScreen != "main" {
		t.Errorf("Expected main screen, got %s", d.currentScreen)
	}
}
