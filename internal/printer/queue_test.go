package printer

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/registry"
)

type fakeConnection struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	fail   bool
	closed bool
}

func (c *fakeConnection) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return 0, errors.New("paper jam")
	}
	return c.buf.Write(p)
}

func (c *fakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConnection) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.buf.Bytes()...)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "printers.json"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func waitForStatus(t *testing.T, q *PrintQueue, jobID, status string) *PrintJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job := q.GetJob(jobID)
		if job != nil && job.Status == status {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Job %s never reached %s", jobID, status)
	return nil
}

func TestPrintQueue_DeliversPayload(t *testing.T) {
	pool := NewConnectionPool()
	conn := &fakeConnection{}
	pool.Attach("printer-1", conn)

	q := NewPrintQueue(pool, newTestManager(t), 3)
	defer q.Stop()

	payload := bytes.Repeat([]byte("Kopi Hitam\n"), 100)
	id := q.Enqueue("printer-1", "cashier", payload)

	job := waitForStatus(t, q, id, StatusCompleted)
	if job.Size != len(payload) {
		t.Errorf("Expected size %d, got %d", len(payload), job.Size)
	}
	if !bytes.Equal(conn.Bytes(), payload) {
		t.Error("Expected printer to receive the full payload")
	}
}

func TestPrintQueue_RetriesThenFails(t *testing.T) {
	pool := NewConnectionPool()
	q := NewPrintQueue(pool, newTestManager(t), 2)
	q.SetRetryDelay(10 * time.Millisecond)
	defer q.Stop()

	var mu sync.Mutex
	var seen []string
	q.OnStatus(func(job PrintJob) {
		mu.Lock()
		seen = append(seen, job.Status)
		mu.Unlock()
	})

	pool.Attach("printer-1", &fakeConnection{fail: true})
	id := q.Enqueue("printer-1", "kitchen", []byte("x"))

	job := waitForStatus(t, q, id, StatusFailed)
	if job.Retries != 2 {
		t.Errorf("Expected 2 attempts, got %d", job.Retries)
	}
	if job.ErrorText == "" {
		t.Error("Expected error text on failed job")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[0] != StatusQueued || seen[len(seen)-1] != StatusFailed {
		t.Errorf("Unexpected status sequence: %v", seen)
	}
}

func TestPrintQueue_UnknownPrinterFails(t *testing.T) {
	q := NewPrintQueue(NewConnectionPool(), newTestManager(t), 1)
	defer q.Stop()

	id := q.Enqueue("missing", "cashier", []byte("x"))
	job := waitForStatus(t, q, id, StatusFailed)
	if !errors.Is(job.Error, ErrPrinterNotFound) {
		t.Errorf("Expected ErrPrinterNotFound, got %v", job.Error)
	}
}

func TestPrintQueue_ClearFinished(t *testing.T) {
	pool := NewConnectionPool()
	pool.Attach("ok", &fakeConnection{})
	q := NewPrintQueue(pool, newTestManager(t), 1)
	defer q.Stop()

	done := q.Enqueue("ok", "cashier", []byte("a"))
	failed := q.Enqueue("missing", "cashier", []byte("b"))
	waitForStatus(t, q, done, StatusCompleted)
	waitForStatus(t, q, failed, StatusFailed)

	if n := q.ClearCompleted(); n != 1 {
		t.Errorf("Expected 1 completed job removed, got %d", n)
	}
	if n := q.ClearFinished(); n != 1 {
		t.Errorf("Expected 1 failed job removed, got %d", n)
	}
	if len(q.GetAllJobs()) != 0 || q.Pending() != 0 {
		t.Error("Expected empty queue")
	}
}

func TestConnectionPool_SendDisconnectsOnError(t *testing.T) {
	pool := NewConnectionPool()
	conn := &fakeConnection{fail: true}
	pool.Attach("p", conn)

	if err := pool.Send("p", []byte("x")); err == nil {
		t.Fatal("Expected send error")
	}
	if pool.IsConnected("p") {
		t.Error("Expected broken connection to be dropped")
	}
	if !conn.closed {
		t.Error("Expected broken connection to be closed")
	}

	if err := pool.Send("p", []byte("x")); err == nil {
		t.Error("Expected error for disconnected printer")
	}
}

func TestManager_NetworkPrintersAndRoles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var added []string
	m.OnPrinterAdded(func(p *Printer) { added = append(added, p.ID) })

	kitchen := m.AddNetworkPrinter("192.168.1.20", 0, "")
	cashier := m.AddNetworkPrinter("192.168.1.21", 9100, "Kasir")

	if len(added) != 2 {
		t.Errorf("Expected 2 added callbacks, got %d", len(added))
	}
	if p := m.GetPrinter(kitchen); p == nil || p.Port != DefaultNetworkPort {
		t.Fatalf("Expected kitchen printer on port 9100, got %+v", p)
	}

	if _, err := m.ResolvePrinter(registry.RoleKitchen); !errors.Is(err, ErrPrinterNotFound) {
		t.Errorf("Expected ErrPrinterNotFound before roles are set, got %v", err)
	}

	if err := m.SetPrinterSettings(kitchen, registry.Settings{Role: registry.RoleKitchen, Columns: 24}); err != nil {
		t.Fatalf("Failed to set settings: %v", err)
	}
	m.SetPrinterSettings(cashier, registry.Settings{Role: registry.RoleCashier})

	p, err := m.ResolvePrinter(registry.RoleKitchen)
	if err != nil || p.ID != kitchen {
		t.Errorf("Expected kitchen printer, got %v (%v)", p, err)
	}
	if p.Columns != 24 {
		t.Errorf("Expected 24 columns, got %d", p.Columns)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to reload manager: %v", err)
	}
	if len(reloaded.GetAllPrinters()) != 2 {
		t.Errorf("Expected network printers restored, got %d", len(reloaded.GetAllPrinters()))
	}
	if p, err := reloaded.ResolvePrinter(registry.RoleCashier); err != nil || p.ID != cashier {
		t.Errorf("Expected cashier printer after reload, got %v (%v)", p, err)
	}
}

func TestManager_SinglePrinterIsDefault(t *testing.T) {
	m := newTestManager(t)
	id := m.AddNetworkPrinter("10.0.0.5", 9100, "")

	p, err := m.ResolvePrinter(registry.RoleKitchen)
	if err != nil || p.ID != id {
		t.Errorf("Expected the only printer as default, got %v (%v)", p, err)
	}
}
