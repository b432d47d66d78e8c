package printer

import (
	"context"
	"log"
	"time"
)

// Monitor periodically rescans for printers and reports changes
type Monitor struct {
	manager  *Manager
	pool     *ConnectionPool
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMonitor creates a new printer monitor. Connections to printers that
// disappear are dropped from pool.
func NewMonitor(manager *Manager, pool *ConnectionPool, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		manager:  manager,
		pool:     pool,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins monitoring. initial seeds the known set so printers found
// by the startup scan are not reported again.
func (m *Monitor) Start(initial []*Printer) {
	previous := make(map[string]*Printer, len(initial))
	for _, p := range initial {
		previous[p.ID] = p
	}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkChanges(previous)
			}
		}
	}()
}

// Stop stops the monitor
func (m *Monitor) Stop() {
	m.cancel()
}

func (m *Monitor) checkChanges(previous map[string]*Printer) {
	printers, err := m.manager.DetectPrinters()
	if err != nil {
		log.Printf("⚠️  printer detection failed: %v", err)
		return
	}

	current := make(map[string]*Printer, len(printers))
	for _, p := range printers {
		current[p.ID] = p
	}

	for id, printer := range current {
		if _, exists := previous[id]; !exists {
			log.Printf("🟢 Printer added: %s", printer.DisplayName())
			if m.manager.onPrinterAdded != nil {
				m.manager.onPrinterAdded(printer)
			}
		}
	}

	for id, printer := range previous {
		if _, exists := current[id]; !exists {
			log.Printf("🔴 Printer removed: %s", printer.DisplayName())
			if m.pool != nil {
				m.pool.Disconnect(id)
			}
			if m.manager.onPrinterRemoved != nil {
				m.manager.onPrinterRemoved(id)
			}
		}
	}

	for id := range previous {
		delete(previous, id)
	}
	for id, p := range current {
		previous[id] = p
	}
}
