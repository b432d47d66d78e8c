package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/thereceipt/kantin-receipt/internal/api"
	"github.com/thereceipt/kantin-receipt/internal/command"
	"github.com/thereceipt/kantin-receipt/internal/config"
	"github.com/thereceipt/kantin-receipt/internal/discovery"
	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/service"
	"github.com/thereceipt/kantin-receipt/internal/settings"
	"github.com/thereceipt/kantin-receipt/internal/store"
	"github.com/thereceipt/kantin-receipt/internal/tui"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Server.Port, "HTTP port")
	headless := flag.Bool("headless", false, "run without the terminal dashboard")
	issueToken := flag.String("issue-token", "", "print an API token for `subject` and exit")
	flag.Parse()
	cfg.Server.Port = *port

	if *issueToken != "" {
		if cfg.Auth.Secret == "" {
			log.Fatal("JWT_SECRET is not set, the API runs without authentication")
		}
		token, err := api.IssueToken(cfg.Auth.Secret, *issueToken, 30*24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	// Initialize printer manager
	manager, err := printer.NewManager(cfg.Server.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to create printer manager: %v", err)
	}

	printers, err := manager.DetectPrinters()
	if err != nil {
		log.Printf("⚠️  Printer detection failed: %v", err)
	}

	pool := printer.NewConnectionPool()
	queue := printer.NewPrintQueue(pool, manager, cfg.Print.MaxRetries)
	monitor := printer.NewMonitor(manager, pool, 2*time.Second)

	// Order database is optional; without it receipts still print but
	// nothing is recorded and sales reports are unavailable.
	var orders service.OrderLog
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		log.Printf("⚠️  Order database unavailable, sales reports disabled: %v", err)
	} else {
		orders = db
	}

	profiles := settings.Load(cfg.Server.ProfilePath)
	profiles.Watch()

	svc := service.New(manager, queue, profiles, orders, cfg.Print.DefaultPaperWidth)
	executor := command.NewExecutor(manager, queue, svc)
	server := api.NewServer(cfg, manager, queue, svc, executor)

	var dashboard *tui.Dashboard
	if !*headless {
		dashboard = tui.NewDashboard(manager, pool, queue, svc, executor, cfg.Server.Port, orders != nil)
		log.SetOutput(io.MultiWriter(logFile(), dashboard.LogWriter()))
	}

	manager.OnPrinterAdded(func(p *printer.Printer) {
		server.BroadcastPrinterAdded(p)
		if dashboard != nil {
			dashboard.RefreshPrinters()
		}
	})
	manager.OnPrinterRemoved(func(id string) {
		server.BroadcastPrinterRemoved(id)
		if dashboard != nil {
			dashboard.RefreshPrinters()
		}
	})
	queue.OnStatus(func(job printer.PrintJob) {
		server.BroadcastJob(job)
		if dashboard != nil {
			dashboard.RefreshJobs()
		}
	})
	profiles.OnChange(func(p receiptformat.StoreProfile) {
		log.Printf("📝 Store profile now %q", p.Title())
	})

	monitor.Start(printers)

	var announcement *discovery.Announcement
	if cfg.MDNS.Enabled {
		if n, err := strconv.Atoi(cfg.Server.Port); err == nil {
			announcement, err = discovery.Announce(cfg.MDNS.Instance, n, api.Version)
			if err != nil {
				log.Printf("⚠️  mDNS announcement failed: %v", err)
			}
		}
	}

	serverErrChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port)
		log.Printf("🚀 Starting API server on %s", addr)
		if err := server.Run(addr); err != nil {
			serverErrChan <- err
		}
	}()

	log.Printf("🖨️  Kantin Receipt %s starting...", api.Version)
	if len(printers) > 0 {
		log.Printf("✅ Found %d printer(s)", len(printers))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	tuiDone := make(chan struct{})
	if dashboard != nil {
		go func() {
			if err := dashboard.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			close(tuiDone)
		}()
	}

	exitCode := 0
	select {
	case err := <-serverErrChan:
		log.Printf("❌ Server error: %v", err)
		exitCode = 1
	case <-sigChan:
		log.Println("🛑 Shutting down...")
	case <-tuiDone:
	}

	if dashboard != nil {
		dashboard.App.Stop()
		log.SetOutput(os.Stderr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server shutdown: %v", err)
	}

	announcement.Shutdown()
	monitor.Stop()
	queue.Stop()
	pool.DisconnectAll()
	if db != nil {
		db.Close()
	}

	os.Exit(exitCode)
}

// logFile returns the file server logs are mirrored to while the dashboard
// owns the terminal. Falls back to discarding them.
func logFile() io.Writer {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		path = "kantin-receipt.log"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return io.Discard
	}
	return f
}
