// Package discovery announces the print server on the LAN over mDNS so
// POS terminals can find it without a configured address
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// Service is the DNS-SD service type the server registers
	Service = "_kantin-print._tcp"
	Domain  = "local."
)

// ErrNotFound is returned by Lookup when no server answered in time
var ErrNotFound = errors.New("no print server found on the network")

// Announcement is a running mDNS registration
type Announcement struct {
	server *zeroconf.Server
}

// Announce registers instance on port. Shutdown must be called on exit.
func Announce(instance string, port int, version string) (*Announcement, error) {
	server, err := zeroconf.Register(instance, Service, Domain, port, txtRecords(version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	log.Printf("📡 mDNS: %s announced on %s.%s", instance, Service, Domain)
	return &Announcement{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Announcement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	log.Println("📡 mDNS: announcement stopped")
}

func txtRecords(version string) []string {
	return []string{
		"version=" + version,
		"path=/",
		"ws=/ws",
	}
}

// Lookup browses for a print server and returns its base URL
func Lookup(ctx context.Context, timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, Service, Domain, entries); err != nil {
		return "", fmt.Errorf("failed to browse mDNS: %w", err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if u := entryURL(entry); u != "" {
				return u, nil
			}
		case <-ctx.Done():
			return "", ErrNotFound
		}
	}
}

func entryURL(entry *zeroconf.ServiceEntry) string {
	if entry == nil || entry.Port == 0 {
		return ""
	}

	path := "/"
	for _, txt := range entry.Text {
		if v, ok := strings.CutPrefix(txt, "path="); ok && v != "" {
			path = v
		}
	}
	path = strings.TrimSuffix(path, "/")

	host := ""
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = "[" + entry.AddrIPv6[0].String() + "]"
	case entry.HostName != "":
		host = strings.TrimSuffix(entry.HostName, ".")
	default:
		return ""
	}

	return "http://" + host + ":" + strconv.Itoa(entry.Port) + path
}
