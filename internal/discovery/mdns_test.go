package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestTxtRecords(t *testing.T) {
	got := txtRecords("1.0.0")
	if len(got) != 3 || got[0] != "version=1.0.0" {
		t.Errorf("Unexpected TXT records: %v", got)
	}
}

func TestEntryURL(t *testing.T) {
	v4 := zeroconf.NewServiceEntry("Kantin Receipt", Service, Domain)
	v4.Port = 12212
	v4.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.10")}
	v4.Text = []string{"version=1.0.0", "path=/"}

	v6 := zeroconf.NewServiceEntry("Kantin Receipt", Service, Domain)
	v6.Port = 12212
	v6.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}
	v6.Text = []string{"path=/pos/"}

	named := zeroconf.NewServiceEntry("Kantin Receipt", Service, Domain)
	named.Port = 8080
	named.HostName = "kasir.local."

	noPort := zeroconf.NewServiceEntry("Kantin Receipt", Service, Domain)
	noPort.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.10")}

	tests := []struct {
		name  string
		entry *zeroconf.ServiceEntry
		want  string
	}{
		{"ipv4", v4, "http://192.168.1.10:12212"},
		{"ipv6 with path", v6, "http://[fe80::1]:12212/pos"},
		{"hostname", named, "http://kasir.local:8080"},
		{"no port", noPort, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		if got := entryURL(tt.entry); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}
