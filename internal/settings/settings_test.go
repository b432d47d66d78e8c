package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "store.yaml", `
receipt:
  header: KANTIN BU SRI
  tagline: Murah Meriah
  footer: Sampai Jumpa
store:
  name: Cabang Kampus
  address: Jl. Kampus 1
  phone: "0812"
`)

	s := Load(path)
	p := s.Profile()

	if !s.Loaded() {
		t.Error("Expected profile to be loaded from file")
	}
	if p.Header != "KANTIN BU SRI" || p.StoreName != "Cabang Kampus" {
		t.Errorf("Unexpected profile: %+v", p)
	}
	if p.Phone != "0812" {
		t.Errorf("Expected phone 0812, got %s", p.Phone)
	}
}

func TestLoad_PartialFileUsesDefaults(t *testing.T) {
	path := writeFile(t, "store.json", `{"receipt": {"header": "WARUNG"}}`)

	p := Load(path).Profile()
	def := receiptformat.DefaultStoreProfile()

	if p.Header != "WARUNG" {
		t.Errorf("Expected header WARUNG, got %s", p.Header)
	}
	if p.Footer != def.Footer || p.Address != def.Address {
		t.Errorf("Expected default footer and address, got %+v", p)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	if s.Loaded() {
		t.Error("Expected missing file to be reported as not loaded")
	}
	if s.Profile() != receiptformat.DefaultStoreProfile() {
		t.Errorf("Expected default profile, got %+v", s.Profile())
	}

	// no-op without a file
	s.Watch()
}

func TestLoad_BrokenFile(t *testing.T) {
	path := writeFile(t, "store.yaml", "receipt: [unclosed")

	s := Load(path)
	if s.Profile() != receiptformat.DefaultStoreProfile() {
		t.Errorf("Expected default profile, got %+v", s.Profile())
	}
}

func TestReload_NotifiesChange(t *testing.T) {
	path := writeFile(t, "store.yaml", "receipt:\n  header: A\n")
	s := Load(path)

	var got receiptformat.StoreProfile
	s.OnChange(func(p receiptformat.StoreProfile) { got = p })

	if err := os.WriteFile(path, []byte("receipt:\n  header: B\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Unexpected reload error: %v", err)
	}

	if got.Header != "B" || s.Profile().Header != "B" {
		t.Errorf("Expected header B after reload, got %q", got.Header)
	}
}
