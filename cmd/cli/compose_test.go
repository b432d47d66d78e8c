package main

import (
	"strings"
	"testing"
	"time"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

func TestComposeDocument(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	args := []string{
		`item:"Kopi Hitam"`, "qty:3", "price:5.000",
		"item:Nasi Goreng", "variant:Spesial", "price:25000", `note:"tidak pedas"`,
		"pay:CASH", "paid:50000", "cashier:Sari",
	}

	doc, err := composeDocument(args, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(doc.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(doc.Items))
	}
	if doc.Items[0].Name != "Kopi Hitam" || doc.Items[0].Quantity != 3 || doc.Items[0].UnitPrice != 5000 {
		t.Errorf("Unexpected first item: %+v", doc.Items[0])
	}
	if doc.Items[1].Quantity != 1 || doc.Items[1].Variant != "Spesial" || doc.Items[1].Note != "tidak pedas" {
		t.Errorf("Unexpected second item: %+v", doc.Items[1])
	}
	if doc.Subtotal != 40000 || doc.Total != 40000 {
		t.Errorf("Expected subtotal and total 40000, got %d and %d", doc.Subtotal, doc.Total)
	}
	if doc.PaymentMethod != receiptformat.PaymentCash {
		t.Errorf("Expected cash payment, got %s", doc.PaymentMethod)
	}
	if doc.Change() != 10000 {
		t.Errorf("Expected change 10000, got %d", doc.Change())
	}
	if doc.OrderID != "CLI-20260314-090500" {
		t.Errorf("Expected generated order ID, got %s", doc.OrderID)
	}
	if !doc.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, doc.Timestamp)
	}
}

func TestComposeDocument_Totals(t *testing.T) {
	doc, err := composeDocument([]string{
		"item:Es Teh", "qty:2", "price:4000", "discount:1000", "tax:700", "order:A-12",
	}, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Total != 7700 {
		t.Errorf("Expected total 7700, got %d", doc.Total)
	}
	if doc.OrderID != "A-12" {
		t.Errorf("Expected order ID A-12, got %s", doc.OrderID)
	}

	doc, err = composeDocument([]string{"item:Es Teh", "price:4000", "total:3500"}, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Subtotal != 4000 || doc.Total != 3500 {
		t.Errorf("Expected explicit total to win, got subtotal %d total %d", doc.Subtotal, doc.Total)
	}
}

func TestComposeDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty", nil, "no compose arguments"},
		{"no colon", []string{"cut"}, "format 'name:value'"},
		{"qty before item", []string{"qty:2"}, "before any item"},
		{"bad qty", []string{"item:Kopi", "qty:two"}, "invalid qty"},
		{"bad price", []string{"item:Kopi", "price:abc"}, "invalid price"},
		{"unknown key", []string{"item:Kopi", "colour:red"}, "unknown compose key"},
		{"bad payment", []string{"item:Kopi", "pay:gold"}, "invalid payment_method"},
		{"bad width", []string{"item:Kopi", "width:40"}, "invalid paper_width"},
		{"zero qty", []string{"item:Kopi", "qty:0"}, "quantity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := composeDocument(tt.args, time.Now())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
