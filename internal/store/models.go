package store

import (
	"time"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// Order is a printed cashier receipt. OrderedAt is unix seconds so range
// queries compare the same way on sqlite and postgres.
type Order struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	OrderedAt     int64       `gorm:"index;not null" json:"ordered_at"`
	PaymentMethod string      `gorm:"size:32;index" json:"payment_method"`
	Subtotal      int64       `json:"subtotal"`
	Tax           int64       `json:"tax"`
	Discount      int64       `json:"discount"`
	PromotionCode string      `gorm:"size:64" json:"promotion_code,omitempty"`
	Total         int64       `json:"total"`
	AmountPaid    int64       `json:"amount_paid"`
	CashierName   string      `gorm:"size:128" json:"cashier_name,omitempty"`
	CustomerName  string      `gorm:"size:128" json:"customer_name,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// OrderItem is one line of a recorded order
type OrderItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OrderID   string `gorm:"size:64;index;not null" json:"order_id"`
	Name      string `gorm:"size:255;not null" json:"name"`
	Variant   string `gorm:"size:255" json:"variant,omitempty"`
	Note      string `json:"note,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}

func orderFromDocument(doc *receiptformat.Document) *Order {
	ts := doc.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	order := &Order{
		ID:            doc.OrderID,
		OrderedAt:     ts.Unix(),
		PaymentMethod: string(doc.PaymentMethod),
		Subtotal:      doc.Subtotal,
		Tax:           doc.Tax,
		Discount:      doc.Discount,
		PromotionCode: doc.PromotionCode,
		Total:         doc.Total,
		AmountPaid:    doc.Tendered(),
		CashierName:   doc.CashierName,
		CustomerName:  doc.CustomerName,
		Items:         make([]OrderItem, len(doc.Items)),
	}
	for i, item := range doc.Items {
		order.Items[i] = OrderItem{
			OrderID:   doc.OrderID,
			Name:      item.Name,
			Variant:   item.Variant,
			Note:      item.Note,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
	}
	return order
}
