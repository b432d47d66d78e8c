// Package receiptformat defines the order documents and store profile consumed by the receipt renderer
package receiptformat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownKind is returned by ParseKind for an unrecognised render variant
var ErrUnknownKind = errors.New("unknown receipt kind")

// Kind selects which sections a render includes
type Kind string

const (
	KindKitchen     Kind = "kitchen"
	KindCashier     Kind = "cashier"
	KindSalesReport Kind = "salesReport"
)

// ParseKind accepts the canonical names plus a few spellings used by clients
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kitchen", "dapur":
		return KindKitchen, nil
	case "cashier", "kasir", "receipt", "":
		return KindCashier, nil
	case "salesreport", "sales_report", "sales-report", "report":
		return KindSalesReport, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, s)
}

// PaymentMethod is one of the tender types accepted at checkout
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentQRIS     PaymentMethod = "qris"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDebit    PaymentMethod = "debit"
	PaymentCredit   PaymentMethod = "credit"
)

// PaymentMethods lists the accepted methods in display order
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentQRIS, PaymentTransfer, PaymentDebit, PaymentCredit}

// Label returns the printed name of the payment method
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Tunai"
	case PaymentQRIS:
		return "QRIS"
	case PaymentTransfer:
		return "Transfer Bank"
	case PaymentDebit:
		return "Kartu Debit"
	case PaymentCredit:
		return "Kartu Kredit"
	}
	return strings.ToUpper(string(m))
}

// Paper widths in printable columns
const (
	NarrowPaper = 24 // 58mm
	WidePaper   = 32 // 80mm

	DefaultPaperWidth = WidePaper
)

// Columns normalises a requested paper width to 24 or 32
func Columns(width int) int {
	switch {
	case width <= 0:
		return DefaultPaperWidth
	case width <= NarrowPaper:
		return NarrowPaper
	default:
		return WidePaper
	}
}

// Item is a single checkout line
type Item struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Variant   string `json:"variant,omitempty"`
	Note      string `json:"note,omitempty"`
}

// LineTotal is quantity times unit price
func (i Item) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// DisplayName appends the variant in parentheses. Names that already carry
// a parenthesised variant are left alone.
func (i Item) DisplayName() string {
	if i.Variant == "" || (strings.Contains(i.Name, "(") && strings.Contains(i.Name, ")")) {
		return i.Name
	}
	return i.Name + " (" + i.Variant + ")"
}

// ProductSales is one aggregated row of a sales report
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// UnitPrice is the average selling price, rounded to the nearest rupiah
func (p ProductSales) UnitPrice() int64 {
	if p.Quantity == 0 {
		return 0
	}
	q := int64(p.Quantity)
	if p.Revenue < 0 {
		return -((-p.Revenue*2 + q) / (2 * q))
	}
	return (p.Revenue*2 + q) / (2 * q)
}

// PaymentTotal summarises transactions paid with one method
type PaymentTotal struct {
	Method PaymentMethod `json:"method"`
	Count  int           `json:"count"`
	Amount int64         `json:"amount"`
}

// Document is everything needed to print one receipt, ticket or report.
// Amounts are whole rupiah. Totals are printed as given and never recomputed.
type Document struct {
	OrderID       string        `json:"order_id"`
	Items         []Item        `json:"items"`
	Subtotal      int64         `json:"subtotal"`
	Tax           int64         `json:"tax"`
	TaxRate       float64       `json:"tax_rate,omitempty"`
	Discount      int64         `json:"discount,omitempty"`
	PromotionCode string        `json:"promotion_code,omitempty"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	AmountPaid    int64         `json:"amount_paid,omitempty"`
	CashierName   string        `json:"cashier_name,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	PointsEarned  int           `json:"points_earned,omitempty"`
	PointsTotal   int           `json:"points_total,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	PaperWidth    int           `json:"paper_width"`

	// Sales report fields
	Period       string         `json:"period,omitempty"`
	Sales        []ProductSales `json:"sales,omitempty"`
	Payments     []PaymentTotal `json:"payments,omitempty"`
	Transactions int            `json:"transactions,omitempty"`
	// PromoTransactions counts the transactions that had a discount
	PromoTransactions int `json:"promo_transactions,omitempty"`
}

// Change is the cash handed back. Zero tender counts as exact payment.
func (d *Document) Change() int64 {
	if d.AmountPaid == 0 {
		return 0
	}
	return d.AmountPaid - d.Total
}

// Tendered is the cash received, defaulting to the total
func (d *Document) Tendered() int64 {
	if d.AmountPaid == 0 {
		return d.Total
	}
	return d.AmountPaid
}

// ItemCount sums the quantities of all items
func (d *Document) ItemCount() int {
	n := 0
	for _, item := range d.Items {
		n += item.Quantity
	}
	return n
}

// ProductSales returns the report rows, aggregating Items by display name
// when no pre-aggregated Sales are attached. First appearance wins the order.
func (d *Document) ProductSales() []ProductSales {
	if len(d.Sales) > 0 {
		return d.Sales
	}

	index := make(map[string]int)
	var rows []ProductSales
	for _, item := range d.Items {
		name := item.DisplayName()
		i, ok := index[name]
		if !ok {
			i = len(rows)
			index[name] = i
			rows = append(rows, ProductSales{Name: name})
		}
		rows[i].Quantity += item.Quantity
		rows[i].Revenue += item.LineTotal()
	}
	return rows
}

// StoreProfile holds the store branding printed on receipts
type StoreProfile struct {
	Header    string `json:"header" mapstructure:"header"`
	Tagline   string `json:"tagline" mapstructure:"tagline"`
	Footer    string `json:"footer" mapstructure:"footer"`
	StoreName string `json:"store_name" mapstructure:"store_name"`
	Address   string `json:"address" mapstructure:"address"`
	Phone     string `json:"phone" mapstructure:"phone"`
}

// DefaultStoreProfile is used whenever no usable profile is configured
func DefaultStoreProfile() StoreProfile {
	return StoreProfile{
		Header:    "BK POS",
		Tagline:   "Makanan Enak, Harga Terjangkau",
		Footer:    "Terima kasih atas kunjungan Anda!",
		StoreName: "Toko Pusat",
		Address:   "Jl. Contoh No. 123",
		Phone:     "(021) 12345678",
	}
}

// IsZero reports whether no field is set
func (p StoreProfile) IsZero() bool {
	return p == StoreProfile{}
}

// Title is the bold first line of the header block
func (p StoreProfile) Title() string {
	if p.Header != "" {
		return p.Header
	}
	return p.StoreName
}
