// Package renderer turns order documents into ESC/POS text for thermal printers
package renderer

import (
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// section writes one block of a receipt
type section struct {
	name   string
	render func(w *writer, doc *receiptformat.Document, profile receiptformat.StoreProfile)
}

// layouts lists the sections each kind prints, top to bottom
var layouts = map[receiptformat.Kind][]section{
	receiptformat.KindCashier: {
		{"init", initPrinter},
		{"header", storeHeader},
		{"order", orderInfo},
		{"separator", lightRule},
		{"items", pricedItems},
		{"separator", lightRule},
		{"totals", totals},
		{"payment", payment},
		{"footer", footer},
		{"cut", cut},
	},
	receiptformat.KindKitchen: {
		{"init", initPrinter},
		{"header", kitchenHeader},
		{"order", kitchenOrderInfo},
		{"separator", lightRule},
		{"items", kitchenItems},
		{"separator", lightRule},
		{"summary", kitchenSummary},
		{"cut", cut},
	},
	receiptformat.KindSalesReport: {
		{"init", initPrinter},
		{"header", reportHeader},
		{"products", reportProducts},
		{"summary", reportSummary},
		{"footer", reportFooter},
		{"cut", cut},
	},
}

// Render produces the printable text for doc. Unknown kinds print as cashier
// receipts and an empty profile is replaced by the built-in default.
// The output depends only on the arguments.
func Render(doc *receiptformat.Document, profile receiptformat.StoreProfile, kind receiptformat.Kind) string {
	if doc == nil {
		doc = &receiptformat.Document{}
	}
	if profile.IsZero() {
		profile = receiptformat.DefaultStoreProfile()
	}

	sections, ok := layouts[kind]
	if !ok {
		sections = layouts[receiptformat.KindCashier]
	}

	w := newWriter(receiptformat.Columns(doc.PaperWidth))
	for _, s := range sections {
		s.render(w, doc, profile)
	}
	return w.String()
}

// Sections returns the section names printed for kind, in order
func Sections(kind receiptformat.Kind) []string {
	sections, ok := layouts[kind]
	if !ok {
		sections = layouts[receiptformat.KindCashier]
	}

	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.name
	}
	return names
}

func initPrinter(w *writer, _ *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.raw(Init)
}

func lightRule(w *writer, _ *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.rule('-')
}

func cut(w *writer, _ *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.feed(3)
	w.raw(Cut)
}

const timestampLayout = "02/01/2006 15:04"

func formatTimestamp(doc *receiptformat.Document) string {
	if doc.Timestamp.IsZero() {
		return ""
	}
	return doc.Timestamp.Format(timestampLayout)
}
