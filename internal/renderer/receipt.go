package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

const itemIndent = "  "

func storeHeader(w *writer, _ *receiptformat.Document, profile receiptformat.StoreProfile) {
	w.centered(func() {
		w.boldWrapped(profile.Title(), "")
		if profile.Header != "" && profile.StoreName != "" && profile.StoreName != profile.Header {
			w.wrapped(profile.StoreName, "")
		}
		if profile.Tagline != "" {
			w.wrapped(profile.Tagline, "")
		}
		if profile.Address != "" {
			w.wrapped(profile.Address, "")
		}
		if profile.Phone != "" {
			w.wrapped("Telp: "+profile.Phone, "")
		}
	})
	w.rule('=')
}

func orderInfo(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	if doc.OrderID != "" {
		w.pad("No:", doc.OrderID)
	}
	if ts := formatTimestamp(doc); ts != "" {
		w.pad("Tgl:", ts)
	}
	if doc.CashierName != "" {
		w.pad("Kasir:", doc.CashierName)
	}
	if doc.CustomerName != "" {
		w.pad("Cust:", doc.CustomerName)
	}
}

func pricedItems(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	for i, item := range doc.Items {
		if i > 0 {
			w.blank()
		}
		w.wrapped(item.DisplayName(), itemIndent)
		if item.Note != "" {
			w.prefixed(itemIndent+"Catatan: ", item.Note)
		}
		qty := fmt.Sprintf("%d x %s", item.Quantity, FormatCurrency(item.UnitPrice))
		w.pad(qty, FormatCurrency(item.LineTotal()))
	}
}

func totals(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.pad("Subtotal", FormatCurrency(doc.Subtotal))

	if doc.Discount > 0 {
		label := "Diskon"
		if doc.PromotionCode != "" {
			label = "Promo(" + doc.PromotionCode + ")"
		}
		w.pad(label, "-"+FormatCurrency(doc.Discount))
	}

	if doc.Tax > 0 {
		label := "Pajak"
		if doc.TaxRate > 0 {
			label = "Pajak(" + strconv.FormatFloat(doc.TaxRate, 'f', -1, 64) + "%)"
		}
		w.pad(label, FormatCurrency(doc.Tax))
	}

	w.rule('=')
	w.boldPad("TOTAL", FormatCurrency(doc.Total))
	w.rule('=')
}

func payment(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	if doc.PaymentMethod != "" {
		w.pad("Bayar", doc.PaymentMethod.Label())
	}

	if doc.PaymentMethod == receiptformat.PaymentCash {
		w.pad("Tunai", FormatCurrency(doc.Tendered()))
		w.pad("Kembali", FormatCurrency(doc.Change()))
	}

	if doc.PointsEarned > 0 || doc.PointsTotal > 0 {
		w.blank()
		w.pad("Poin+", strconv.Itoa(doc.PointsEarned))
		w.pad("Total Poin", strconv.Itoa(doc.PointsTotal))
	}
}

func footer(w *writer, _ *receiptformat.Document, profile receiptformat.StoreProfile) {
	w.rule('=')
	text := profile.Footer
	if text == "" {
		text = "Terima Kasih!"
	}
	w.centered(func() {
		for _, paragraph := range strings.Split(text, "\n") {
			w.wrapped(paragraph, "")
		}
	})
}

func kitchenHeader(w *writer, _ *receiptformat.Document, profile receiptformat.StoreProfile) {
	w.centered(func() {
		w.boldWrapped("=== DAPUR ===", "")
		if title := profile.Title(); title != "" {
			w.wrapped(title, "")
		}
	})
	w.rule('-')
}

func kitchenOrderInfo(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	if doc.OrderID != "" {
		w.boldPad("Order:", doc.OrderID)
	}
	if !doc.Timestamp.IsZero() {
		w.pad("Waktu:", doc.Timestamp.Format("15:04"))
	}
	if doc.CustomerName != "" {
		w.pad("Cust:", doc.CustomerName)
	}
	if doc.CashierName != "" {
		w.pad("Kasir:", doc.CashierName)
	}
}

func kitchenItems(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	for i, item := range doc.Items {
		if i > 0 {
			w.blank()
		}
		w.raw(BoldOn)
		w.prefixed(fmt.Sprintf("%dx ", item.Quantity), item.Name)
		w.raw(BoldOff)
		if item.Variant != "" {
			w.prefixed("   > ", item.Variant)
		}
		if item.Note != "" {
			w.prefixed("   ! ", item.Note)
		}
	}
}

func kitchenSummary(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.centered(func() {
		w.boldWrapped(fmt.Sprintf("TOTAL: %d ITEM", doc.ItemCount()), "")
	})
}
