package renderer

import (
	"fmt"
	"strconv"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// MaxReportProducts caps the product listing; the summary still counts every product
const MaxReportProducts = 50

const reportIndent = "   "

func reportHeader(w *writer, doc *receiptformat.Document, profile receiptformat.StoreProfile) {
	w.centered(func() {
		w.boldWrapped("LAPORAN PENJUALAN PRODUK", "")
		if title := profile.Title(); title != "" {
			w.wrapped(title, "")
		}
	})
	w.rule('=')
	if doc.Period != "" {
		w.prefixed("Periode: ", doc.Period)
	}
}

func reportProducts(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	rows := doc.ProductSales()

	w.rule('-')
	w.centered(func() {
		w.line("PRODUK TERJUAL")
	})
	w.rule('-')

	if len(rows) == 0 {
		w.line("Tidak ada penjualan")
		return
	}

	for i, row := range rows {
		if i == MaxReportProducts {
			w.line(fmt.Sprintf("... %d produk lainnya", len(rows)-MaxReportProducts))
			break
		}
		w.prefixed(fmt.Sprintf("%d. ", i+1), row.Name)
		qty := fmt.Sprintf("%s%d x %s", reportIndent, row.Quantity, FormatCurrency(row.UnitPrice()))
		w.pad(qty, FormatCurrency(row.Revenue))
	}
}

func reportSummary(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	rows := doc.ProductSales()

	var items int
	var revenue int64
	for _, row := range rows {
		items += row.Quantity
		revenue += row.Revenue
	}

	w.rule('=')
	w.centered(func() {
		w.boldWrapped("RINGKASAN", "")
	})
	w.rule('-')
	w.pad("Jenis Produk", strconv.Itoa(len(rows)))
	w.pad("Total Item", fmt.Sprintf("%d pcs", items))
	if doc.Transactions > 0 {
		w.pad("Transaksi", strconv.Itoa(doc.Transactions))
	}

	if len(doc.Payments) > 0 {
		w.rule('-')
		w.line("METODE PEMBAYARAN")
		for _, p := range doc.Payments {
			w.pad(fmt.Sprintf("%s (%dx)", p.Method.Label(), p.Count), FormatCurrency(p.Amount))
		}
	}

	if doc.Discount > 0 {
		w.rule('-')
		w.pad("Diskon Promo", "-"+FormatCurrency(doc.Discount))
		if doc.PromoTransactions > 0 && doc.Transactions > 0 {
			w.pad("Trx dgn Promo", fmt.Sprintf("%d/%d", doc.PromoTransactions, doc.Transactions))
		}
	}

	w.rule('=')
	w.boldPad("TOTAL PENJUALAN", FormatCurrency(revenue))
	w.rule('=')
}

func reportFooter(w *writer, doc *receiptformat.Document, _ receiptformat.StoreProfile) {
	w.centered(func() {
		if ts := formatTimestamp(doc); ts != "" {
			w.wrapped("Dicetak: "+ts, "")
		}
		if doc.CashierName != "" {
			w.wrapped("Oleh: "+doc.CashierName, "")
		}
	})
}
