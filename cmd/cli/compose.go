package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// composeDocument builds an order document from command-line arguments.
// Each "item:<name>" starts a new line item; qty, price, variant and note
// apply to the item before them. Every other key sets an order field:
//
//	item:"Kopi Hitam" qty:3 price:5000 item:"Nasi Goreng" price:25000 pay:cash paid:50000
//
// Subtotal and total are computed from the items unless given explicitly.
func composeDocument(args []string, now time.Time) (*receiptformat.Document, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no compose arguments provided")
	}

	doc := &receiptformat.Document{Timestamp: now}
	var item *receiptformat.Item
	var subtotalSet, totalSet bool

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("argument must be in format 'name:value', got: %s", arg)
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case "item":
			doc.Items = append(doc.Items, receiptformat.Item{Name: value, Quantity: 1})
			item = &doc.Items[len(doc.Items)-1]
			continue
		case "qty", "price", "variant", "note":
			if item == nil {
				return nil, fmt.Errorf("%s given before any item", key)
			}
			if err := setItemField(item, key, value); err != nil {
				return nil, err
			}
			continue
		}

		var err error
		switch key {
		case "order":
			doc.OrderID = value
		case "cashier":
			doc.CashierName = value
		case "customer":
			doc.CustomerName = value
		case "pay":
			doc.PaymentMethod = receiptformat.PaymentMethod(strings.ToLower(value))
		case "promo":
			doc.PromotionCode = value
		case "paid":
			doc.AmountPaid, err = parseAmount(key, value)
		case "discount":
			doc.Discount, err = parseAmount(key, value)
		case "tax":
			doc.Tax, err = parseAmount(key, value)
		case "subtotal":
			doc.Subtotal, err = parseAmount(key, value)
			subtotalSet = true
		case "total":
			doc.Total, err = parseAmount(key, value)
			totalSet = true
		case "width":
			doc.PaperWidth, err = strconv.Atoi(value)
		case "points":
			doc.PointsEarned, err = strconv.Atoi(value)
		default:
			return nil, fmt.Errorf("unknown compose key: %s", key)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", key, value)
		}
	}

	if doc.OrderID == "" {
		doc.OrderID = "CLI-" + now.Format("20060102-150405")
	}
	if !subtotalSet {
		for _, it := range doc.Items {
			doc.Subtotal += it.LineTotal()
		}
	}
	if !totalSet {
		doc.Total = doc.Subtotal - doc.Discount + doc.Tax
	}

	if err := receiptformat.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func setItemField(item *receiptformat.Item, key, value string) error {
	switch key {
	case "qty":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid qty: %s", value)
		}
		item.Quantity = n
	case "price":
		n, err := parseAmount(key, value)
		if err != nil {
			return err
		}
		item.UnitPrice = n
	case "variant":
		item.Variant = value
	case "note":
		item.Note = value
	}
	return nil
}

// parseAmount accepts plain rupiah with optional thousands dots, e.g. 25.000
func parseAmount(key, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(value, ".", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, value)
	}
	return n, nil
}
