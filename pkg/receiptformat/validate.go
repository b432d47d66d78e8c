package receiptformat

import (
	"fmt"
)

// Validate checks the shape of a document received from a client.
// The renderer never calls this; it prints whatever it is given.
func Validate(d *Document) error {
	if d.PaperWidth != 0 && d.PaperWidth != NarrowPaper && d.PaperWidth != WidePaper {
		return fmt.Errorf("invalid paper_width: %d (must be %d or %d)", d.PaperWidth, NarrowPaper, WidePaper)
	}

	if d.PaymentMethod != "" {
		valid := false
		for _, m := range PaymentMethods {
			if d.PaymentMethod == m {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid payment_method: %s", d.PaymentMethod)
		}
	}

	for i, item := range d.Items {
		if err := validateItem(&item); err != nil {
			return fmt.Errorf("item[%d]: %w", i, err)
		}
	}

	for i, row := range d.Sales {
		if row.Name == "" {
			return fmt.Errorf("sales[%d]: 'name' is required", i)
		}
	}

	return nil
}

func validateItem(item *Item) error {
	if item.Name == "" {
		return fmt.Errorf("'name' is required")
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", item.Quantity)
	}
	if item.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative, got %d", item.UnitPrice)
	}
	return nil
}
