package preview

import (
	"fmt"
	"log"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/skip2/go-qrcode"
)

const (
	barcodeHeight = 80
	codeMargin    = 20
)

func (r *Renderer) drawBarcode(value string) error {
	code, err := code128.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode barcode %q: %w", value, err)
	}

	// Scale only by whole module widths so bars stay crisp
	modules := code.Bounds().Dx()
	maxWidth := r.canvas.width - 2*codeMargin
	if modules > maxWidth {
		log.Printf("⚠️  barcode %q does not fit %d columns, skipped", value, r.columns)
		return nil
	}
	scaled, err := barcode.Scale(code, modules*(maxWidth/modules), barcodeHeight)
	if err != nil {
		return fmt.Errorf("failed to scale barcode: %w", err)
	}

	r.canvas.y += 10
	r.canvas.drawImage(scaled, (r.canvas.width-scaled.Bounds().Dx())/2)
	return nil
}

func (r *Renderer) drawQRCode(value string) error {
	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}

	qrSize := r.canvas.width - 100
	if qrSize > 400 {
		qrSize = 400
	}
	img := qr.Image(qrSize)

	r.canvas.y += 10
	r.canvas.drawImage(img, (r.canvas.width-img.Bounds().Dx())/2)
	return nil
}
