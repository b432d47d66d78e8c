package printer

import (
	"bytes"
	"image"
)

// ESC/POS commands
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// Code pages selectable with ESC t n
const (
	CodePagePC437 byte = 0
	CodePagePC850 byte = 2
)

// ESCPOSEncoder builds ESC/POS command streams
type ESCPOSEncoder struct {
	buffer *bytes.Buffer
}

// NewESCPOSEncoder creates a new ESC/POS encoder
func NewESCPOSEncoder() *ESCPOSEncoder {
	return &ESCPOSEncoder{
		buffer: new(bytes.Buffer),
	}
}

// Initialize resets the printer (ESC @)
func (e *ESCPOSEncoder) Initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// SetCodePage selects the character table used for bytes above 0x7F
func (e *ESCPOSEncoder) SetCodePage(page byte) {
	e.buffer.Write([]byte{ESC, 't', page})
}

// PrintImage writes img as a GS v 0 raster bit image
func (e *ESCPOSEncoder) PrintImage(img image.Image) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	bytesPerLine := (width + 7) / 8

	e.buffer.Write([]byte{
		GS, 'v', '0', 0,
		byte(bytesPerLine & 0xFF), byte((bytesPerLine >> 8) & 0xFF),
		byte(height & 0xFF), byte((height >> 8) & 0xFF),
	})
	e.buffer.Write(imageToBitmap(img))
}

// Cut feeds to the cutter and performs a partial cut (GS V A 3)
func (e *ESCPOSEncoder) Cut() {
	e.buffer.Write([]byte{GS, 'V', 'A', 3})
}

// LineFeed sends line feed
func (e *ESCPOSEncoder) LineFeed() {
	e.buffer.WriteByte(LF)
}

// Feed sends multiple line feeds
func (e *ESCPOSEncoder) Feed(lines int) {
	for i := 0; i < lines; i++ {
		e.LineFeed()
	}
}

// Write appends already-encoded bytes
func (e *ESCPOSEncoder) Write(data []byte) {
	e.buffer.Write(data)
}

// WriteText encodes text for the printer code page and appends it
func (e *ESCPOSEncoder) WriteText(text string) {
	e.buffer.Write(EncodeText(text))
}

// GetBytes returns the generated ESC/POS commands
func (e *ESCPOSEncoder) GetBytes() []byte {
	return e.buffer.Bytes()
}

// Reset clears the buffer
func (e *ESCPOSEncoder) Reset() {
	e.buffer.Reset()
}

// imageToBitmap converts an image to a 1-bit bitmap, MSB first
func imageToBitmap(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerLine := (width + 7) / 8
	bitmap := make([]byte, bytesPerLine*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// Threshold at 50% (32768 out of 65535)
			if (r+g+b)/3 < 32768 {
				bitmap[y*bytesPerLine+x/8] |= 1 << (7 - uint(x%8))
			}
		}
	}

	return bitmap
}

// EncodeImageToESCPOS wraps a rendered receipt image in a complete print job
func EncodeImageToESCPOS(img image.Image) []byte {
	encoder := NewESCPOSEncoder()
	encoder.Initialize()
	encoder.PrintImage(img)
	encoder.Feed(3)
	encoder.Cut()
	return encoder.GetBytes()
}

// EncodeReceipt converts rendered receipt text into printer bytes. The code
// page is selected right after the leading ESC @ so the reset cannot clear it.
func EncodeReceipt(text string) []byte {
	data := EncodeText(text)

	encoder := NewESCPOSEncoder()
	reset := []byte{ESC, '@'}
	if bytes.HasPrefix(data, reset) {
		encoder.Initialize()
		data = data[len(reset):]
	}
	encoder.SetCodePage(CodePagePC437)
	encoder.Write(data)
	return encoder.GetBytes()
}
