// Package preview draws rendered receipt text as a bitmap, for browser
// previews and for printers that only accept raster images
package preview

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
	"golang.org/x/image/font"
)

// Options adds graphics around the receipt text
type Options struct {
	Logo    image.Image // drawn above the text
	Barcode string      // Code 128 value drawn below the text, usually the order id
	QR      string      // QR payload drawn below the barcode
}

// Renderer composes one receipt image at the printer's dot width
type Renderer struct {
	columns int
	canvas  *canvas
}

// New creates a renderer for paper with the given column count
func New(columns int) *Renderer {
	columns = receiptformat.Columns(columns)
	return &Renderer{
		columns: columns,
		canvas:  newCanvas(PaperPixels(columns), 1000),
	}
}

// Render draws text (renderer output, control codes included) and the
// optional graphics. A renderer is single-use.
func (r *Renderer) Render(text string, opts Options) (image.Image, error) {
	if opts.Logo != nil {
		r.drawLogo(opts.Logo)
	}

	block := textBlock(splitLines(text), r.columns)
	scaled := imaging.Resize(block, r.canvas.width, 0, imaging.NearestNeighbor)
	r.canvas.drawImage(convertToBlackWhite(scaled, 128), 0)

	if opts.Barcode != "" {
		if err := r.drawBarcode(opts.Barcode); err != nil {
			return nil, err
		}
	}
	if opts.QR != "" {
		if err := r.drawQRCode(opts.QR); err != nil {
			return nil, err
		}
	}

	return r.canvas.cropToContent(), nil
}

// Render is a shortcut for New(columns).Render(text, opts)
func Render(text string, columns int, opts Options) (image.Image, error) {
	return New(columns).Render(text, opts)
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// PaperPixels is the printable dot width for a column count (203 dpi heads)
func PaperPixels(columns int) int {
	if receiptformat.Columns(columns) == receiptformat.NarrowPaper {
		return 384 // 58mm
	}
	return 576 // 80mm
}

// canvas is a white drawing surface that grows downwards
type canvas struct {
	width  int
	height int
	ctx    *gg.Context
	face   font.Face
	y      float64
}

func newCanvas(width, height int) *canvas {
	ctx := gg.NewContext(width, height)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)

	return &canvas{width: width, height: height, ctx: ctx}
}

// drawImage places img at x below the current position
func (c *canvas) drawImage(img image.Image, x int) {
	h := img.Bounds().Dy()
	c.ensureHeight(h)
	c.ctx.DrawImage(img, x, int(c.y))
	c.y += float64(h)
}

func (c *canvas) setFontFace(face font.Face) {
	c.face = face
	c.ctx.SetFontFace(face)
}

func (c *canvas) ensureHeight(neededHeight int) {
	if int(c.y)+neededHeight <= c.height {
		return
	}

	newHeight := c.height * 2
	if newHeight < int(c.y)+neededHeight {
		newHeight = int(c.y) + neededHeight + 1000
	}

	newCtx := gg.NewContext(c.width, newHeight)
	newCtx.SetColor(color.White)
	newCtx.Clear()
	newCtx.DrawImage(c.ctx.Image(), 0, 0)
	newCtx.SetColor(color.Black)
	if c.face != nil {
		newCtx.SetFontFace(c.face)
	}

	c.ctx = newCtx
	c.height = newHeight
}

func (c *canvas) cropToContent() image.Image {
	finalHeight := int(c.y) + 20
	if finalHeight > c.height {
		finalHeight = c.height
	}

	return c.ctx.Image().(interface {
		SubImage(r image.Rectangle) image.Image
	}).SubImage(image.Rect(0, 0, c.width, finalHeight))
}
