package preview

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// drawLogo fits the logo to the paper width and thresholds it to black and white
func (r *Renderer) drawLogo(logo image.Image) {
	img := logo
	if img.Bounds().Dx() > r.canvas.width {
		img = imaging.Resize(img, r.canvas.width, 0, imaging.Lanczos)
	}

	bw := convertToBlackWhite(img, 128)
	r.canvas.drawImage(bw, (r.canvas.width-bw.Bounds().Dx())/2)
	r.canvas.y += 10
}

func convertToBlackWhite(img image.Image, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	bw := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()

			// transparent pixels print as paper
			gray := uint8(255)
			if a > 0 {
				gray = uint8((r + g + b) / 3 / 256)
			}

			v := uint8(255)
			if gray < threshold {
				v = 0
			}
			bw.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: v})
		}
	}

	return bw
}
