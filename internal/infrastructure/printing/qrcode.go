package printing

import (
	"fmt"
	"image"
	"image/color"

	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// qrPixelsPerMM is the raster density of generated QR codes
const qrPixelsPerMM = 12

// qrImage encodes data as a QR code of sizeMM millimeters drawn in fg on white
func qrImage(data string, sizeMM float64, fg layout.RGB) (*imageData, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	px := int(sizeMM * qrPixelsPerMM)
	if px < code.Bounds().Dx() {
		px = code.Bounds().Dx()
	}
	scaled, err := barcode.Scale(code, px, px)
	if err != nil {
		return nil, fmt.Errorf("failed to scale QR code: %w", err)
	}

	ink := color.NRGBA{R: uint8(fg.R), G: uint8(fg.G), B: uint8(fg.B), A: 0xFF}
	out := image.NewNRGBA(scaled.Bounds())
	b := scaled.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := scaled.At(x, y).RGBA(); r < 0x8000 {
				out.SetNRGBA(x, y, ink)
			} else {
				out.SetNRGBA(x, y, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
			}
		}
	}

	encoded, err := encodeNRGBA(out)
	if err != nil {
		return nil, err
	}
	return &imageData{Data: encoded, Type: "PNG", Width: b.Dx(), Height: b.Dy()}, nil
}
