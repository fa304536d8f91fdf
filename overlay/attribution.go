package overlay

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const DefaultAttribution = "© OpenStreetMap contributors"

var regularFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Attribution is the data source credit printed in the bottom-right corner.
type Attribution struct {
	Text string
	Size float64
}

func (a Attribution) Draw(img *image.RGBA) error {
	if a.Text == "" {
		return nil
	}
	size := a.Size
	if size <= 0 {
		size = 12
	}
	font, err := regularFont()
	if err != nil {
		return fmt.Errorf("loading attribution font: %w", err)
	}

	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: size}))
	w, h := dc.MeasureString(a.Text)
	pad := size / 2
	right := float64(img.Bounds().Dx())
	bottom := float64(img.Bounds().Dy())

	dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 180})
	dc.DrawRectangle(right-w-2*pad, bottom-h-2*pad, w+2*pad, h+2*pad)
	dc.Fill()
	dc.SetColor(color.RGBA{R: 40, G: 40, B: 40, A: 255})
	dc.DrawStringAnchored(a.Text, right-pad, bottom-pad, 1, 0)
	return nil
}
