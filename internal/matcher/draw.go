package matcher

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
)

// Annotation style.
const (
	boxLineWidth  = 2
	labelFontSize = 18
)

var boxColor = color.RGBA{G: 255, A: 255}

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Downsample shrinks img by factor with bilinear interpolation.
// A factor of 1 or less returns img unchanged.
func Downsample(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := facematch.DownsampledSize(b.Dx(), b.Dy(), factor)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Annotate draws a box and name label for every detection onto a copy of frame.
func Annotate(frame image.Image, detections []Detection) image.Image {
	if len(detections) == 0 {
		return frame
	}

	dc := gg.NewContextForImage(frame)
	bounds := image.Rect(0, 0, dc.Width(), dc.Height())
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: labelFontSize}))

	for _, d := range detections {
		box := facematch.ClampRect(d.Box.Sub(frame.Bounds().Min), bounds)
		if box.Empty() {
			continue
		}
		dc.SetColor(boxColor)
		dc.SetLineWidth(boxLineWidth)
		dc.DrawRectangle(float64(box.Min.X), float64(box.Min.Y), float64(box.Dx()), float64(box.Dy()))
		dc.Stroke()

		origin := facematch.LabelOrigin(box, labelFontSize)
		dc.DrawString(d.Name, float64(origin.X), float64(origin.Y))
	}

	return dc.Image()
}
