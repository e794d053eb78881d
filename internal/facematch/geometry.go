package facematch

import "image"

// ScaleRect maps a detection found on a downsampled frame back onto the original frame.
// A factor below 1 is treated as 1.
func ScaleRect(r image.Rectangle, factor int) image.Rectangle {
	if factor < 1 {
		factor = 1
	}
	return image.Rect(r.Min.X*factor, r.Min.Y*factor, r.Max.X*factor, r.Max.Y*factor)
}

// ClampRect limits r to bounds. Returns the empty rectangle when they do not overlap.
func ClampRect(r, bounds image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(bounds)
}

// LabelOrigin returns the baseline position for a label drawn above the box.
// The label is kept inside the frame: when there is no room above the box
// it is placed just below the top edge instead.
func LabelOrigin(box image.Rectangle, textHeight int) image.Point {
	const gap = 10
	y := box.Min.Y - gap
	if y < textHeight {
		y = box.Min.Y + textHeight + gap/2
	}
	return image.Pt(box.Min.X, y)
}

// DownsampledSize returns the dimensions of a frame shrunk by factor, never smaller than 1x1.
func DownsampledSize(width, height, factor int) (int, int) {
	if factor < 1 {
		factor = 1
	}
	return max(width/factor, 1), max(height/factor, 1)
}
