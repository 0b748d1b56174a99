package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocess prepares a screenshot for recognition: upscale small captures,
// grayscale, smooth, boost contrast, adaptive threshold and close small gaps in
// the glyph strokes.
func Preprocess(img image.Image, minWidth int) *image.NRGBA {
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	out := imaging.Clone(img)
	if out.Bounds().Dx() < minWidth {
		out = imaging.Resize(out, minWidth, 0, imaging.Lanczos)
	}
	out = imaging.Grayscale(out)
	out = imaging.Blur(out, 0.6)
	out = imaging.AdjustContrast(out, 20)
	out = adaptiveThreshold(out, 15, 8)
	return erode(dilate(out, 1), 1)
}

// PreprocessAggressive is used when a normal pass produced an implausible
// result: sharper edges, stronger contrast and a global threshold.
func PreprocessAggressive(img image.Image, minWidth int) *image.NRGBA {
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}
	out := imaging.Clone(img)
	if out.Bounds().Dx() < minWidth*3/2 {
		out = imaging.Resize(out, minWidth*3/2, 0, imaging.Lanczos)
	}
	out = imaging.Grayscale(out)
	out = imaging.AdjustContrast(out, 35)
	out = imaging.Sharpen(out, 1.0)
	return dilate(binarize(out, 170), 1)
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8 = 255
			if luma(img.At(x, y)) <= int(threshold) {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// adaptiveThreshold performs a mean adaptive threshold using an integral image.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += luma(img.At(b.Min.X+x, b.Min.Y+y))
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return ints[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-half, 0), max(y-half, 0)
			x1, y1 := min(x+half, w-1), min(y+half, h-1)
			sum := at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			th := max(mean-bias, 0)
			if luma(img.At(b.Min.X+x, b.Min.Y+y)) < th {
				out.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return out
}

var neighbours = [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// dilate grows black regions by a 4-neighbourhood radius times.
func dilate(img *image.NRGBA, radius int) *image.NRGBA {
	return morph(img, radius, true)
}

// erode shrinks black regions by a 4-neighbourhood radius times.
func erode(img *image.NRGBA, radius int) *image.NRGBA {
	return morph(img, radius, false)
}

func morph(img *image.NRGBA, radius int, grow bool) *image.NRGBA {
	if radius <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cur := img
	for r := 0; r < radius; r++ {
		next := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if blackAfter(cur, x, y, w, h, grow) {
					next.Set(x, y, color.NRGBA{0, 0, 0, 255})
				}
			}
		}
		cur = next
	}
	return cur
}

// blackAfter reports whether (x,y) is black after one step. Growing needs any
// black neighbour, shrinking needs every in-bounds neighbour black.
func blackAfter(img *image.NRGBA, x, y, w, h int, grow bool) bool {
	for _, d := range neighbours {
		x2, y2 := x+d[0], y+d[1]
		if x2 < 0 || y2 < 0 || x2 >= w || y2 >= h {
			continue
		}
		black := img.NRGBAAt(x2, y2).R == 0
		if grow && black {
			return true
		}
		if !grow && !black {
			return false
		}
	}
	return !grow
}

func luma(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int((r + g + b) / 3 >> 8)
}
