// Package vision prepares slip photographs for OCR: grayscale,
// upscale, denoise, binarize, and fingerprint.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	// scaleFactor upscales the photo before OCR; small slip text needs it.
	scaleFactor = 3
	// adaptiveWindow is the side of the local threshold neighborhood.
	adaptiveWindow = 31
	// adaptiveOffset is subtracted from the local mean before comparing.
	adaptiveOffset = 5
)

// Decode parses raw attachment bytes into an image. Callers treat a
// failure here as "skip this image", never as a run failure.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("undecodable image: %w", err)
	}
	return img, nil
}

// Normalize converts src into the single-channel, upscaled, denoised,
// binarized form the OCR stage expects. Binarization prefers a local
// Gaussian-weighted threshold; when the image is too small for the
// window it falls back to a global Otsu threshold.
func Normalize(src image.Image) *image.Gray {
	gray := imaging.Grayscale(src)
	b := gray.Bounds()
	up := imaging.Resize(gray, b.Dx()*scaleFactor, b.Dy()*scaleFactor, imaging.CatmullRom)

	g := toGray(up)
	g = medianFilter3(g)

	if bin, err := adaptiveThreshold(g, adaptiveWindow, adaptiveOffset); err == nil {
		return bin
	}
	return otsuThreshold(g)
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return g
}

// medianFilter3 applies a 3x3 median filter, clamping at the borders.
// Removes the salt-and-pepper speckle the cubic upscale amplifies.
func medianFilter3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	var window [9]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx := clamp(x+dx, 0, w-1)
					sy := clamp(y+dy, 0, h-1)
					window[n] = int(src.GrayAt(sx, sy).Y)
					n++
				}
			}
			vals := window[:]
			sort.Ints(vals)
			dst.SetGray(x, y, grayVal(uint8(vals[4])))
		}
	}
	return dst
}

// adaptiveThreshold binarizes with a per-pixel threshold equal to the
// Gaussian-weighted mean of the surrounding window minus offset. The
// Gaussian is applied separably for speed.
func adaptiveThreshold(src *image.Gray, window, offset int) (*image.Gray, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < window || h < window {
		return nil, fmt.Errorf("image %dx%d smaller than threshold window %d", w, h, window)
	}

	kernel := gaussianKernel(window)
	half := window / 2

	// Horizontal pass.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sx := clamp(x+k, 0, w-1)
				sum += kernel[k+half] * float64(src.GrayAt(sx, y).Y)
			}
			tmp[y*w+x] = sum
		}
	}

	// Vertical pass and comparison.
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k := -half; k <= half; k++ {
				sy := clamp(y+k, 0, h-1)
				mean += kernel[k+half] * tmp[sy*w+x]
			}
			if float64(src.GrayAt(x, y).Y) > mean-float64(offset) {
				dst.SetGray(x, y, grayVal(255))
			} else {
				dst.SetGray(x, y, grayVal(0))
			}
		}
	}
	return dst, nil
}

// gaussianKernel builds a normalized 1D kernel sized to the window,
// with sigma chosen the way OpenCV derives it from a kernel size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// otsuThreshold binarizes with a single global threshold chosen by
// maximizing the between-class variance of the histogram.
func otsuThreshold(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	total := w * h
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumBack, weightBack float64
	var bestVar float64
	threshold := 0
	for t := 0; t < 256; t++ {
		weightBack += float64(hist[t])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])
		meanBack := sumBack / weightBack
		meanFore := (sumAll - sumBack) / weightFore
		diff := meanBack - meanFore
		betweenVar := weightBack * weightFore * diff * diff
		if betweenVar > bestVar {
			bestVar = betweenVar
			threshold = t
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if int(src.GrayAt(x, y).Y) > threshold {
				dst.SetGray(x, y, grayVal(255))
			} else {
				dst.SetGray(x, y, grayVal(0))
			}
		}
	}
	return dst
}

func grayVal(v uint8) color.Gray {
	return color.Gray{Y: v}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
