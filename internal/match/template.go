// Package match locates a rigid reference image inside a screenshot using
// normalized cross-correlation on grayscale intensities.
//
// Matching is single-scale and rotation-unaware: the returned center is the
// centroid of the best-aligned template window, which is only meaningful for
// unscaled, unrotated templates cropped from the same render surface.
package match

import (
	"errors"
	"image"
	"log"
	"math"

	"github.com/disintegration/imaging"
)

// ErrNotFound reports that no window scored at or above the confidence
// threshold, or that the template could not be loaded. It is a normal return
// value during polling loops, not a failure.
var ErrNotFound = errors.New("template not found")

// matchThreshold is the minimum normalized cross-correlation score for a
// positive match.
const matchThreshold = 0.8

// Result holds the best template match.
type Result struct {
	// Center is the centroid of the matched window in screenshot pixels.
	Center image.Point
	// Score is the normalized cross-correlation score in [-1, 1].
	Score float64
}

// FindButtonCoordinates finds the center of a button in a screenshot by
// matching the template image at templatePath. Any load or decode error is
// absorbed and reported as ErrNotFound; nothing escapes this boundary.
func FindButtonCoordinates(screenshot image.Image, templatePath string) (image.Point, error) {
	res, err := LocateFile(screenshot, templatePath)
	if err != nil {
		return image.Point{}, err
	}
	return res.Center, nil
}

// LocateFile is FindButtonCoordinates with the full Result, for callers that
// want the confidence score.
func LocateFile(screenshot image.Image, templatePath string) (Result, error) {
	if screenshot == nil {
		log.Printf("[Match] nil screenshot")
		return Result{}, ErrNotFound
	}

	tmpl, err := imaging.Open(templatePath)
	if err != nil {
		log.Printf("[Match] failed to load template %s: %v", templatePath, err)
		return Result{}, ErrNotFound
	}

	return Locate(screenshot, tmpl)
}

// Locate runs normalized cross-correlation of tmpl against screenshot at every
// valid offset and returns the global best window. It returns ErrNotFound when
// the best score is below the threshold or the images cannot be compared.
func Locate(screenshot, tmpl image.Image) (Result, error) {
	frame := newGrayPlane(screenshot)
	pat := newGrayPlane(tmpl)

	if pat.w == 0 || pat.h == 0 || frame.w < pat.w || frame.h < pat.h {
		log.Printf("[Match] template %dx%d does not fit screenshot %dx%d", pat.w, pat.h, frame.w, frame.h)
		return Result{}, ErrNotFound
	}

	n := float64(pat.w * pat.h)
	meanT, stdT := pat.stats()
	if stdT <= 1e-9 {
		// A flat template carries no signal; correlation is undefined.
		log.Printf("[Match] template has zero variance, cannot match")
		return Result{}, ErrNotFound
	}

	integral, integralSq := frame.integrals()

	bestX, bestY, bestScore := 0, 0, -1.0
	for y := 0; y <= frame.h-pat.h; y++ {
		for x := 0; x <= frame.w-pat.w; x++ {
			sumF := windowSum(integral, frame.w, x, y, x+pat.w-1, y+pat.h-1)
			sumF2 := windowSum(integralSq, frame.w, x, y, x+pat.w-1, y+pat.h-1)
			meanF := sumF / n
			varF := (sumF2 - sumF*sumF/n) / n
			if varF <= 1e-9 {
				continue
			}
			stdF := math.Sqrt(varF)

			var sumFT float64
			for py := 0; py < pat.h; py++ {
				fRow := frame.gray[(y+py)*frame.w+x:]
				tRow := pat.gray[py*pat.w:]
				for px := 0; px < pat.w; px++ {
					sumFT += fRow[px] * tRow[px]
				}
			}

			score := (sumFT - n*meanF*meanT) / (n * stdF * stdT)
			if score > bestScore {
				bestScore, bestX, bestY = score, x, y
			}
		}
	}

	if bestScore < matchThreshold {
		log.Printf("[Match] best confidence %.2f below threshold %.2f", bestScore, matchThreshold)
		return Result{}, ErrNotFound
	}

	log.Printf("[Match] match at (%d, %d) with confidence %.2f", bestX, bestY, bestScore)
	return Result{
		// Floor-division halves, matching the calibration of existing
		// template assets.
		Center: image.Pt(bestX+pat.w/2, bestY+pat.h/2),
		Score:  bestScore,
	}, nil
}

// grayPlane is a row-major single-channel intensity buffer.
type grayPlane struct {
	gray []float64
	w, h int
}

// newGrayPlane converts an image to single-channel intensity.
func newGrayPlane(img image.Image) grayPlane {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	p := grayPlane{gray: make([]float64, w*h), w: w, h: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// After Grayscale the channels are equal; any one carries
			// the intensity.
			p.gray[y*w+x] = float64(g.NRGBAAt(b.Min.X+x, b.Min.Y+y).R)
		}
	}
	return p
}

func (p grayPlane) stats() (mean, std float64) {
	var sum, sum2 float64
	for _, v := range p.gray {
		sum += v
		sum2 += v * v
	}
	n := float64(len(p.gray))
	mean = sum / n
	variance := (sum2 - sum*sum/n) / n
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	return mean, std
}

// integrals builds summed-area tables of intensity and squared intensity,
// giving O(1) window sum and variance queries during the scan.
func (p grayPlane) integrals() (integral, integralSq []float64) {
	integral = make([]float64, p.w*p.h)
	integralSq = make([]float64, p.w*p.h)
	for y := 0; y < p.h; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < p.w; x++ {
			off := y*p.w + x
			v := p.gray[off]
			rowSum += v
			rowSum2 += v * v
			if y == 0 {
				integral[off] = rowSum
				integralSq[off] = rowSum2
			} else {
				integral[off] = integral[off-p.w] + rowSum
				integralSq[off] = integralSq[off-p.w] + rowSum2
			}
		}
	}
	return integral, integralSq
}

// windowSum returns the inclusive sum over [x0..x1] x [y0..y1] from an
// integral image stored row-major with width w.
func windowSum(integral []float64, w, x0, y0, x1, y1 int) float64 {
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return integral[y*w+x]
	}
	return at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
}
