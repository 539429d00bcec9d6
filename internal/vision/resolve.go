package vision

import (
	"errors"
	"image"
	"math"
	"strings"
)

// ErrNoTarget reports that a detection contained no entry matching any of the
// requested label aliases. It is the expected steady state while a screen is
// still loading, not a failure.
var ErrNoTarget = errors.New("no matching target in detection")

// FindLabelCenter selects a single click point from a detection.
//
// Explicit centers are scanned first in response order, then boxes with the
// center derived as (x + w/2, y + h/2) using floor division. An entry matches
// when its label equals any alias case-insensitively. Explicit centers win
// because the model placed the point deliberately; a box centroid is only an
// approximation. Entries with missing or non-coercible coordinates are
// skipped, and resolution continues with the next candidate.
func FindLabelCenter(det Detection, aliases []string) (image.Point, error) {
	for _, c := range det.Centers {
		if !labelMatches(c.Label, aliases) {
			continue
		}
		if !c.CX.Valid || !c.CY.Valid {
			continue
		}
		return image.Pt(floorInt(c.CX.Value), floorInt(c.CY.Value)), nil
	}

	for _, b := range det.Boxes {
		if !labelMatches(b.Label, aliases) {
			continue
		}
		if len(b.XYWH) != 4 {
			continue
		}
		x, y, w, h := b.XYWH[0], b.XYWH[1], b.XYWH[2], b.XYWH[3]
		if !x.Valid || !y.Valid || !w.Valid || !h.Valid {
			continue
		}
		return image.Pt(
			floorInt(x.Value)+floorInt(w.Value)/2,
			floorInt(y.Value)+floorInt(h.Value)/2,
		), nil
	}

	return image.Point{}, ErrNoTarget
}

// labelMatches reports whether label equals any alias, case-insensitively.
// Detector vocabulary rarely matches caller vocabulary exactly ("start" vs
// "game start"), so callers pass the full alias set they accept.
func labelMatches(label string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.EqualFold(label, alias) {
			return true
		}
	}
	return false
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}
