// Package blob finds connected foreground regions ("blobs", candidate
// stars) in a thresholded image via the grass-fire flood-fill algorithm,
// consuming the image as it goes.
package blob

import (
	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// Blob is a connected set of foreground pixels: its pixel count, total
// intensity, and intensity-weighted centroid.
type Blob struct {
	Size      int
	Intensity uint32
	Centroid  units.Vector2
}

/*****************************************************************************************************************/

// SortDescendingIntensity orders blobs brightest first, for use with
// containers.List.Slot/Sort.
func SortDescendingIntensity(brightest, dullest Blob) bool {
	return dullest.Intensity < brightest.Intensity
}

/*****************************************************************************************************************/

// FindBlobs scans img in raster order, skipping minSize pixels between
// scan starts (alternate rows offset by minSize/2 so a skip never
// misses a diagonal pair of blobs straddling two rows), and for every
// foreground scan-start pixel not already consumed by an earlier blob,
// grows a blob via SpreadGrassFire. A grown blob is slotted into lst,
// ordered brightest first, only if it reaches minSize pixels; smaller
// blobs (commonly hot pixels) are discarded. stack is the
// caller-provided scratch space bounding an individual blob's size;
// img is consumed (set to 0) as blobs are found, including discarded
// undersized ones.
func FindBlobs(minSize int, threshold_ byte, img image.Image, stack *containers.List[units.Pixel], lst *containers.List[Blob]) {
	step := minSize
	if step < 1 {
		step = 1
	}
	rowOffset := step / 2

	for y := 0; y < img.Height(); y++ {
		start := 0
		if y%2 == 1 {
			start = rowOffset
		}
		for x := start; x < img.Width(); x += step {
			p := units.Pixel{X: x, Y: y}
			if threshold_ <= img.Get(p) {
				stack.Clear()
				b := SpreadGrassFire(threshold_, p, img, stack)
				if b.Size >= minSize {
					lst.Slot(b, SortDescendingIntensity)
				}
			}
		}
	}
}

/*****************************************************************************************************************/

// SpreadGrassFire grows a single blob outward from start using a
// stack-based flood fill: pop a pixel, if it's still lit fold it into
// the running centroid/intensity, zero it, and push its lit
// 4-connected neighbours. stack is reused across calls by the caller
// and should be cleared first.
func SpreadGrassFire(threshold_ byte, start units.Pixel, img image.Image, stack *containers.List[units.Pixel]) Blob {
	var b Blob
	stack.PushBack(start)

	for !stack.IsEmpty() {
		cur, err := stack.PopBack()
		if err != nil {
			break
		}
		if img.Get(cur) == 0 {
			continue // already consumed, reinserted before being visited.
		}

		findNeighbours(threshold_, cur, img, stack)

		intensity := uint32(img.Get(cur))
		b.Centroid.X = findCentroid(b.Centroid.X, b.Intensity, uint32(cur.X), intensity)
		b.Centroid.Y = findCentroid(b.Centroid.Y, b.Intensity, uint32(cur.Y), intensity)
		b.Intensity += intensity
		b.Size++

		img.Set(cur, 0)
	}

	return b
}

/*****************************************************************************************************************/

// findNeighbours pushes the 4-connected neighbours of pt that are in
// bounds and at or above threshold, in Right/Left/Up/Down order. It
// stops silently the moment stack is full, matching an embedded target
// with no room to grow its scratch buffer.
func findNeighbours(threshold_ byte, pt units.Pixel, img image.Image, stack *containers.List[units.Pixel]) {
	right := units.Pixel{X: pt.X + 1, Y: pt.Y}
	if image.ValidPixel(img, right) && threshold_ <= img.Get(right) {
		if stack.PushBack(right) != nil {
			return
		}
	}

	if 0 < pt.X {
		left := units.Pixel{X: pt.X - 1, Y: pt.Y}
		if image.ValidPixel(img, left) && threshold_ <= img.Get(left) {
			if stack.PushBack(left) != nil {
				return
			}
		}
	}

	if 0 < pt.Y {
		up := units.Pixel{X: pt.X, Y: pt.Y - 1}
		if image.ValidPixel(img, up) && threshold_ <= img.Get(up) {
			if stack.PushBack(up) != nil {
				return
			}
		}
	}

	down := units.Pixel{X: pt.X, Y: pt.Y + 1}
	if image.ValidPixel(img, down) && threshold_ <= img.Get(down) {
		if stack.PushBack(down) != nil {
			return
		}
	}
}

/*****************************************************************************************************************/

// findCentroid folds a new pixel into a running intensity-weighted mean
// on a single axis.
func findCentroid(blobPos float64, blobIntensity uint32, pixelPos, pixelIntensity uint32) float64 {
	return (blobPos*float64(blobIntensity) + float64(pixelPos)*float64(pixelIntensity)) / float64(blobIntensity+pixelIntensity)
}

/*****************************************************************************************************************/

// ToVector2 copies every blob's centroid into points, stopping early if
// points runs out of room.
func ToVector2(blobs *containers.List[Blob], points *containers.List[units.Vector2]) {
	for _, b := range blobs.Slice() {
		if points.PushBack(b.Centroid) != nil {
			return
		}
	}
}

/*****************************************************************************************************************/
