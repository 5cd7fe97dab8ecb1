// Package threshold classifies pixels as foreground (star) or background
// (space), either globally from an intensity-percentile cutoff
// (Percent) or locally from a grid of per-region means
// (Grid, Nilback/Sauvola-style).
package threshold

import (
	"math"

	"github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// Threshold decides, per pixel, the minimum intensity considered
// foreground.
type Threshold interface {
	Foreground(p units.Pixel) byte
}

/*****************************************************************************************************************/

// Apply zeroes every pixel below its threshold, leaving foreground pixels
// untouched. Intended for visualisation, not required for blob detection.
func Apply(t Threshold, img image.Image) {
	for x := 0; x < img.Width(); x++ {
		for y := 0; y < img.Height(); y++ {
			p := units.Pixel{X: x, Y: y}
			if img.Get(p) < t.Foreground(p) {
				img.Set(p, 0)
			}
		}
	}
}

/*****************************************************************************************************************/

// ApplyBin binarises img in place: background to 0, foreground to 255.
func ApplyBin(t Threshold, img image.Image) {
	for x := 0; x < img.Width(); x++ {
		for y := 0; y < img.Height(); y++ {
			p := units.Pixel{X: x, Y: y}
			if img.Get(p) < t.Foreground(p) {
				img.Set(p, 0)
			} else {
				img.Set(p, 255)
			}
		}
	}
}

/*****************************************************************************************************************/

// Percent is a single global threshold: the brightness below which a
// chosen percentage of the darkest pixels fall.
type Percent struct {
	threshold byte
}

/*****************************************************************************************************************/

// NewPercent builds a Percent threshold from img's histogram such that
// percent of all pixels fall below the returned cutoff.
func NewPercent(img image.Image, percent float64) (Percent, error) {
	hist := make([]uint32, 256)
	if err := image.Histogram(img, hist); err != nil {
		return Percent{}, err
	}
	return Percent{threshold: computeThreshold(img, percent, hist)}, nil
}

/*****************************************************************************************************************/

// computeThreshold reproduces the original cumulative-histogram scan,
// including its apparent rescale of the bin index back into a Byte range
// by histogram length rather than 256 — when len(histogram) != 256 this
// can push the returned value outside what was actually observed, which
// the original never corrects.
func computeThreshold(img image.Image, percent float64, histogram []uint32) byte {
	cutoff := uint32(math.Ceil(percent * float64(img.Width()*img.Height())))

	var count uint32
	var i int
	for count < cutoff && i < len(histogram) {
		count += histogram[i]
		i++
	}
	scaled := math.Ceil(float64(i) * 255 / float64(len(histogram)))
	if scaled > 255 {
		scaled = 255
	}
	if scaled < 0 {
		scaled = 0
	}
	return byte(scaled)
}

/*****************************************************************************************************************/

// Foreground returns the single global threshold for every pixel.
func (p Percent) Foreground(_ units.Pixel) byte {
	return p.threshold
}

/*****************************************************************************************************************/

// Grid divides the image into a NumH x NumV grid and sets each cell's
// threshold to its local mean intensity plus a fixed overshoot.
type Grid struct {
	size  units.Pixel
	cells [][]byte // [row][col], row count NumV, col count NumH
	numH  int
	numV  int
}

/*****************************************************************************************************************/

// NewGrid computes per-cell means over img, sampling every (skip+1)th
// pixel in each axis, and adds overshoot (saturating at 255) to obtain
// each cell's foreground threshold.
func NewGrid(img image.Image, numH, numV int, overshoot byte, skip int) *Grid {
	cells := make([][]byte, numV)
	for i := range cells {
		cells[i] = make([]byte, numH)
	}

	for col := 0; col < numH; col++ {
		for row := 0; row < numV; row++ {
			startX := col * img.Width() / numH
			startY := row * img.Height() / numV
			endX := int(math.Round(float64((col+1)*img.Width()) / float64(numH)))
			endY := int(math.Round(float64((row+1)*img.Height()) / float64(numV)))

			var cellVal, count float64
			for x := startX; x < endX; x += skip + 1 {
				for y := startY; y < endY; y += skip + 1 {
					count++
					cellVal += float64(img.Get(units.Pixel{X: x, Y: y}))
				}
			}

			mean := byte(math.Round(cellVal / count))
			cells[row][col] = saturatingAdd(mean, overshoot)
		}
	}

	return &Grid{size: units.Pixel{X: img.Width(), Y: img.Height()}, cells: cells, numH: numH, numV: numV}
}

/*****************************************************************************************************************/

func saturatingAdd(a, b byte) byte {
	sum := int(a) + int(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

/*****************************************************************************************************************/

func (g *Grid) cellFor(p units.Pixel) units.Pixel {
	return units.Pixel{X: p.X * g.numH / g.size.X, Y: p.Y * g.numV / g.size.Y}
}

/*****************************************************************************************************************/

// CellValue returns the threshold assigned to the grid cell covering the
// given pixel, used directly by tests and by Foreground.
func (g *Grid) CellValue(p units.Pixel) byte {
	cell := g.cellFor(p)
	return g.cells[cell.Y][cell.X]
}

/*****************************************************************************************************************/

// Foreground returns the threshold of the grid cell covering p.
func (g *Grid) Foreground(p units.Pixel) byte {
	return g.CellValue(p)
}

/*****************************************************************************************************************/
