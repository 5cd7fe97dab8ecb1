// Package kvector implements the K-vector indexing scheme: a fast range
// lookup over a sorted list of interstar distances, trading a small
// amount of memory for O(1) access to "every distance near this value"
// instead of a binary search per query.
package kvector

import (
	"fmt"
	"math"

	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// KVector holds the calibrated gradient/intercept of the linear
// function y = gradient*i + intercept used to bound each bin, along
// with the value range it was built for.
type KVector struct {
	Gradient  float64
	Intercept float64
	MinValue  units.Radians
	MaxValue  units.Radians
	NumBins   int
}

/*****************************************************************************************************************/

// New calibrates a KVector for numBins bins spanning [minValue,
// maxValue], per g = (max-min+2*epsilon)/numBins, c = min-epsilon. The
// epsilon padding guarantees every element of the database strictly
// satisfies min_value <= dist <= max_value even at floating point
// boundaries.
func New(numBins int, minValue, maxValue float64) KVector {
	e := units.Epsilon
	gradient := (maxValue - minValue + 2.0*e) / float64(numBins)
	intercept := minValue - e

	return KVector{
		Gradient:  gradient,
		Intercept: intercept,
		MinValue:  units.Radians(minValue),
		MaxValue:  units.Radians(maxValue),
		NumBins:   numBins,
	}
}

/*****************************************************************************************************************/

// GenerateBins computes the bin-boundary index array for sortedDistances
// (ascending order, as found in the star-pair database). The returned
// slice has NumBins+1 entries: index i is the (inclusive) start of bin
// i and the (exclusive) end of bin i-1. sortedDistances must hold at
// least two elements.
func (k KVector) GenerateBins(sortedDistances []units.Radians) ([]int, error) {
	if len(sortedDistances) < 2 {
		return nil, fmt.Errorf("generate bins needs at least 2 distances: %w", xerrors.ErrInvalidSize)
	}

	bins := make([]int, 0, k.NumBins+1)
	for ii := 0; ii < k.NumBins; ii++ {
		maxValue := k.Gradient*float64(ii) + k.Intercept

		jj := 0
		if ii > 0 {
			jj = bins[ii-1]
		}
		for float64(sortedDistances[jj]) < maxValue {
			jj++
		}
		bins = append(bins, jj)
	}
	bins = append(bins, len(sortedDistances))
	return bins, nil
}

/*****************************************************************************************************************/

// BinRange is an inclusive [Low, High] range of bin indices, wide
// enough to cover the tolerance band around a queried value so that a
// caller never misses a match sitting right on a bin edge.
type BinRange struct {
	Low  int
	High int
}

/*****************************************************************************************************************/

// GetBins returns the inclusive range of bin indices a query value may
// fall into, widened by half a bin either side of the exact division
// so edge values are not missed. value must lie within [MinValue,
// MaxValue].
func (k KVector) GetBins(value units.Radians) (BinRange, error) {
	if float64(value) < float64(k.MinValue) {
		return BinRange{}, fmt.Errorf("value %v below min %v: %w", value, k.MinValue, xerrors.ErrInvalidValue)
	}
	if float64(k.MaxValue) < float64(value) {
		return BinRange{}, fmt.Errorf("value %v above max %v: %w", value, k.MaxValue, xerrors.ErrInvalidValue)
	}

	tolerance := k.Gradient/2.0 + units.Epsilon

	high := (float64(value) - k.Intercept + tolerance) / k.Gradient
	low := (float64(value) - k.Intercept - tolerance) / k.Gradient

	low = math.Floor(low)
	high = math.Ceil(high)

	// The original casts these to an unsigned index type, which
	// saturates instead of wrapping; replicate that here since a wide
	// tolerance relative to a single bin's gradient can otherwise push
	// low below zero.
	if low < 0 {
		low = 0
	}
	if high > float64(k.NumBins) {
		high = float64(k.NumBins)
	}

	return BinRange{Low: int(low), High: int(high)}, nil
}

/*****************************************************************************************************************/

// String renders the KVector's calibration for debug logging. Values
// that round to zero are nudged to a small constant so the output
// never prints a bare "0" that hides the sign/scale of the original
// bound.
func (k KVector) String() string {
	min := float64(k.MinValue)
	max := float64(k.MaxValue)
	if math.Abs(min) < 0.0000001 {
		min = 0.00000001
	}
	if math.Abs(max) < 0.0000001 {
		max = 0.00000001
	}
	return fmt.Sprintf(
		"KVector{gradient: %v, intercept: %v, min_value: Radians(%v), max_value: Radians(%v), num_bins: %d}",
		k.Gradient, k.Intercept, min, max, k.NumBins,
	)
}

/*****************************************************************************************************************/
