// Package pipeline composes the star-tracker stages — thresholding,
// blob detection, pinhole projection, Pyramid identification, and QUEST
// — into the single synchronous call from an image to an attitude
// quaternion.
package pipeline

import (
	"fmt"

	"github.com/lodestar-space/startracker/pkg/blob"
	"github.com/lodestar-space/startracker/pkg/constellation"
	"github.com/lodestar-space/startracker/pkg/containers"
	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/projection"
	"github.com/lodestar-space/startracker/pkg/quest"
	"github.com/lodestar-space/startracker/pkg/threshold"
	"github.com/lodestar-space/startracker/pkg/triangle"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// Config bounds every buffer the pipeline needs and selects the
// Pyramid resolver's policies. Every field has a meaningful zero
// value except the three interfaces, which DefaultConfig fills with
// the teacher's own defaults; constructing a Config by hand without
// them will panic on first use, the same way a nil Threshold would.
type Config struct {
	// MaxBlobPixels bounds the grass-fire scratch stack, i.e. the
	// largest single blob the detector can grow.
	MaxBlobPixels int
	// MaxBlobs bounds how many candidate stars a single frame can
	// yield before the dimmest are dropped.
	MaxBlobs int
	// MaxStars bounds how many of the brightest blobs are handed to
	// identification; more stars cost more triangle candidates.
	MaxStars int
	// PairsPerSide bounds how many catalog pairs FindCloseRef returns
	// per triangle side and per pilot-star vertex query.
	PairsPerSide int
	// MaxTriangles bounds how many candidate triangles the match
	// iterator can accumulate before resolution begins.
	MaxTriangles int
	// MinBlobSize discards any connected blob smaller than this many
	// pixels (typically hot pixels) and lets find_blobs skip this many
	// pixels between scan starts.
	MinBlobSize int

	Specularity constellation.SpecularityCheck
	Pilot       constellation.PilotFinder
	Abort       constellation.AbortPolicy
}

/*****************************************************************************************************************/

// DefaultConfig returns a Config sized for maxStars observed stars per
// frame, using a determinant specularity check, a greedy pilot search,
// and an abort policy that gives up after ten consecutive candidate
// failures — the value the original project's own usage guide singles
// out as large enough that a true match almost never needs it.
func DefaultConfig(maxStars int) Config {
	return Config{
		MaxBlobPixels: 4096,
		MaxBlobs:      256,
		MaxStars:      maxStars,
		PairsPerSide:  32,
		MaxTriangles:  256,
		MinBlobSize:   1,
		Specularity:   constellation.DeterminantSpecularity{Min: constellation.DefaultSpecularityMin},
		Pilot:         constellation.GreedyPilotFinder{PairsPerSide: 32},
		Abort:         constellation.ErrorCountAbort{Max: 10},
	}
}

/*****************************************************************************************************************/

// Identify runs the full pipeline: img is binarised by t and segmented
// into blobs, the MaxStars brightest centroids are projected onto the
// unit sphere via intrinsic/extrinsic, the resulting directions are
// identified against db by the Pyramid method, and the confirmed
// matches are resolved to an attitude quaternion by QUEST. img is
// mutated in place (pixels zeroed as blobs are consumed), matching
// find_blobs' documented contract.
func Identify(
	img image.Image,
	t threshold.Threshold,
	intrinsic projection.Intrinsic,
	extrinsic projection.Extrinsic,
	db database.Database,
	cfg Config,
) (units.Quaternion, error) {
	threshold.ApplyBin(t, img)

	stack := containers.NewList[units.Pixel](cfg.MaxBlobPixels)
	blobs := containers.NewList[blob.Blob](cfg.MaxBlobs)
	blob.FindBlobs(cfg.MinBlobSize, 128, img, stack, blobs)

	points := containers.NewList[units.Vector2](cfg.MaxStars)
	blob.ToVector2(blobs, points)

	stars := make([]units.Equatorial, 0, points.Size())
	for _, p := range points.Slice() {
		camera := intrinsic.FromImage(p)
		world := extrinsic.ToWorld(camera)
		stars = append(stars, units.EquatorialFromVector3(world))
	}

	if len(stars) < 3 {
		return units.Quaternion{}, fmt.Errorf("identify: only %d stars detected, need at least 3: %w", len(stars), xerrors.ErrNoMatch)
	}

	candidates := containers.NewList[triangle.Match[triangle.StarTriangle[int]]](cfg.MaxTriangles)
	triangle.FindMatchTriangle(stars, db, cfg.PairsPerSide, candidates)

	result := constellation.Resolve(stars, db, candidates, cfg.Specularity, cfg.Pilot, cfg.Abort)
	if result.Status != constellation.StatusSuccess {
		return units.Quaternion{}, fmt.Errorf("identify: resolution ended in %v after %d failures: %w", result.Status, result.Fails, xerrors.ErrNoMatch)
	}

	var matches []triangle.Match[units.Vector3]
	if len(stars) == 3 {
		matches = triangleMatches(result.Triangle)
	} else {
		matches = pyramidMatches(result.Pyramid)
	}

	q, err := quest.Estimate(matches)
	if err != nil {
		return units.Quaternion{}, fmt.Errorf("identify: %w", err)
	}

	// quest.Estimate's quaternion already rotates catalog directions onto
	// observed directions, so it is returned unchanged.
	return q, nil
}

/*****************************************************************************************************************/

func triangleMatches(m triangle.Match[triangle.StarTriangle[units.Equatorial]]) []triangle.Match[units.Vector3] {
	in := m.Input.ToVector3()
	out := m.Output.ToVector3()
	return []triangle.Match[units.Vector3]{
		{Input: in.A, Output: out.A, Weight: m.Weight},
		{Input: in.B, Output: out.B, Weight: m.Weight},
		{Input: in.C, Output: out.C, Weight: m.Weight},
	}
}

/*****************************************************************************************************************/

func pyramidMatches(m triangle.Match[constellation.StarPyramid[units.Equatorial]]) []triangle.Match[units.Vector3] {
	in, out := m.Input, m.Output
	return []triangle.Match[units.Vector3]{
		{Input: in.A.ToVector3(), Output: out.A.ToVector3(), Weight: m.Weight},
		{Input: in.B.ToVector3(), Output: out.B.ToVector3(), Weight: m.Weight},
		{Input: in.C.ToVector3(), Output: out.C.ToVector3(), Weight: m.Weight},
		{Input: in.D.ToVector3(), Output: out.D.ToVector3(), Weight: m.Weight},
	}
}

/*****************************************************************************************************************/
