package catalogbuilder

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/alitto/pond"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

/*****************************************************************************************************************/

// Region is one cell of a regular RA/Dec tiling of the sky, used to cap
// the star density the Pyramid identification step has to disambiguate
// between.
type Region struct {
	CenterRADeg  float64
	CenterDecDeg float64
	SizeDeg      float64
}

/*****************************************************************************************************************/

// TileSky divides the full sky into a regular grid of Regions sizeDeg
// wide in declination, widening the right-ascension step toward the
// poles by 1/cos(dec) so each region keeps roughly the same solid angle.
// This is a known simplification: true equal-area tiling would need a
// more careful projection, but Pyramid matching only needs "roughly
// uniform", not exact.
func TileSky(sizeDeg float64) []Region {
	if sizeDeg <= 0 {
		sizeDeg = 1
	}

	var regions []Region
	for dec := -90.0 + sizeDeg/2; dec < 90.0; dec += sizeDeg {
		raStep := sizeDeg / math.Max(math.Cos(dec*math.Pi/180), 0.05)
		for ra := raStep / 2; ra < 360.0; ra += raStep {
			regions = append(regions, Region{CenterRADeg: ra, CenterDecDeg: dec, SizeDeg: sizeDeg})
		}
	}
	return regions
}

/*****************************************************************************************************************/

// FetchRegions queries every region concurrently through client, bounded
// to maxConcurrent simultaneous TAP requests, and fails fast if any
// single region's query errors: a partial catalog is worse than no
// catalog, since the missing coverage would silently weaken later
// Pyramid matches near that region.
func FetchRegions(client *GAIAClient, regions []Region, magnitudeMax float64, maxConcurrent int) ([]Star, error) {
	var g errgroup.Group
	g.SetLimit(maxConcurrent)

	var mu sync.Mutex
	var all []Star

	for _, region := range regions {
		region := region
		g.Go(func() error {
			radius := region.SizeDeg * math.Sqrt2 / 2
			stars, err := client.ConeSearch(GAIAQuery{
				RA:            region.CenterRADeg,
				Dec:           region.CenterDecDeg,
				RadiusDegrees: radius,
				MagnitudeMax:  magnitudeMax,
			})
			if err != nil {
				return fmt.Errorf("region ra=%.2f dec=%.2f: %w", region.CenterRADeg, region.CenterDecDeg, err)
			}

			mu.Lock()
			all = append(all, stars...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

/*****************************************************************************************************************/

// regionKey buckets a star into its sizeDeg x sizeDeg RA/Dec cell, used
// purely for density capping: it does not need to agree with TileSky's
// own cell centers, only to group stars that are "close together" for
// the purpose of thinning an over-dense field.
func regionKey(s Star, sizeDeg float64) [2]int {
	return [2]int{
		int(math.Floor(float64(s.RA) / sizeDeg)),
		int(math.Floor(float64(s.Dec) / sizeDeg)),
	}
}

/*****************************************************************************************************************/

// CapRegions thins stars so that no sizeDeg x sizeDeg cell contributes
// more than maxPerRegion entries, keeping the brightest (lowest
// magnitude) stars in each cell. Each cell is scored concurrently
// through a bounded worker pool, since sorting thousands of dense-field
// cells independently parallelises cleanly.
func CapRegions(stars []Star, sizeDeg float64, maxPerRegion int) []Star {
	if maxPerRegion <= 0 {
		return nil
	}

	grouped := lo.GroupBy(stars, func(s Star) [2]int { return regionKey(s, sizeDeg) })

	pool := pond.New(8, len(grouped))
	var mu sync.Mutex
	var capped []Star

	for _, cell := range grouped {
		cell := cell
		pool.Submit(func() {
			sort.Slice(cell, func(i, j int) bool { return cell[i].Magnitude < cell[j].Magnitude })
			if len(cell) > maxPerRegion {
				cell = cell[:maxPerRegion]
			}

			mu.Lock()
			capped = append(capped, cell...)
			mu.Unlock()
		})
	}
	pool.StopAndWait()

	return capped
}

/*****************************************************************************************************************/
