package catalogbuilder

import (
	"sort"

	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/kvector"
	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// BuildPairs computes every catalog pair whose angular separation is at
// most maxSeparation (the database's field of view), sorts them by
// ascending separation, and calibrates a K-vector index over the result,
// per spec.md §6's database layout (pairs sorted ascending, k_lookup
// derived from the sorted distance array).
func BuildPairs(catalog []units.Equatorial, maxSeparation units.Radians, numBins int) ([]database.StarPair, []units.Radians, kvector.KVector, []int, error) {
	type labeled struct {
		pair database.StarPair
		dist units.Radians
	}

	var raw []labeled
	for i := 0; i < len(catalog); i++ {
		for j := i + 1; j < len(catalog); j++ {
			d := units.AngularSeparation(catalog[i], catalog[j])
			if d <= maxSeparation {
				raw = append(raw, labeled{pair: database.StarPair{A: i, B: j}, dist: d})
			}
		}
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].dist < raw[j].dist })

	pairs := make([]database.StarPair, len(raw))
	distances := make([]units.Radians, len(raw))
	for i, r := range raw {
		pairs[i] = r.pair
		distances[i] = r.dist
	}

	if len(distances) < 2 {
		return pairs, distances, kvector.KVector{}, nil, errNotEnoughPairs
	}

	kv := kvector.New(numBins, float64(distances[0]), float64(distances[len(distances)-1]))
	bins, err := kv.GenerateBins(distances)
	if err != nil {
		return nil, nil, kvector.KVector{}, nil, err
	}
	return pairs, distances, kv, bins, nil
}

/*****************************************************************************************************************/
