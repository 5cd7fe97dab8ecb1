package pipeline

import (
	"errors"
	"sort"
	"testing"

	"github.com/lodestar-space/startracker/pkg/database"
	"github.com/lodestar-space/startracker/pkg/image"
	"github.com/lodestar-space/startracker/pkg/kvector"
	"github.com/lodestar-space/startracker/pkg/projection"
	"github.com/lodestar-space/startracker/pkg/threshold"
	"github.com/lodestar-space/startracker/pkg/units"
	"github.com/lodestar-space/startracker/pkg/xerrors"
)

/*****************************************************************************************************************/

// buildTestDatabase derives a 3-entry star pair table and K-vector index
// straight from catalog's own pairwise angular separations, sorted and
// binned the way a real build would, so the test never has to hand-derive
// a distance value.
func buildTestDatabase(t *testing.T, catalog []units.Equatorial) database.Database {
	t.Helper()

	type labeled struct {
		pair database.StarPair
		dist units.Radians
	}
	raw := []labeled{
		{database.StarPair{A: 0, B: 1}, units.AngularSeparation(catalog[0], catalog[1])},
		{database.StarPair{A: 0, B: 2}, units.AngularSeparation(catalog[0], catalog[2])},
		{database.StarPair{A: 1, B: 2}, units.AngularSeparation(catalog[1], catalog[2])},
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].dist < raw[j].dist })

	pairs := make([]database.StarPair, len(raw))
	distances := make([]units.Radians, len(raw))
	for i, r := range raw {
		pairs[i] = r.pair
		distances[i] = r.dist
	}

	kv := kvector.New(len(distances), float64(distances[0]), float64(distances[len(distances)-1]))
	bins, err := kv.GenerateBins(distances)
	if err != nil {
		t.Fatalf("GenerateBins() returned unexpected error: %v", err)
	}

	return database.New(database.Params{}, catalog, pairs, distances, kv, bins)
}

/*****************************************************************************************************************/

// TestIdentifyRecoversIdentityFromMatchingCatalog builds a catalog directly
// from the same pixels it then paints into the frame, so the observed and
// catalog directions coincide exactly and the recovered attitude must be
// the identity quaternion.
func TestIdentifyRecoversIdentityFromMatchingCatalog(t *testing.T) {
	intrinsic := projection.Intrinsic{FocalLength: 2000, PrincipalPoint: units.Vector2{X: 500, Y: 500}}
	extrinsic := projection.IdentityExtrinsic()

	pixels := []units.Pixel{
		{X: 500, Y: 500},
		{X: 520, Y: 500},
		{X: 560, Y: 505},
	}

	catalog := make([]units.Equatorial, len(pixels))
	for i, p := range pixels {
		camera := intrinsic.FromImage(units.Vector2{X: float64(p.X), Y: float64(p.Y)})
		world := extrinsic.ToWorld(camera)
		catalog[i] = units.EquatorialFromVector3(world)
	}

	db := buildTestDatabase(t, catalog)

	img := image.NewByteImage(1000, 1000)
	for _, p := range pixels {
		img.Set(p, 255)
	}

	th, err := threshold.NewPercent(img, 0.5)
	if err != nil {
		t.Fatalf("NewPercent() returned unexpected error: %v", err)
	}

	cfg := DefaultConfig(10)

	got, err := Identify(img, th, intrinsic, extrinsic, db, cfg)
	if err != nil {
		t.Fatalf("Identify() returned unexpected error: %v", err)
	}

	want := units.IdentityQuaternion()
	if !got.Equals(want) {
		t.Errorf("Identify() = %+v, want identity %+v", got, want)
	}
}

/*****************************************************************************************************************/

// TestIdentifyTooFewStars confirms a frame with fewer than three detected
// blobs fails fast with ErrNoMatch instead of reaching the resolver.
func TestIdentifyTooFewStars(t *testing.T) {
	img := image.NewByteImage(100, 100)
	img.Set(units.Pixel{X: 10, Y: 10}, 255)
	img.Set(units.Pixel{X: 90, Y: 90}, 255)

	th, err := threshold.NewPercent(img, 0.5)
	if err != nil {
		t.Fatalf("NewPercent() returned unexpected error: %v", err)
	}

	intrinsic := projection.Intrinsic{FocalLength: 500, PrincipalPoint: units.Vector2{X: 50, Y: 50}}
	extrinsic := projection.IdentityExtrinsic()
	db := database.Database{}

	_, err = Identify(img, th, intrinsic, extrinsic, db, DefaultConfig(10))
	if !errors.Is(err, xerrors.ErrNoMatch) {
		t.Errorf("Identify() err = %v, want ErrNoMatch", err)
	}
}

/*****************************************************************************************************************/

// TestIdentifyNoTriangleMatch confirms that three detected stars with no
// corresponding entries anywhere in the database resolve to ErrNoMatch
// rather than a silently wrong attitude.
func TestIdentifyNoTriangleMatch(t *testing.T) {
	intrinsic := projection.Intrinsic{FocalLength: 2000, PrincipalPoint: units.Vector2{X: 500, Y: 500}}
	extrinsic := projection.IdentityExtrinsic()

	pixels := []units.Pixel{
		{X: 500, Y: 500},
		{X: 520, Y: 500},
		{X: 560, Y: 505},
	}

	img := image.NewByteImage(1000, 1000)
	for _, p := range pixels {
		img.Set(p, 255)
	}

	th, err := threshold.NewPercent(img, 0.5)
	if err != nil {
		t.Fatalf("NewPercent() returned unexpected error: %v", err)
	}

	// An unrelated catalog whose stars are nowhere near the observed
	// triangle's geometry: no pair distance will ever fall inside the
	// K-vector's calibrated range.
	unrelated := []units.Equatorial{
		{RA: 0, Dec: 0},
		{RA: 3, Dec: 0},
		{RA: 0, Dec: 3},
	}
	db := buildTestDatabase(t, unrelated)

	_, err = Identify(img, th, intrinsic, extrinsic, db, DefaultConfig(10))
	if !errors.Is(err, xerrors.ErrNoMatch) {
		t.Errorf("Identify() err = %v, want ErrNoMatch", err)
	}
}
