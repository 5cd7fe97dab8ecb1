package catalogbuilder

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lodestar-space/startracker/pkg/units"
)

/*****************************************************************************************************************/

// catalogRow is the staging-table shape for a fetched GAIA source, kept
// in sqlite between the network fetch and the density cap and
// pair-table freeze. Build re-fetches every region on each run.
type catalogRow struct {
	gorm.Model
	SourceID  string `gorm:"uniqueIndex"`
	RADeg     float64
	DecDeg    float64
	Magnitude float64
}

/*****************************************************************************************************************/

// Store is the sqlite staging database a build run populates before the
// catalog, pairs, and K-vector are frozen to the output JSON database.
type Store struct {
	db *gorm.DB
}

/*****************************************************************************************************************/

// OpenStore opens (creating if necessary) the sqlite staging database at
// path and migrates its schema.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open staging store: %w", err)
	}
	if err := db.AutoMigrate(&catalogRow{}); err != nil {
		return nil, fmt.Errorf("migrate staging store: %w", err)
	}
	return &Store{db: db}, nil
}

/*****************************************************************************************************************/

// Stage inserts stars into the staging table, ignoring duplicates of an
// already-staged SourceID so a retried fetch does not double-count a
// region covered twice by overlapping tiles.
func (s *Store) Stage(stars []Star) error {
	rows := make([]catalogRow, len(stars))
	for i, star := range stars {
		rows[i] = catalogRow{
			SourceID:  star.SourceID,
			RADeg:     float64(star.RA),
			DecDeg:    float64(star.Dec),
			Magnitude: star.Magnitude,
		}
	}

	const batchSize = 500
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, batchSize).Error
	if err != nil {
		return fmt.Errorf("stage catalog rows: %w", err)
	}
	return nil
}

/*****************************************************************************************************************/

// All returns every staged star.
func (s *Store) All() ([]Star, error) {
	var rows []catalogRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read staging store: %w", err)
	}

	stars := make([]Star, len(rows))
	for i, r := range rows {
		stars[i] = Star{SourceID: r.SourceID, RA: units.Degrees(r.RADeg), Dec: units.Degrees(r.DecDeg), Magnitude: r.Magnitude}
	}
	return stars, nil
}

/*****************************************************************************************************************/

// Close releases the underlying sqlite connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

/*****************************************************************************************************************/
