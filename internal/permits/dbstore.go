package permits

import (
	"errors"
	"fmt"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore backs the permit index with Postgres. The radius query computes the
// haversine distance in SQL over a bounding-box pre-filter, so it needs no
// PostGIS extension on the permits table.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Upsert(p Permit) error {
	if err := validate(p); err != nil {
		return err
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "license_id"}},
		UpdateAll: true,
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreUnavailable, p.LicenseID, err)
	}
	return nil
}

func (s *DBStore) FindWithinRadius(center geo.Point, radiusMeters float64) ([]Permit, error) {
	sw, ne, err := geo.BoundingBox(center, radiusMeters)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT * FROM (
			SELECT p.*,
				2 * 6371008.8 * asin(least(1, sqrt(
					power(sin(radians(p.latitude - ?) / 2), 2) +
					cos(radians(?)) * cos(radians(p.latitude)) *
					power(sin(radians(p.longitude - ?) / 2), 2)
				))) AS distance_m
			FROM billboard.permits p
			WHERE p.longitude BETWEEN ? AND ?
			  AND p.latitude BETWEEN ? AND ?
		) candidates
		WHERE distance_m <= ?
		ORDER BY distance_m, license_id
	`

	var out []Permit
	err = s.db.Raw(query,
		center.Lat, center.Lat, center.Lng,
		sw.Lng, ne.Lng, sw.Lat, ne.Lat,
		radiusMeters,
	).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: radius query: %v", ErrStoreUnavailable, err)
	}
	if out == nil {
		out = []Permit{}
	}
	return out, nil
}

func (s *DBStore) Get(licenseID string) (Permit, bool, error) {
	var p Permit
	err := s.db.First(&p, "license_id = ?", licenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Permit{}, false, nil
	}
	if err != nil {
		return Permit{}, false, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, licenseID, err)
	}
	return p, true, nil
}
