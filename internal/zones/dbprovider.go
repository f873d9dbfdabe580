package zones

import (
	"context"
	"fmt"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"gorm.io/gorm"
)

// DBProvider answers zone queries with PostGIS: ST_Contains for polygon
// zones, ST_DWithin over geography for buffer zones. Results come back in
// the dataset's natural order (category, then name) so repeated evaluations
// of the same point are stable.
type DBProvider struct {
	db *gorm.DB
}

func NewDBProvider(db *gorm.DB) *DBProvider {
	return &DBProvider{db: db}
}

func (d *DBProvider) ViolatedZones(ctx context.Context, p geo.Point) ([]Zone, error) {
	if err := geo.Validate(p); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, category
		FROM billboard.sensitive_zones
		WHERE (geometry IS NOT NULL AND ST_Contains(
			geometry,
			ST_SetSRID(ST_MakePoint(?, ?), 4326)
		))
		OR (radius_m > 0 AND ST_DWithin(
			ST_SetSRID(ST_MakePoint(center_lng, center_lat), 4326)::geography,
			ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography,
			radius_m
		))
		ORDER BY category, name
	`

	rows, err := d.db.WithContext(ctx).Raw(query, p.Lng, p.Lat, p.Lng, p.Lat).Rows()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZoneQueryUnavailable, err)
	}
	defer rows.Close()

	zonesHit := []Zone{}
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Category); err != nil {
			return nil, fmt.Errorf("%w: scan zone: %v", ErrZoneQueryUnavailable, err)
		}
		zonesHit = append(zonesHit, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZoneQueryUnavailable, err)
	}

	return zonesHit, nil
}
