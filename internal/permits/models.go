package permits

import (
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

// Permit is a registered authorization for a billboard at a fixed location.
// LicenseID is the natural key: ingestion upserts on it, last write wins.
// Expired permits stay in the store so the engine can flag expired_permit
// instead of falling through to no_permit_found.
type Permit struct {
	LicenseID string     `gorm:"primaryKey;size:100" json:"license_id"`
	Owner     string     `gorm:"not null" json:"owner"`
	Longitude float64    `gorm:"not null" json:"longitude"`
	Latitude  float64    `gorm:"not null" json:"latitude"`
	WidthM    *float64   `json:"width_m,omitempty"`
	HeightM   *float64   `json:"height_m,omitempty"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Permit) TableName() string { return "billboard.permits" }

// Location returns the permit's position as a geo point.
func (p Permit) Location() geo.Point {
	return geo.Point{Lng: p.Longitude, Lat: p.Latitude}
}

// ExpiredAt reports whether the permit's validity window has closed as of t.
// Permits without a valid_to date never expire.
func (p Permit) ExpiredAt(t time.Time) bool {
	return p.ValidTo != nil && p.ValidTo.Before(t)
}
