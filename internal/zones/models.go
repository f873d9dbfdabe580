package zones

import (
	"time"

	"github.com/google/uuid"
)

// SensitiveZone is reference data: an area where billboard placement is
// restricted. A zone is either a polygon (Geometry set) or a buffer around a
// point (RadiusM > 0). The engine only ever reads these.
type SensitiveZone struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name     string    `gorm:"uniqueIndex;not null" json:"name"`
	Category string    `gorm:"index;size:50;not null" json:"category"` // school, hospital, junction, heritage

	// Polygon boundary in WGS84 (SRID 4326); nil for buffer zones.
	Geometry *string `gorm:"type:geometry(Geometry,4326)" json:"-"`

	// Buffer boundary: circle of RadiusM meters around the center point.
	// RadiusM == 0 means this is a polygon zone.
	CenterLng float64 `json:"center_lng,omitempty"`
	CenterLat float64 `json:"center_lat,omitempty"`
	RadiusM   float64 `json:"radius_m,omitempty"`

	Source    string    `json:"source,omitempty"` // e.g. "municipal_gis_2024", "seed_file"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SensitiveZone) TableName() string { return "billboard.sensitive_zones" }

// Zone is the reference handed back by a Provider and embedded in match
// results. Deliberately small: reports only need to name the violated zones.
type Zone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}
