package zones

import (
	"fmt"
	"os"
	"strings"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed file shape:
//
//	zones:
//	  - name: St Mary High School
//	    category: school
//	    center: { longitude: 72.8761, latitude: 19.0748 }
//	    radius_m: 100
//	  - name: Kala Ghoda Heritage Precinct
//	    category: heritage
//	    polygon:
//	      - [72.8320, 18.9270]
//	      - [72.8340, 18.9270]
//	      - [72.8340, 18.9290]
type seedFile struct {
	Zones []seedZone `yaml:"zones"`
}

type seedZone struct {
	Name     string       `yaml:"name"`
	Category string       `yaml:"category"`
	Center   *seedPoint   `yaml:"center"`
	RadiusM  float64      `yaml:"radius_m"`
	Polygon  [][2]float64 `yaml:"polygon"` // [lng, lat]
}

type seedPoint struct {
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
}

// LoadSeedFile reads zone definitions from a YAML reference file.
func LoadSeedFile(path string) ([]Def, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing zone seed file: %w", err)
	}

	defs := make([]Def, 0, len(f.Zones))
	for i, z := range f.Zones {
		if z.Name == "" || z.Category == "" {
			return nil, fmt.Errorf("zone %d: name and category are required", i)
		}
		d := Def{Name: z.Name, Category: z.Category, RadiusM: z.RadiusM}
		if z.Center != nil {
			p := geo.Point{Lng: z.Center.Longitude, Lat: z.Center.Latitude}
			if err := geo.Validate(p); err != nil {
				return nil, fmt.Errorf("zone %q: %w", z.Name, err)
			}
			d.Center = &p
		}
		for _, c := range z.Polygon {
			p := geo.Point{Lng: c[0], Lat: c[1]}
			if err := geo.Validate(p); err != nil {
				return nil, fmt.Errorf("zone %q: %w", z.Name, err)
			}
			d.Polygon = append(d.Polygon, p)
		}
		if len(d.Polygon) == 0 && (d.Center == nil || d.RadiusM <= 0) {
			return nil, fmt.Errorf("zone %q: needs a polygon or a center with radius_m", z.Name)
		}
		if len(d.Polygon) > 0 && len(d.Polygon) < 3 {
			return nil, fmt.Errorf("zone %q: polygon needs at least 3 points", z.Name)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// SeedDB upserts zone definitions into the reference table, keyed by name so
// re-seeding on boot is idempotent. Polygons are written as WKT for PostGIS.
func SeedDB(db *gorm.DB, defs []Def) error {
	for _, d := range defs {
		z := SensitiveZone{
			Name:     d.Name,
			Category: d.Category,
			Source:   "seed_file",
		}
		if d.Center != nil {
			z.CenterLng = d.Center.Lng
			z.CenterLat = d.Center.Lat
			z.RadiusM = d.RadiusM
		}
		if len(d.Polygon) >= 3 {
			wkt := polygonWKT(d.Polygon)
			z.Geometry = &wkt
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "geometry", "center_lng", "center_lat", "radius_m", "source", "updated_at"}),
		}).Create(&z).Error
		if err != nil {
			return fmt.Errorf("seeding zone %q: %w", d.Name, err)
		}
	}
	return nil
}

// polygonWKT renders a closed SRID-4326 polygon in WKT form.
func polygonWKT(ring []geo.Point) string {
	var b strings.Builder
	b.WriteString("SRID=4326;POLYGON((")
	for i, p := range ring {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g %g", p.Lng, p.Lat)
	}
	// Close the ring if the seed file left it open.
	if ring[0] != ring[len(ring)-1] {
		fmt.Fprintf(&b, ", %g %g", ring[0].Lng, ring[0].Lat)
	}
	b.WriteString("))")
	return b.String()
}
