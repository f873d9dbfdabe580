package zones

import (
	"context"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

// Def is an in-memory zone definition used by LocalProvider and the YAML
// seed loader. Exactly one of Polygon or (Center, RadiusM) should be set.
type Def struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Category string      `json:"category" yaml:"category"`
	Center   *geo.Point  `json:"center,omitempty" yaml:"center"`
	RadiusM  float64     `json:"radius_m,omitempty" yaml:"radius_m"`
	Polygon  []geo.Point `json:"polygon,omitempty" yaml:"polygon"`
}

func (d Def) zone() Zone {
	return Zone{ID: d.ID, Name: d.Name, Category: d.Category}
}

// LocalProvider evaluates zone membership in process: ray-cast containment
// for polygons, haversine distance for buffers. It substitutes for the
// PostGIS-backed provider with equivalent results and is what the engine
// tests run against.
type LocalProvider struct {
	defs []Def
}

func NewLocalProvider(defs []Def) *LocalProvider {
	return &LocalProvider{defs: defs}
}

// ViolatedZones returns every zone containing or buffering the point, in
// definition order. It never fails: the dataset is already in memory.
func (l *LocalProvider) ViolatedZones(ctx context.Context, p geo.Point) ([]Zone, error) {
	if err := geo.Validate(p); err != nil {
		return nil, err
	}

	out := []Zone{}
	for _, d := range l.defs {
		if len(d.Polygon) >= 3 {
			if pointInPolygon(p, d.Polygon) {
				out = append(out, d.zone())
			}
			continue
		}
		if d.Center != nil && d.RadiusM > 0 {
			if geo.DistanceMeters(p, *d.Center) <= d.RadiusM {
				out = append(out, d.zone())
			}
		}
	}
	return out, nil
}

// pointInPolygon is the even-odd ray casting test over lng/lat. Fine for
// city-block sized zones; not meant for polygons spanning the antimeridian.
func pointInPolygon(p geo.Point, ring []geo.Point) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLng := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
