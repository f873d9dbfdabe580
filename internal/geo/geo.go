package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned for points outside the WGS84 lon/lat range
// or with non-finite components. Callers must reject such points, never clamp.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

const earthRadiusM = 6371008.8

// Point is a WGS84 longitude/latitude pair.
type Point struct {
	Lng float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

func (p Point) String() string {
	return fmt.Sprintf("POINT(%g %g)", p.Lng, p.Lat)
}

// IsValid reports whether p is a finite point with longitude in [-180,180]
// and latitude in [-90,90].
func IsValid(p Point) bool {
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lng >= -180 && p.Lng <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// Validate returns ErrInvalidCoordinate (wrapped with the offending point)
// when p is out of range.
func Validate(p Point) error {
	if !IsValid(p) {
		return fmt.Errorf("%w: lng=%g lat=%g", ErrInvalidCoordinate, p.Lng, p.Lat)
	}
	return nil
}

// DistanceMeters computes the great-circle (haversine) distance between two
// points. Sub-meter accuracy at city scale, which is all the matching engine
// needs for a 50m radius policy.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox returns the southwest and northeast corners of a box that
// fully contains the circle of radiusMeters around center. Used as a cheap
// pre-filter before exact distance checks.
func BoundingBox(center Point, radiusMeters float64) (sw, ne Point, err error) {
	if err := Validate(center); err != nil {
		return Point{}, Point{}, err
	}
	if radiusMeters < 0 || math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) {
		return Point{}, Point{}, fmt.Errorf("%w: radius=%g", ErrInvalidCoordinate, radiusMeters)
	}

	dLat := radiusMeters / earthRadiusM * 180 / math.Pi

	// Longitude degrees shrink with latitude. At the poles the box spans
	// all longitudes rather than dividing by ~zero.
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	var dLng float64
	if cosLat < 1e-10 {
		dLng = 180
	} else {
		dLng = dLat / cosLat
	}

	sw = Point{Lng: math.Max(center.Lng-dLng, -180), Lat: math.Max(center.Lat-dLat, -90)}
	ne = Point{Lng: math.Min(center.Lng+dLng, 180), Lat: math.Min(center.Lat+dLat, 90)}
	return sw, ne, nil
}

// InBox reports whether p falls inside the box spanned by sw and ne.
func InBox(p, sw, ne Point) bool {
	return p.Lng >= sw.Lng && p.Lng <= ne.Lng && p.Lat >= sw.Lat && p.Lat <= ne.Lat
}
