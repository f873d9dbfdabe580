package geo

import (
	"errors"
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"mumbai", Point{Lng: 72.8777, Lat: 19.0760}, true},
		{"origin", Point{}, true},
		{"lng edge low", Point{Lng: -180, Lat: 0}, true},
		{"lng edge high", Point{Lng: 180, Lat: 0}, true},
		{"lat edge low", Point{Lng: 0, Lat: -90}, true},
		{"lat edge high", Point{Lng: 0, Lat: 90}, true},
		{"lng too low", Point{Lng: -180.0001, Lat: 0}, false},
		{"lng too high", Point{Lng: 180.0001, Lat: 0}, false},
		{"lat too low", Point{Lng: 0, Lat: -90.0001}, false},
		{"lat too high", Point{Lng: 0, Lat: 90.0001}, false},
		{"nan lng", Point{Lng: math.NaN(), Lat: 0}, false},
		{"inf lat", Point{Lng: 0, Lat: math.Inf(1)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValid(tc.p); got != tc.want {
				t.Errorf("IsValid(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}
}

func TestValidateReturnsSentinel(t *testing.T) {
	err := Validate(Point{Lng: 200, Lat: 0})
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
	if err := Validate(Point{Lng: 72.8, Lat: 19.0}); err != nil {
		t.Errorf("expected nil for valid point, got %v", err)
	}
}

func TestDistanceMeters(t *testing.T) {
	// Two points ~15m apart in Mumbai (the end-to-end matching scenario).
	a := Point{Lng: 72.8777, Lat: 19.0760}
	b := Point{Lng: 72.8778, Lat: 19.0761}

	d := DistanceMeters(a, b)
	if d < 10 || d > 20 {
		t.Errorf("expected ~15m, got %.2fm", d)
	}

	if d := DistanceMeters(a, a); d != 0 {
		t.Errorf("distance to self = %g, want 0", d)
	}

	// Symmetry.
	if got := DistanceMeters(b, a); math.Abs(got-d) > 1e-9 {
		t.Errorf("distance not symmetric: %g vs %g", got, d)
	}

	// Known city-scale baseline: Gateway of India to CST is roughly 2km.
	gateway := Point{Lng: 72.8347, Lat: 18.9220}
	cst := Point{Lng: 72.8355, Lat: 18.9398}
	if d := DistanceMeters(gateway, cst); d < 1900 || d > 2100 {
		t.Errorf("expected ~2km, got %.0fm", d)
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := Point{Lng: 72.8777, Lat: 19.0760}
	sw, ne, err := BoundingBox(center, 50)
	if err != nil {
		t.Fatalf("BoundingBox: %v", err)
	}

	if !InBox(center, sw, ne) {
		t.Fatal("center outside its own bounding box")
	}

	// Points just inside 50m in the four cardinal directions must be in the box.
	for _, p := range []Point{
		{Lng: center.Lng, Lat: center.Lat + 0.00040}, // ~44m north
		{Lng: center.Lng, Lat: center.Lat - 0.00040},
		{Lng: center.Lng + 0.00045, Lat: center.Lat}, // ~47m east at this latitude
		{Lng: center.Lng - 0.00045, Lat: center.Lat},
	} {
		if DistanceMeters(center, p) > 50 {
			t.Fatalf("test point %v unexpectedly outside radius", p)
		}
		if !InBox(p, sw, ne) {
			t.Errorf("point %v within 50m but outside bounding box", p)
		}
	}
}

func TestBoundingBoxRejectsBadInput(t *testing.T) {
	if _, _, err := BoundingBox(Point{Lng: 500, Lat: 0}, 50); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate for bad center, got %v", err)
	}
	if _, _, err := BoundingBox(Point{Lng: 0, Lat: 0}, -1); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate for negative radius, got %v", err)
	}
}

func TestBoundingBoxClampsAtPoles(t *testing.T) {
	sw, ne, err := BoundingBox(Point{Lng: 0, Lat: 89.9999}, 5000)
	if err != nil {
		t.Fatalf("BoundingBox: %v", err)
	}
	if ne.Lat > 90 || sw.Lat < -90 || sw.Lng < -180 || ne.Lng > 180 {
		t.Errorf("box not clamped to valid range: sw=%v ne=%v", sw, ne)
	}
}
