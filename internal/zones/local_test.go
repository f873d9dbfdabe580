package zones

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

func testDefs() []Def {
	school := geo.Point{Lng: 72.8761, Lat: 19.0748}
	return []Def{
		{
			ID: "zone-school", Name: "St Mary High School", Category: "school",
			Center: &school, RadiusM: 100,
		},
		{
			ID: "zone-heritage", Name: "Kala Ghoda Precinct", Category: "heritage",
			Polygon: []geo.Point{
				{Lng: 72.8320, Lat: 18.9270},
				{Lng: 72.8340, Lat: 18.9270},
				{Lng: 72.8340, Lat: 18.9290},
				{Lng: 72.8320, Lat: 18.9290},
			},
		},
	}
}

func TestLocalProviderBufferZone(t *testing.T) {
	p := NewLocalProvider(testDefs())
	ctx := context.Background()

	// ~20m from the school center: inside the 100m buffer.
	hits, err := p.ViolatedZones(ctx, geo.Point{Lng: 72.8762, Lat: 19.0749})
	if err != nil {
		t.Fatalf("ViolatedZones: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "zone-school" {
		t.Errorf("expected [zone-school], got %v", hits)
	}

	// ~1km away: outside everything.
	hits, err = p.ViolatedZones(ctx, geo.Point{Lng: 72.8850, Lat: 19.0760})
	if err != nil {
		t.Fatalf("ViolatedZones: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestLocalProviderPolygonZone(t *testing.T) {
	p := NewLocalProvider(testDefs())
	ctx := context.Background()

	inside := geo.Point{Lng: 72.8330, Lat: 18.9280}
	hits, err := p.ViolatedZones(ctx, inside)
	if err != nil {
		t.Fatalf("ViolatedZones: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "zone-heritage" {
		t.Errorf("expected [zone-heritage], got %v", hits)
	}

	outside := geo.Point{Lng: 72.8310, Lat: 18.9280}
	hits, err = p.ViolatedZones(ctx, outside)
	if err != nil {
		t.Fatalf("ViolatedZones: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits just outside the polygon, got %v", hits)
	}
}

func TestLocalProviderPreservesDefinitionOrder(t *testing.T) {
	// A point inside both a buffer and a polygon sees them in slice order.
	overlap := geo.Point{Lng: 72.8330, Lat: 18.9280}
	defs := testDefs()
	defs[0].Center = &geo.Point{Lng: 72.8330, Lat: 18.9281}
	defs[0].RadiusM = 50

	p := NewLocalProvider(defs)
	hits, err := p.ViolatedZones(context.Background(), overlap)
	if err != nil {
		t.Fatalf("ViolatedZones: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %v", hits)
	}
	if hits[0].ID != "zone-school" || hits[1].ID != "zone-heritage" {
		t.Errorf("expected definition order, got %v", hits)
	}
}

func TestLocalProviderRejectsInvalidPoint(t *testing.T) {
	p := NewLocalProvider(testDefs())
	if _, err := p.ViolatedZones(context.Background(), geo.Point{Lng: 999, Lat: 0}); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestPointInPolygonOnVertexNeighborhood(t *testing.T) {
	square := []geo.Point{
		{Lng: 0, Lat: 0}, {Lng: 2, Lat: 0}, {Lng: 2, Lat: 2}, {Lng: 0, Lat: 2},
	}
	if !pointInPolygon(geo.Point{Lng: 1, Lat: 1}, square) {
		t.Error("center of square must be inside")
	}
	if pointInPolygon(geo.Point{Lng: 3, Lat: 1}, square) {
		t.Error("point east of square must be outside")
	}
	if pointInPolygon(geo.Point{Lng: -1, Lat: -1}, square) {
		t.Error("point southwest of square must be outside")
	}
}

func TestLoadSeedFile(t *testing.T) {
	content := `zones:
  - name: St Mary High School
    category: school
    center: { longitude: 72.8761, latitude: 19.0748 }
    radius_m: 100
  - name: Kala Ghoda Precinct
    category: heritage
    polygon:
      - [72.8320, 18.9270]
      - [72.8340, 18.9270]
      - [72.8340, 18.9290]
      - [72.8320, 18.9290]
`
	path := filepath.Join(t.TempDir(), "zones.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 defs, got %d", len(defs))
	}
	if defs[0].Center == nil || defs[0].RadiusM != 100 {
		t.Errorf("buffer zone not parsed: %+v", defs[0])
	}
	if len(defs[1].Polygon) != 4 {
		t.Errorf("polygon zone not parsed: %+v", defs[1])
	}

	// The loaded defs drive the local provider directly.
	p := NewLocalProvider(defs)
	hits, err := p.ViolatedZones(context.Background(), geo.Point{Lng: 72.8761, Lat: 19.0748})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Name != "St Mary High School" {
		t.Errorf("expected school hit, got %v", hits)
	}
}

func TestLoadSeedFileRejectsIncompleteZone(t *testing.T) {
	content := `zones:
  - name: Broken Zone
    category: school
`
	path := filepath.Join(t.TempDir(), "zones.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeedFile(path); err == nil {
		t.Error("zone without boundary must be rejected")
	}
}

func TestPolygonWKTClosesRing(t *testing.T) {
	ring := []geo.Point{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 0}, {Lng: 1, Lat: 1}}
	got := polygonWKT(ring)
	want := "SRID=4326;POLYGON((0 0, 1 0, 1 1, 0 0))"
	if got != want {
		t.Errorf("polygonWKT = %q, want %q", got, want)
	}
}
