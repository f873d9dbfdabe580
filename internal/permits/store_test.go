package permits

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

func mkPermit(license string, lng, lat float64) Permit {
	return Permit{LicenseID: license, Owner: "Acme Outdoor Media", Longitude: lng, Latitude: lat}
}

func TestUpsertValidation(t *testing.T) {
	s := NewMemoryStore()

	cases := []struct {
		name   string
		permit Permit
		field  string
	}{
		{"missing license", Permit{Owner: "x", Longitude: 72.8, Latitude: 19.0}, "license_id"},
		{"blank license", Permit{LicenseID: "   ", Owner: "x", Longitude: 72.8, Latitude: 19.0}, "license_id"},
		{"missing owner", Permit{LicenseID: "MH-01", Longitude: 72.8, Latitude: 19.0}, "owner"},
		{"bad longitude", Permit{LicenseID: "MH-01", Owner: "x", Longitude: 200, Latitude: 19.0}, "location"},
		{"bad latitude", Permit{LicenseID: "MH-01", Owner: "x", Longitude: 72.8, Latitude: 95}, "location"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Upsert(tc.permit)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}

	if s.Len() != 0 {
		t.Errorf("rejected permits must not be stored, have %d", s.Len())
	}
}

func TestUpsertReplacesOnLicenseID(t *testing.T) {
	s := NewMemoryStore()

	first := mkPermit("MH-01-AB-1234", 72.8777, 19.0760)
	first.Owner = "Old Owner"
	if err := s.Upsert(first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	second := mkPermit("MH-01-AB-1234", 72.8780, 19.0762)
	second.Owner = "New Owner"
	if err := s.Upsert(second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected exactly one record after double upsert, got %d", s.Len())
	}
	got, ok, err := s.Get("MH-01-AB-1234")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Owner != "New Owner" {
		t.Errorf("last write must win, got owner %q", got.Owner)
	}
}

func TestFindWithinRadiusOrderingAndBoundary(t *testing.T) {
	s := NewMemoryStore()
	center := geo.Point{Lng: 72.8777, Lat: 19.0760}

	near := mkPermit("NEAR-1", 72.8778, 19.0761)   // ~15m
	mid := mkPermit("MID-1", 72.8782, 19.0763)     // ~60m
	far := mkPermit("FAR-1", 72.9000, 19.1000)     // km away
	for _, p := range []Permit{far, mid, near} {
		if err := s.Upsert(p); err != nil {
			t.Fatalf("upsert %s: %v", p.LicenseID, err)
		}
	}

	got, err := s.FindWithinRadius(center, 100)
	if err != nil {
		t.Fatalf("FindWithinRadius: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hits within 100m, got %d", len(got))
	}
	if got[0].LicenseID != "NEAR-1" || got[1].LicenseID != "MID-1" {
		t.Errorf("expected nearest-first [NEAR-1 MID-1], got [%s %s]", got[0].LicenseID, got[1].LicenseID)
	}

	// Inclusive boundary: a permit exactly on the radius edge is returned.
	d := geo.DistanceMeters(center, near.Location())
	exact, err := s.FindWithinRadius(center, d)
	if err != nil {
		t.Fatalf("FindWithinRadius: %v", err)
	}
	found := false
	for _, p := range exact {
		if p.LicenseID == "NEAR-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("permit at exactly radius distance must be included")
	}
}

func TestFindWithinRadiusTieBreak(t *testing.T) {
	s := NewMemoryStore()
	center := geo.Point{Lng: 72.8777, Lat: 19.0760}

	// Two structures pole-mounted at the same point: identical distance.
	if err := s.Upsert(mkPermit("BBB-2", 72.8778, 19.0761)); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(mkPermit("AAA-1", 72.8778, 19.0761)); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindWithinRadius(center, 50)
	if err != nil {
		t.Fatalf("FindWithinRadius: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(got))
	}
	if got[0].LicenseID != "AAA-1" {
		t.Errorf("ties must order by license_id ascending, got %s first", got[0].LicenseID)
	}
}

func TestFindWithinRadiusEmptyStore(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.FindWithinRadius(geo.Point{Lng: 0, Lat: 0}, 1000)
	if err != nil {
		t.Fatalf("empty store must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestFindWithinRadiusRejectsBadCenter(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.FindWithinRadius(geo.Point{Lng: 300, Lat: 0}, 50); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestExpiredPermitsStayQueryable(t *testing.T) {
	s := NewMemoryStore()
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p := mkPermit("EXP-1", 72.8777, 19.0760)
	p.ValidTo = &past
	if err := s.Upsert(p); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindWithinRadius(geo.Point{Lng: 72.8777, Lat: 19.0760}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expired permits must remain in spatial queries, got %d hits", len(got))
	}
	if !got[0].ExpiredAt(time.Now()) {
		t.Errorf("expected permit to report expired")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := NewMemoryStore()
	center := geo.Point{Lng: 72.8777, Lat: 19.0760}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := mkPermit("CONC-1", 72.8777, 19.0760)
				if err := s.Upsert(p); err != nil {
					t.Errorf("upsert: %v", err)
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hits, err := s.FindWithinRadius(center, 50)
				if err != nil {
					t.Errorf("query: %v", err)
					return
				}
				// A reader never sees a partially written permit.
				for _, h := range hits {
					if h.LicenseID == "" || h.Owner == "" {
						t.Error("observed partially written permit")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}
