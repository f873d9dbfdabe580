package permits

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

// ErrStoreUnavailable wraps persistence-layer failures on DB-backed stores.
var ErrStoreUnavailable = errors.New("permit store unavailable")

// ValidationError describes a permit rejected on write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid permit: %s %s", e.Field, e.Reason)
}

// Store is the permit index the matching engine reads. Reads on an empty
// store return an empty slice, never an error. A query racing an upsert may
// or may not observe the new record; a single upsert is atomic either way.
type Store interface {
	// Upsert inserts or replaces the record keyed by LicenseID. Permits
	// missing license_id or owner, or with invalid coordinates, are rejected
	// with a *ValidationError.
	Upsert(p Permit) error

	// FindWithinRadius returns every permit within radiusMeters of center
	// (boundary inclusive), nearest first, ties broken by license_id
	// ascending.
	FindWithinRadius(center geo.Point, radiusMeters float64) ([]Permit, error)

	// Get fetches a permit by license_id.
	Get(licenseID string) (Permit, bool, error)
}

func validate(p Permit) error {
	if strings.TrimSpace(p.LicenseID) == "" {
		return &ValidationError{Field: "license_id", Reason: "is required"}
	}
	if strings.TrimSpace(p.Owner) == "" {
		return &ValidationError{Field: "owner", Reason: "is required"}
	}
	if !geo.IsValid(p.Location()) {
		return &ValidationError{Field: "location", Reason: "is out of range"}
	}
	if p.WidthM != nil && *p.WidthM <= 0 {
		return &ValidationError{Field: "width_m", Reason: "must be positive"}
	}
	if p.HeightM != nil && *p.HeightM <= 0 {
		return &ValidationError{Field: "height_m", Reason: "must be positive"}
	}
	return nil
}

// MemoryStore is an in-process Store: a flat map with a bounding-box
// pre-filter on radius queries. Write atomicity comes from the RWMutex.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Permit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Permit)}
}

func (s *MemoryStore) Upsert(p Permit) error {
	if err := validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	s.records[p.LicenseID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindWithinRadius(center geo.Point, radiusMeters float64) ([]Permit, error) {
	sw, ne, err := geo.BoundingBox(center, radiusMeters)
	if err != nil {
		return nil, err
	}

	type hit struct {
		permit Permit
		dist   float64
	}

	s.mu.RLock()
	hits := make([]hit, 0)
	for _, p := range s.records {
		if !geo.InBox(p.Location(), sw, ne) {
			continue
		}
		if d := geo.DistanceMeters(center, p.Location()); d <= radiusMeters {
			hits = append(hits, hit{permit: p, dist: d})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].permit.LicenseID < hits[j].permit.LicenseID
	})

	out := make([]Permit, len(hits))
	for i, h := range hits {
		out[i] = h.permit
	}
	return out, nil
}

func (s *MemoryStore) Get(licenseID string) (Permit, bool, error) {
	s.mu.RLock()
	p, ok := s.records[licenseID]
	s.mu.RUnlock()
	return p, ok, nil
}

// Len reports the number of stored permits. Used by ingestion idempotence
// checks and the upload summary.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every stored permit ordered by license_id. The bulk importer
// drains a validated in-memory batch through this.
func (s *MemoryStore) All() []Permit {
	s.mu.RLock()
	out := make([]Permit, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].LicenseID < out[j].LicenseID })
	return out
}
