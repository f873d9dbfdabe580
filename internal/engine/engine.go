// Package engine is the compliance matching core: given a report's GPS point
// and the client's heuristic flags, it decides server-side which placement
// rules the billboard violates. It owns no state beyond its injected permit
// store and zone provider, so evaluations are safe to run concurrently.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"github.com/BillboardMonitor/BM-Backend/internal/permits"
	"github.com/BillboardMonitor/BM-Backend/internal/zones"
)

// Violation kinds, in the vocabulary stored on reports.
const (
	ViolationNoPermitFound   = "no_permit_found"
	ViolationExpiredPermit   = "expired_permit"
	ViolationGeofence        = "geofence_violation"
	ViolationStructuralTilt  = "structural_tilt"
	ViolationNoLicenseMarker = "no_license_marker"
)

// DefaultMatchRadiusM is the policy radius for permit proximity matching.
// Treated as configuration, not an invariant.
const DefaultMatchRadiusM = 50.0

// OCRResult carries the client-side OCR reading of the license marker.
type OCRResult struct {
	LicenseID string `json:"license_id"`
}

// ClientSignals are the heuristic flags computed on the citizen's device.
// They are hints, not ground truth: the geofence hint in particular is stored
// for audit but membership is always recomputed server-side.
type ClientSignals struct {
	StructuralTilt        bool       `json:"structural_tilt"`
	NoLicenseMarker       bool       `json:"no_license_marker"`
	OCRResult             *OCRResult `json:"ocr_result,omitempty"`
	GeofenceViolationHint bool       `json:"geofence_violation_hint"`
}

// MatchResult is the canonical violation record attached to a report.
// Violations are insertion-ordered and duplicate-free by construction; the
// struct is never mutated after Evaluate returns it.
type MatchResult struct {
	Timestamp          time.Time       `json:"timestamp"`
	Violations         []string        `json:"violations"`
	PermitMatch        *permits.Permit `json:"permit_match,omitempty"`
	GeofenceViolations []zones.Zone    `json:"geofence_violations"`
}

// Config holds the engine's policy knobs.
type Config struct {
	MatchRadiusM float64
}

// Engine wires the permit store and zone provider into the rule-aggregation
// step. Construct one per process and share it; all fields are read-only
// after New.
type Engine struct {
	store  permits.Store
	zones  zones.Provider
	config Config
	now    func() time.Time
}

func New(store permits.Store, provider zones.Provider, cfg Config) *Engine {
	if cfg.MatchRadiusM <= 0 {
		cfg.MatchRadiusM = DefaultMatchRadiusM
	}
	return &Engine{
		store:  store,
		zones:  provider,
		config: cfg,
		now:    time.Now,
	}
}

// Evaluate runs the fixed-order rule pipeline for one report. The order
// matters: it determines the violations sequence persisted on the report.
//
//  1. permits within the match radius (inclusive boundary)
//  2. no_permit_found, or OCR fuzzy match -> permit_match / expired_permit
//  3. server-side geofence check -> geofence_violation
//  4. structural_tilt passthrough
//  5. no_license_marker, only when no permit was matched
//
// Expiry follows the registry convention the reference data uses: valid_to
// is a date, and a permit expiring 2024-01-01 is treated as expired from
// 2024-01-01T00:00:00Z onward.
//
// Dependency failures fail the whole evaluation; a result is never fabricated
// from a partial read.
func (e *Engine) Evaluate(ctx context.Context, point geo.Point, signals ClientSignals) (*MatchResult, error) {
	if err := geo.Validate(point); err != nil {
		return nil, err
	}

	result := &MatchResult{
		Violations:         []string{},
		GeofenceViolations: []zones.Zone{},
	}
	seen := make(map[string]bool)
	appendViolation := func(kind string) {
		if !seen[kind] {
			seen[kind] = true
			result.Violations = append(result.Violations, kind)
		}
	}

	nearby, err := e.store.FindWithinRadius(point, e.config.MatchRadiusM)
	if err != nil {
		return nil, fmt.Errorf("permit lookup: %w", err)
	}

	if len(nearby) == 0 {
		appendViolation(ViolationNoPermitFound)
	} else if signals.OCRResult != nil && signals.OCRResult.LicenseID != "" {
		// Nearest-first order from the store decides which permit wins when
		// several candidates fuzzy-match the OCR reading.
		for i := range nearby {
			if MatchesLicense(nearby[i].LicenseID, signals.OCRResult.LicenseID) {
				matched := nearby[i]
				result.PermitMatch = &matched
				if matched.ExpiredAt(e.now().UTC()) {
					appendViolation(ViolationExpiredPermit)
				}
				break
			}
		}
	}

	zonesHit, err := e.zones.ViolatedZones(ctx, point)
	if err != nil {
		return nil, fmt.Errorf("geofence check: %w", err)
	}
	result.GeofenceViolations = zonesHit
	if len(zonesHit) > 0 {
		appendViolation(ViolationGeofence)
	}

	if signals.StructuralTilt {
		appendViolation(ViolationStructuralTilt)
	}

	// A missing-marker claim is moot once proximity + OCR already matched a
	// registered permit.
	if signals.NoLicenseMarker && result.PermitMatch == nil {
		appendViolation(ViolationNoLicenseMarker)
	}

	result.Timestamp = e.now().UTC()
	return result, nil
}
