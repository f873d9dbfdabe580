package zones

import (
	"context"
	"errors"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

// ErrZoneQueryUnavailable wraps failures of the zone reference dataset.
// Callers must fail the evaluation on it: treating an unreachable dataset as
// "no violations" would systematically under-report.
var ErrZoneQueryUnavailable = errors.New("zone query unavailable")

// Provider answers which sensitive zones a point violates, in the reference
// dataset's natural order. Implementations must be idempotent and
// side-effect-free so the orchestrator can call them once per report.
type Provider interface {
	ViolatedZones(ctx context.Context, p geo.Point) ([]Zone, error)
}
