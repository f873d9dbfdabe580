package reports

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BillboardMonitor/BM-Backend/internal/engine"
	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"github.com/BillboardMonitor/BM-Backend/internal/permits"
	"github.com/BillboardMonitor/BM-Backend/internal/utils"
	"github.com/BillboardMonitor/BM-Backend/internal/zones"
)

// failingStore makes every radius query fail, simulating a permit index
// outage during submission.
type failingStore struct {
	permits.Store
}

func (failingStore) FindWithinRadius(center geo.Point, radiusMeters float64) ([]permits.Permit, error) {
	return nil, permits.ErrStoreUnavailable
}

type noZones struct{}

func (noZones) ViolatedZones(ctx context.Context, p geo.Point) ([]zones.Zone, error) {
	return nil, nil
}

// submitRequest builds a multipart submission with an image part and the
// given form fields, with a user injected into the request context.
func submitRequest(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withImage {
		part, err := mw.CreateFormFile("image", "billboard.jpg")
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("not-a-real-jpeg"))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	ctx := context.WithValue(req.Context(), utils.ContextUserIDKey, "citizen-1")
	return req.WithContext(ctx)
}

func TestSubmitReportMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(""))
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSubmitReportMissingImage(t *testing.T) {
	req := submitRequest(t, map[string]string{
		"gps_point": `{"longitude": 72.8778, "latitude": 19.0761}`,
	}, false)
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitReportMissingGPS(t *testing.T) {
	req := submitRequest(t, nil, true)
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitReportInvalidCoordinates(t *testing.T) {
	req := submitRequest(t, map[string]string{
		"gps_point": `{"longitude": 200, "latitude": 19.0761}`,
	}, true)
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "out of range") {
		t.Errorf("expected out-of-range message, got: %s", rec.Body.String())
	}
}

// A permit index outage must surface as a retryable server error before
// anything is persisted, not as a clean violation-free report.
func TestSubmitReportEngineFailure(t *testing.T) {
	Engine = engine.New(failingStore{}, noZones{}, engine.Config{})
	t.Cleanup(func() { Engine = nil })

	req := submitRequest(t, map[string]string{
		"gps_point": `{"longitude": 72.8778, "latitude": 19.0761}`,
	}, true)
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "retry") {
		t.Errorf("expected retry hint in body, got: %s", rec.Body.String())
	}
}

func TestSubmitReportMalformedSignals(t *testing.T) {
	req := submitRequest(t, map[string]string{
		"gps_point":       `{"longitude": 72.8778, "latitude": 19.0761}`,
		"rules_triggered": `{not json`,
	}, true)
	rec := httptest.NewRecorder()
	SubmitReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d; body: %s", rec.Code, rec.Body.String())
	}
}
