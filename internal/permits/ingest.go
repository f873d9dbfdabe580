package permits

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxReasons bounds the rejection detail returned to the uploader. Counts are
// always exact; only the per-row explanations are truncated.
const maxReasons = 10

// Summary is the result of one best-effort CSV ingestion run. Re-running the
// same file is safe: every accepted row is an upsert on license_id.
type Summary struct {
	Accepted int      `json:"accepted_count"`
	Rejected int      `json:"rejected_count"`
	Reasons  []string `json:"rejection_reasons,omitempty"`
}

// Column synonyms accepted in permit CSV headers, matched case-insensitively.
// Mirrors the header variants municipal registries actually export.
var columnSynonyms = map[string][]string{
	"license_id": {"license_id", "id"},
	"owner":      {"owner", "permit_holder"},
	"longitude":  {"longitude", "lng", "lon"},
	"latitude":   {"latitude", "lat"},
	"width_m":    {"width_m", "width"},
	"height_m":   {"height_m", "height"},
	"valid_from": {"valid_from", "start_date"},
	"valid_to":   {"valid_to", "end_date", "expiry"},
	"notes":      {"notes", "remarks"},
}

// Date layouts tried in order when parsing valid_from / valid_to.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// IngestCSV parses a permit CSV and upserts every acceptable row into store.
// A row is kept only if license_id, owner, and a valid location are all
// present; everything else is dropped and counted, never aborting the batch.
// Only an unreadable stream fails the whole call.
func IngestCSV(r io.Reader, store Store) (Summary, error) {
	// Tolerate UTF-8/UTF-16 BOMs from spreadsheet exports.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Summary{}, fmt.Errorf("reading permit csv: %w", err)
	}
	if len(records) < 2 {
		return Summary{}, fmt.Errorf("permit csv has no data rows")
	}

	col := resolveColumns(records[0])

	var sum Summary
	reject := func(rowNum int, reason string) {
		sum.Rejected++
		if len(sum.Reasons) < maxReasons {
			sum.Reasons = append(sum.Reasons, fmt.Sprintf("row %d: %s", rowNum, reason))
		}
	}

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		rowNum := rowIdx + 1

		get := func(field string) string {
			i, ok := col[field]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		licenseID := get("license_id")
		owner := get("owner")
		if licenseID == "" {
			reject(rowNum, "missing license_id")
			continue
		}
		if owner == "" {
			reject(rowNum, "missing owner")
			continue
		}

		loc, ok := parseLocation(get("longitude"), get("latitude"))
		if !ok {
			reject(rowNum, "missing or invalid location")
			continue
		}

		p := Permit{
			LicenseID: licenseID,
			Owner:     owner,
			Longitude: loc.Lng,
			Latitude:  loc.Lat,
			WidthM:    parseOptionalFloat(get("width_m")),
			HeightM:   parseOptionalFloat(get("height_m")),
			ValidFrom: parseOptionalDate(get("valid_from")),
			ValidTo:   parseOptionalDate(get("valid_to")),
			Notes:     get("notes"),
		}

		if err := store.Upsert(p); err != nil {
			reject(rowNum, err.Error())
			continue
		}
		sum.Accepted++
	}

	return sum, nil
}

// resolveColumns maps canonical field names to column indexes via the synonym
// table. First synonym present wins; unknown columns are ignored.
func resolveColumns(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	col := make(map[string]int, len(columnSynonyms))
	for field, names := range columnSynonyms {
		for _, name := range names {
			if i, ok := index[name]; ok {
				col[field] = i
				break
			}
		}
	}
	return col
}

func parseLocation(lngStr, latStr string) (geo.Point, bool) {
	if lngStr == "" || latStr == "" {
		return geo.Point{}, false
	}
	lng, err1 := strconv.ParseFloat(lngStr, 64)
	lat, err2 := strconv.ParseFloat(latStr, 64)
	if err1 != nil || err2 != nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lng: lng, Lat: lat}
	return p, geo.IsValid(p)
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// parseOptionalDate tries the known layouts; an unparseable value becomes
// absent rather than a fabricated default.
func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
