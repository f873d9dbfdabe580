package zones

import (
	"encoding/json"
	"net/http"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/BillboardMonitor/BM-Backend/internal/geo"
)

// ListZones returns the sensitive-zone reference data, optionally filtered
// by category.
func ListZones(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&SensitiveZone{}).Order("category, name")

	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var out []SensitiveZone
	if err := query.Find(&out).Error; err != nil {
		http.Error(w, "Failed to fetch zones: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

type createZoneRequest struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Center   *geo.Point   `json:"center,omitempty"`
	RadiusM  float64      `json:"radius_m,omitempty"`
	Polygon  [][2]float64 `json:"polygon,omitempty"`
}

// CreateZone registers a new sensitive zone (officers only).
func CreateZone(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Category == "" {
		http.Error(w, "Name and category are required", http.StatusBadRequest)
		return
	}

	zone := SensitiveZone{Name: req.Name, Category: req.Category, Source: "api"}

	switch {
	case len(req.Polygon) >= 3:
		ring := make([]geo.Point, 0, len(req.Polygon))
		for _, c := range req.Polygon {
			p := geo.Point{Lng: c[0], Lat: c[1]}
			if err := geo.Validate(p); err != nil {
				http.Error(w, "Invalid polygon coordinate", http.StatusBadRequest)
				return
			}
			ring = append(ring, p)
		}
		wkt := polygonWKT(ring)
		zone.Geometry = &wkt
	case req.Center != nil && req.RadiusM > 0:
		if err := geo.Validate(*req.Center); err != nil {
			http.Error(w, "Invalid center coordinate", http.StatusBadRequest)
			return
		}
		zone.CenterLng = req.Center.Lng
		zone.CenterLat = req.Center.Lat
		zone.RadiusM = req.RadiusM
	default:
		http.Error(w, "Zone needs a polygon or a center with radius_m", http.StatusBadRequest)
		return
	}

	if err := db.DB.Create(&zone).Error; err != nil {
		http.Error(w, "Failed to create zone: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(zone)
}
