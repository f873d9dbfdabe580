package permits

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/go-chi/chi/v5"
)

const maxCSVBytes = 10 << 20

// UploadPermits ingests a permit CSV (officers only). Bad rows are dropped
// and counted; only an unreadable stream fails the request.
func UploadPermits(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCSVBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("csv")
	if err != nil {
		http.Error(w, "CSV file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	summary, err := IngestCSV(file, Index)
	if err != nil {
		http.Error(w, "Failed to ingest permits: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// GetPermits lists permits with optional license substring and
// active/expired filters.
func GetPermits(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Permit{}).Order("created_at DESC")

	if license := r.URL.Query().Get("license_id"); license != "" {
		query = query.Where("license_id ILIKE ?", "%"+license+"%")
	}
	switch r.URL.Query().Get("status") {
	case "expired":
		query = query.Where("valid_to < ?", time.Now().UTC())
	case "active":
		query = query.Where("valid_to IS NULL OR valid_to >= ?", time.Now().UTC())
	}

	var out []Permit
	if err := query.Find(&out).Error; err != nil {
		http.Error(w, "Failed to fetch permits: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// CreatePermit registers a single permit (officers only).
func CreatePermit(w http.ResponseWriter, r *http.Request) {
	var p Permit
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := Index.Upsert(p); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create permit: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// UpdatePermit patches fields on an existing permit (officers only). The
// record keeps its license_id; the patched row goes back through the same
// validated upsert path as ingestion.
func UpdatePermit(w http.ResponseWriter, r *http.Request) {
	licenseID := chi.URLParam(r, "id")

	existing, ok, err := Index.Get(licenseID)
	if err != nil {
		http.Error(w, "Failed to fetch permit: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Permit not found", http.StatusNotFound)
		return
	}

	var patch Permit
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	patch.LicenseID = existing.LicenseID
	patch.CreatedAt = existing.CreatedAt
	if patch.Owner == "" {
		patch.Owner = existing.Owner
	}
	if patch.Longitude == 0 && patch.Latitude == 0 {
		patch.Longitude = existing.Longitude
		patch.Latitude = existing.Latitude
	}

	if err := Index.Upsert(patch); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to update permit: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patch)
}
