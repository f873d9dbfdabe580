package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/BillboardMonitor/BM-Backend/internal/engine"
	"github.com/BillboardMonitor/BM-Backend/internal/geo"
	"github.com/BillboardMonitor/BM-Backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
)

const (
	maxUploadBytes  = 10 << 20 // multipart memory cap, matches the upload policy
	evaluateTimeout = 5 * time.Second
)

// SubmitReport ingests one citizen report: image + GPS point + client
// signals. The engine's verdict is computed before anything is persisted; an
// engine failure returns a distinguishable server error and stores nothing,
// so the client can retry instead of silently filing a violation-free report.
func SubmitReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	gpsRaw := r.FormValue("gps_point")
	file, header, fileErr := r.FormFile("image")
	if fileErr != nil || gpsRaw == "" {
		http.Error(w, "Image and GPS location required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var point geo.Point
	if err := json.Unmarshal([]byte(gpsRaw), &point); err != nil {
		http.Error(w, "Invalid gps_point", http.StatusBadRequest)
		return
	}
	if err := geo.Validate(point); err != nil {
		http.Error(w, "GPS coordinates out of range", http.StatusBadRequest)
		return
	}

	var signals engine.ClientSignals
	if rulesRaw := r.FormValue("rules_triggered"); rulesRaw != "" {
		if err := json.Unmarshal([]byte(rulesRaw), &signals); err != nil {
			http.Error(w, "Invalid rules_triggered", http.StatusBadRequest)
			return
		}
	}

	// Bounded deadline: a hung zone query must not hang report submission.
	ctx, cancel := context.WithTimeout(r.Context(), evaluateTimeout)
	defer cancel()

	result, err := Engine.Evaluate(ctx, point, signals)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			http.Error(w, "GPS coordinates out of range", http.StatusBadRequest)
			return
		}
		http.Error(w, "Violation matching unavailable, please retry: "+err.Error(), http.StatusBadGateway)
		return
	}

	var imageKey string
	if Images != nil {
		contentType := header.Header.Get("Content-Type")
		key := fmt.Sprintf("%d-%s.jpg", time.Now().UnixMilli(), utils.GenerateUUID())
		imageKey, err = Images.Put(ctx, key, file, header.Size, contentType)
		if err != nil {
			http.Error(w, "Failed to store image: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	rulesJSON, err := json.Marshal(signals)
	if err != nil {
		http.Error(w, "Failed to encode client rules", http.StatusInternalServerError)
		return
	}
	serverJSON, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Failed to encode match result", http.StatusInternalServerError)
		return
	}

	report := Report{
		UserID:         userID,
		Longitude:      point.Lng,
		Latitude:       point.Lat,
		ImageKey:       imageKey,
		LocalHash:      r.FormValue("local_hash"),
		RulesTriggered: JSONB(rulesJSON),
		ServerRules:    JSONB(serverJSON),
		Violations:     pq.StringArray(result.Violations),
		Status:         StatusPending,
	}
	if result.PermitMatch != nil {
		license := result.PermitMatch.LicenseID
		report.PermitMatchID = &license
	}

	if err := db.DB.Create(&report).Error; err != nil {
		http.Error(w, "Failed to save report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(report)
}

// GetReports lists reports with optional status and date filters.
func GetReports(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Model(&Report{}).Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := r.URL.Query().Get("from_date"); from != "" {
		query = query.Where("created_at >= ?", from)
	}
	if to := r.URL.Query().Get("to_date"); to != "" {
		query = query.Where("created_at <= ?", to)
	}

	var out []Report
	if err := query.Find(&out).Error; err != nil {
		http.Error(w, "Failed to fetch reports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// GetReportByID returns one report.
func GetReportByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var report Report
	if err := db.DB.First(&report, "id = ?", id).Error; err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateReportStatus moves a report through the review workflow (officers
// only; enforced by the route middleware).
func UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case StatusPending, StatusNoticeSent, StatusDismissed:
	default:
		http.Error(w, "Unknown status: "+req.Status, http.StatusBadRequest)
		return
	}

	var report Report
	if err := db.DB.First(&report, "id = ?", id).Error; err != nil {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}

	updates := map[string]interface{}{"status": req.Status, "notes": req.Notes}
	if err := db.DB.Model(&report).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
