package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
)

type DashboardStats struct {
	TotalReports     int64            `json:"total_reports"`
	ReportsByStatus  map[string]int64 `json:"reports_by_status"`
	ViolationsByType map[string]int64 `json:"violations_by_type"`
	TotalPermits     int64            `json:"total_permits"`
	ExpiredPermits   int64            `json:"expired_permits"`
}

// GetDashboardStats aggregates report and permit counts for the officer
// dashboard. Served from cache for up to a minute.
func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stats DashboardStats
	if !cachedJSON(ctx, "analytics:dashboard", &stats) {
		stats.ReportsByStatus = map[string]int64{}
		stats.ViolationsByType = map[string]int64{}

		type statusRow struct {
			Status string
			Count  int64
		}
		var statusRows []statusRow
		err := db.DB.Raw(`
			SELECT status, COUNT(*) AS count
			FROM billboard.reports
			GROUP BY status
		`).Scan(&statusRows).Error
		if err != nil {
			http.Error(w, "Failed to fetch stats: "+err.Error(), http.StatusInternalServerError)
			return
		}
		for _, row := range statusRows {
			stats.ReportsByStatus[row.Status] = row.Count
			stats.TotalReports += row.Count
		}

		type violationRow struct {
			Violation string
			Count     int64
		}
		var violationRows []violationRow
		err = db.DB.Raw(`
			SELECT v AS violation, COUNT(*) AS count
			FROM billboard.reports, unnest(violations) AS v
			GROUP BY v
			ORDER BY count DESC
		`).Scan(&violationRows).Error
		if err != nil {
			http.Error(w, "Failed to fetch stats: "+err.Error(), http.StatusInternalServerError)
			return
		}
		for _, row := range violationRows {
			stats.ViolationsByType[row.Violation] = row.Count
		}

		err = db.DB.Raw(`
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE valid_to IS NOT NULL AND valid_to < NOW()) AS expired
			FROM billboard.permits
		`).Row().Scan(&stats.TotalPermits, &stats.ExpiredPermits)
		if err != nil {
			http.Error(w, "Failed to fetch stats: "+err.Error(), http.StatusInternalServerError)
			return
		}

		storeJSON(ctx, "analytics:dashboard", stats)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

type HeatmapPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Status    string  `json:"status"`
	Weight    int     `json:"weight"` // number of violations on the report
}

// GetHeatmapData returns report locations, optionally clipped to a bounding
// box (min_lng, min_lat, max_lng, max_lat query params).
func GetHeatmapData(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Table("billboard.reports").
		Select("longitude, latitude, status, COALESCE(array_length(violations, 1), 0) AS weight")

	q := r.URL.Query()
	if q.Get("min_lng") != "" {
		minLng, err1 := strconv.ParseFloat(q.Get("min_lng"), 64)
		minLat, err2 := strconv.ParseFloat(q.Get("min_lat"), 64)
		maxLng, err3 := strconv.ParseFloat(q.Get("max_lng"), 64)
		maxLat, err4 := strconv.ParseFloat(q.Get("max_lat"), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			http.Error(w, "Invalid bounding box", http.StatusBadRequest)
			return
		}
		query = query.Where(
			"longitude BETWEEN ? AND ? AND latitude BETWEEN ? AND ?",
			minLng, maxLng, minLat, maxLat,
		)
	}
	if status := q.Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var points []HeatmapPoint
	if err := query.Scan(&points).Error; err != nil {
		http.Error(w, "Failed to fetch heatmap: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	ReportCount int64  `json:"report_count"`
}

// GetLeaderboard ranks citizens by number of submitted reports.
func GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var entries []LeaderboardEntry
	if !cachedJSON(ctx, "analytics:leaderboard", &entries) {
		err := db.DB.Raw(`
			SELECT r.user_id, COALESCE(u.username, 'unknown') AS username, COUNT(*) AS report_count
			FROM billboard.reports r
			LEFT JOIN app_auth.users u ON u.user_id = r.user_id
			GROUP BY r.user_id, u.username
			ORDER BY report_count DESC, r.user_id
			LIMIT 10
		`).Scan(&entries).Error
		if err != nil {
			http.Error(w, "Failed to fetch leaderboard: "+err.Error(), http.StatusInternalServerError)
			return
		}
		storeJSON(ctx, "analytics:leaderboard", entries)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

type TrendBucket struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// GetViolationTrends returns daily report counts for the requested period
// ("7d" or "30d", defaulting to 7d).
func GetViolationTrends(w http.ResponseWriter, r *http.Request) {
	days := 7
	if r.URL.Query().Get("period") == "30d" {
		days = 30
	}

	var buckets []TrendBucket
	err := db.DB.Raw(`
		SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, COUNT(*) AS count
		FROM billboard.reports
		WHERE created_at >= NOW() - make_interval(days => ?)
		GROUP BY day
		ORDER BY day
	`, days).Scan(&buckets).Error
	if err != nil {
		http.Error(w, "Failed to fetch trends: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buckets)
}
