package handler

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"creator-marketplace-service/internal/http/response"
)

type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready fails when the database is unreachable so load balancers stop
// routing before requests start erroring.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			response.Error(w, r, http.StatusServiceUnavailable, "INTERNAL", "database unavailable", nil)
			return
		}
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
