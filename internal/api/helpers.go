package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/printpulse/printpulse/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseLimitOffset(r *http.Request, def, max int) (int, int, error) {
	limit := def
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		if v > max {
			v = max
		}
		limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", raw)
		}
		offset = v
	}
	return limit, offset, nil
}

// deliveryDTO is the JSON shape served for history rows.
type deliveryDTO struct {
	ID          string  `json:"id"`
	EventType   string  `json:"event_type"`
	JobName     string  `json:"job_name,omitempty"`
	Percent     *int    `json:"percent,omitempty"`
	AttemptedAt string  `json:"attempted_at"`
	Outcome     string  `json:"outcome"`
	StatusCode  int     `json:"status_code"`
	Error       *string `json:"error,omitempty"`
}

func toDeliveryDTOs(recs []store.DeliveryRecord) []deliveryDTO {
	out := make([]deliveryDTO, 0, len(recs))
	for _, rec := range recs {
		dto := deliveryDTO{
			ID:          rec.ID.String(),
			EventType:   rec.EventType,
			JobName:     rec.JobName,
			AttemptedAt: rec.AttemptedAt.UTC().Format(time.RFC3339Nano),
			Outcome:     string(rec.Outcome),
			StatusCode:  rec.StatusCode,
			Error:       rec.Error,
		}
		if rec.Percent >= 0 {
			p := rec.Percent
			dto.Percent = &p
		}
		out = append(out, dto)
	}
	return out
}
