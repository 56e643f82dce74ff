package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"opssight/internal/pkg/errors"
)

type AuditHandler struct {
	db *sql.DB
}

func NewAuditHandler(db *sql.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT 100`
	rows, err := h.db.Query(query)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var id, userID, action, resType, resID, metaStr, ip, ua string
		var createdAt int64
		if err := rows.Scan(&id, &userID, &action, &resType, &resID, &metaStr, &ip, &ua, &createdAt); err != nil {
			continue
		}

		var meta map[string]interface{}
		json.Unmarshal([]byte(metaStr), &meta)

		logs = append(logs, map[string]interface{}{
			"id":            id,
			"user_id":       userID,
			"action":        action,
			"resource_type": resType,
			"resource_id":   resID,
			"metadata":      meta,
			"ip_address":    ip,
			"user_agent":    ua,
			"created_at":    createdAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
