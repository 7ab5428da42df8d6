package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kmush12/PineLock/internal/lock"
)

// parseLimit reads the ?limit query parameter. 0 means "repository
// default"; negative or unparseable values are rejected upstream by
// returning 0 as well.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// handleListAccessLogs returns recent access log entries across all locks.
func (s *Server) handleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.logs.List(r.Context(), parseLimit(r))
	if err != nil {
		writeInternalError(w, "failed to list access logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_logs": entries, "count": len(entries)})
}

// handleListLockAccessLogs returns recent access log entries for one lock.
func (s *Server) handleListLockAccessLogs(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	ctx := r.Context()
	if _, err := s.locks.GetByID(ctx, id); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}

	entries, err := s.logs.ListByLock(ctx, id, parseLimit(r))
	if err != nil {
		writeInternalError(w, "failed to list access logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_logs": entries, "count": len(entries)})
}
