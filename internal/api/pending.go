package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kmush12/PineLock/internal/lock"
)

// defaultPendingRetentionHours is used when the config leaves the
// retention unset.
const defaultPendingRetentionHours = 24

// handleListPending returns devices that have been heard from but never
// registered.
//
// Expiry is lazy: stale sightings are removed here, on the read path,
// rather than by a background job. A device that keeps talking keeps
// refreshing its last_seen and never expires.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	retention := s.pendingCfg.RetentionHours
	if retention <= 0 {
		retention = defaultPendingRetentionHours
	}
	cutoff := time.Now().UTC().Add(-time.Duration(retention) * time.Hour)

	removed, err := s.pending.ExpireBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("pending expiry failed", "error", err)
	} else if removed > 0 {
		s.logger.Debug("expired stale pending devices", "count", removed)
	}

	devices, err := s.pending.List(ctx)
	if err != nil {
		writeInternalError(w, "failed to list pending devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending_devices": devices, "count": len(devices)})
}

// handleDeletePending dismisses a pending device sighting.
func (s *Server) handleDeletePending(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	if err := s.pending.DeleteByDeviceID(r.Context(), deviceID); err != nil {
		if errors.Is(err, lock.ErrPendingNotFound) {
			writeNotFound(w, "pending device not found")
			return
		}
		writeInternalError(w, "failed to delete pending device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
