package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
	"github.com/kmush12/PineLock/internal/lock"
)

// commandPayload is the frame published to a device's command topic.
type commandPayload struct {
	Action string `json:"action"`
}

// createLockRequest is the body for registering a lock.
type createLockRequest struct {
	DeviceID    string `json:"device_id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// updateLockRequest is the body for a partial lock update.
// Nil fields are left unchanged.
type updateLockRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// parseID extracts the numeric {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// handleListLocks returns all registered locks.
func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	locks, err := s.locks.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list locks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locks": locks, "count": len(locks)})
}

// handleCreateLock registers a new lock.
//
// Registering a device ID that was sitting in the pending list consumes
// the pending entry, and the new lock immediately receives a credential
// snapshot so it starts with a known-empty set.
func (s *Server) handleCreateLock(w http.ResponseWriter, r *http.Request) {
	var req createLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	l := &lock.Lock{
		DeviceID:    req.DeviceID,
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
	}
	if err := lock.ValidateLock(l); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ctx := r.Context()
	if err := s.locks.Create(ctx, l); err != nil {
		if errors.Is(err, lock.ErrDuplicateDeviceID) {
			writeConflict(w, "device_id already registered")
			return
		}
		writeInternalError(w, "failed to create lock")
		return
	}

	// The device is no longer unregistered.
	if err := s.pending.DeleteByDeviceID(ctx, l.DeviceID); err != nil && !errors.Is(err, lock.ErrPendingNotFound) {
		s.logger.Warn("failed to clear pending entry", "device_id", l.DeviceID, "error", err)
	}

	// Initial sync is best-effort; a device that misses it requests one
	// on its next boot.
	if err := s.syncer.SyncDevice(ctx, l.DeviceID); err != nil {
		s.logger.Warn("initial sync failed", "device_id", l.DeviceID, "error", err)
	}

	s.events.Broadcast("lock_created", map[string]any{
		"id":        l.ID,
		"device_id": l.DeviceID,
		"name":      l.Name,
	})

	writeJSON(w, http.StatusCreated, l)
}

// handleGetLock returns a single lock by ID.
func (s *Server) handleGetLock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	l, err := s.locks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleUpdateLock applies a partial update to a lock's metadata.
// Reported state fields are owned by the device and cannot be edited.
func (s *Server) handleUpdateLock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	var req updateLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	l, err := s.locks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}

	if req.Name != nil {
		l.Name = *req.Name
	}
	if req.Location != nil {
		l.Location = *req.Location
	}
	if req.Description != nil {
		l.Description = *req.Description
	}

	if err := lock.ValidateLock(l); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.locks.Update(ctx, l); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to update lock")
		return
	}

	s.events.Broadcast("lock_updated", map[string]any{
		"id":        l.ID,
		"device_id": l.DeviceID,
		"name":      l.Name,
	})

	writeJSON(w, http.StatusOK, l)
}

// handleDeleteLock removes a lock and its device-scoped credentials.
func (s *Server) handleDeleteLock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	ctx := r.Context()
	l, err := s.locks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}

	if err := s.locks.Delete(ctx, id); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to delete lock")
		return
	}

	s.events.Broadcast("lock_deleted", map[string]any{
		"id":        id,
		"device_id": l.DeviceID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleLockCommand publishes a lock or unlock command to the device.
//
// The response is 202: the command was handed to the broker, and the
// device reports the actual result on its status topic.
func (s *Server) handleLockCommand(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	var req commandPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := lock.ValidateAction(req.Action); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	l, err := s.locks.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}

	if s.commander == nil {
		writeUnavailable(w, "message broker unavailable")
		return
	}
	if err := s.commander.PublishDevice(l.DeviceID, mqtt.TypeCommand, commandPayload{Action: req.Action}); err != nil {
		writeUnavailable(w, "failed to publish command")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "sent",
		"device_id": l.DeviceID,
		"action":    req.Action,
	})
}

// handleLockSync pushes a fresh credential snapshot to the device.
func (s *Server) handleLockSync(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid lock id")
		return
	}

	ctx := r.Context()
	l, err := s.locks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			writeNotFound(w, "lock not found")
			return
		}
		writeInternalError(w, "failed to get lock")
		return
	}

	if err := s.syncer.SyncDevice(ctx, l.DeviceID); err != nil {
		writeUnavailable(w, "failed to sync device")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "synced",
		"device_id": l.DeviceID,
	})
}
