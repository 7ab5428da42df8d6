package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kmush12/PineLock/internal/lock"
)

// createCodeRequest is the body for enrolling a PIN code.
// A nil lock_id makes the code a master credential valid on every lock.
type createCodeRequest struct {
	LockID     *int64     `json:"lock_id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	IsActive   *bool      `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

// updateCodeRequest is the body for a partial code update.
type updateCodeRequest struct {
	Code       *string    `json:"code"`
	Name       *string    `json:"name"`
	IsActive   *bool      `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

// createCardRequest is the body for enrolling an RFID card.
type createCardRequest struct {
	LockID     *int64     `json:"lock_id"`
	CardUID    string     `json:"card_uid"`
	CardType   string     `json:"card_type"`
	Name       string     `json:"name"`
	IsActive   *bool      `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

// updateCardRequest is the body for a partial card update.
type updateCardRequest struct {
	Name       *string    `json:"name"`
	IsActive   *bool      `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

// syncScope pushes fresh snapshots to the devices a credential change
// touches. A master credential (nil lockID) reaches the whole fleet;
// anything else reaches one device.
//
// Sync failures do not fail the API request: the change is already
// committed, and the device heals on its next sync request.
func (s *Server) syncScope(ctx context.Context, lockID *int64) {
	if lockID == nil {
		if err := s.syncer.SyncAll(ctx); err != nil {
			s.logger.Warn("fleet sync after credential change failed", "error", err)
		}
		return
	}

	l, err := s.locks.GetByID(ctx, *lockID)
	if err != nil {
		s.logger.Warn("sync skipped, lock lookup failed", "lock_id", *lockID, "error", err)
		return
	}
	if err := s.syncer.SyncDevice(ctx, l.DeviceID); err != nil {
		s.logger.Warn("sync after credential change failed", "device_id", l.DeviceID, "error", err)
	}
}

// lockExists verifies a lock_id reference before accepting a credential.
func (s *Server) lockExists(ctx context.Context, lockID int64) (bool, error) {
	_, err := s.locks.GetByID(ctx, lockID)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// handleListCodes returns all access codes.
func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codes.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list access codes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_codes": codes, "count": len(codes)})
}

// handleCreateCode enrols a new PIN code and syncs the affected devices.
func (s *Server) handleCreateCode(w http.ResponseWriter, r *http.Request) {
	var req createCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	if req.LockID != nil {
		ok, err := s.lockExists(ctx, *req.LockID)
		if err != nil {
			writeInternalError(w, "failed to verify lock")
			return
		}
		if !ok {
			writeValidationError(w, "lock_id refers to no lock")
			return
		}
	}

	c := &lock.AccessCode{
		LockID:     req.LockID,
		Code:       req.Code,
		Name:       req.Name,
		IsActive:   true,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := lock.ValidateAccessCode(c); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.codes.Create(ctx, c); err != nil {
		writeInternalError(w, "failed to create access code")
		return
	}

	s.syncScope(ctx, c.LockID)

	writeJSON(w, http.StatusCreated, c)
}

// handleGetCode returns a single access code by ID.
func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid access code id")
		return
	}

	c, err := s.codes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, lock.ErrCodeNotFound) {
			writeNotFound(w, "access code not found")
			return
		}
		writeInternalError(w, "failed to get access code")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCode applies a partial update to a code and syncs the
// affected devices. Scope (lock_id) is immutable; delete and re-enrol
// to move a code between locks.
func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid access code id")
		return
	}

	var req updateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	c, err := s.codes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrCodeNotFound) {
			writeNotFound(w, "access code not found")
			return
		}
		writeInternalError(w, "failed to get access code")
		return
	}

	if req.Code != nil {
		c.Code = *req.Code
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.ValidFrom != nil {
		c.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		c.ValidUntil = req.ValidUntil
	}

	if err := lock.ValidateAccessCode(c); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.codes.Update(ctx, c); err != nil {
		if errors.Is(err, lock.ErrCodeNotFound) {
			writeNotFound(w, "access code not found")
			return
		}
		writeInternalError(w, "failed to update access code")
		return
	}

	s.syncScope(ctx, c.LockID)

	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCode removes a code and syncs the affected devices.
func (s *Server) handleDeleteCode(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid access code id")
		return
	}

	ctx := r.Context()

	// Fetch first: scope is needed to know which devices to sync after.
	c, err := s.codes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrCodeNotFound) {
			writeNotFound(w, "access code not found")
			return
		}
		writeInternalError(w, "failed to get access code")
		return
	}

	if err := s.codes.Delete(ctx, id); err != nil {
		if errors.Is(err, lock.ErrCodeNotFound) {
			writeNotFound(w, "access code not found")
			return
		}
		writeInternalError(w, "failed to delete access code")
		return
	}

	s.syncScope(ctx, c.LockID)

	w.WriteHeader(http.StatusNoContent)
}

// handleListCards returns all RFID cards.
func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rfid_cards": cards, "count": len(cards)})
}

// handleCreateCard enrols a new RFID card and syncs its lock.
//
// Cards are device-scoped: an unassigned card (nil lock_id) is held in
// the registry but never synced anywhere.
func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	if req.LockID != nil {
		ok, err := s.lockExists(ctx, *req.LockID)
		if err != nil {
			writeInternalError(w, "failed to verify lock")
			return
		}
		if !ok {
			writeValidationError(w, "lock_id refers to no lock")
			return
		}
	}

	cardType := req.CardType
	if cardType == "" {
		cardType = lock.CardTypeKeyTag
	}

	c := &lock.RFIDCard{
		LockID:     req.LockID,
		CardUID:    req.CardUID,
		CardType:   cardType,
		Name:       req.Name,
		IsActive:   true,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := lock.ValidateRFIDCard(c); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.cards.Create(ctx, c); err != nil {
		writeInternalError(w, "failed to create card")
		return
	}

	if c.LockID != nil {
		s.syncScope(ctx, c.LockID)
	}

	writeJSON(w, http.StatusCreated, c)
}

// handleGetCard returns a single RFID card by ID.
func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	c, err := s.cards.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, lock.ErrCardNotFound) {
			writeNotFound(w, "card not found")
			return
		}
		writeInternalError(w, "failed to get card")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCard applies a partial update to a card and syncs its lock.
func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	var req updateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	c, err := s.cards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrCardNotFound) {
			writeNotFound(w, "card not found")
			return
		}
		writeInternalError(w, "failed to get card")
		return
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.ValidFrom != nil {
		c.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		c.ValidUntil = req.ValidUntil
	}

	if err := lock.ValidateRFIDCard(c); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.cards.Update(ctx, c); err != nil {
		if errors.Is(err, lock.ErrCardNotFound) {
			writeNotFound(w, "card not found")
			return
		}
		writeInternalError(w, "failed to update card")
		return
	}

	if c.LockID != nil {
		s.syncScope(ctx, c.LockID)
	}

	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCard removes a card and syncs its lock.
func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid card id")
		return
	}

	ctx := r.Context()
	c, err := s.cards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lock.ErrCardNotFound) {
			writeNotFound(w, "card not found")
			return
		}
		writeInternalError(w, "failed to get card")
		return
	}

	if err := s.cards.Delete(ctx, id); err != nil {
		if errors.Is(err, lock.ErrCardNotFound) {
			writeNotFound(w, "card not found")
			return
		}
		writeInternalError(w, "failed to delete card")
		return
	}

	if c.LockID != nil {
		s.syncScope(ctx, c.LockID)
	}

	w.WriteHeader(http.StatusNoContent)
}
