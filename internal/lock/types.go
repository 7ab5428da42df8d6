package lock

import "time"

// Card types. Only key_tag denotes the physical-key-presence tag, of
// which a device has at most one; every other type is an access card.
const (
	CardTypeKeyTag = "key_tag"
	CardTypeAccess = "access"
)

// Access event types as reported by device firmware.
const (
	AccessTypePIN    = "pin"
	AccessTypeRFID   = "rfid"
	AccessTypeRemote = "remote"
)

// Command actions accepted by device firmware.
const (
	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

// Lock represents one physical access-control unit.
//
// The is_online/is_locked/is_key_present/is_door_open fields are
// reported state: they are mutated only by the reconciliation handlers
// as device messages arrive, never set directly through the API.
type Lock struct {
	ID           int64     `json:"id"`
	DeviceID     string    `json:"device_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
	IsOnline     bool      `json:"is_online"`
	IsLocked     bool      `json:"is_locked"`
	IsKeyPresent bool      `json:"is_key_present"`
	IsDoorOpen   bool      `json:"is_door_open"`
	LastSeen     time.Time `json:"last_seen"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReportedStatus carries the fields a device reports in a status frame.
// IsKeyPresent and IsDoorOpen are nil when the firmware omitted them,
// in which case the stored value is left untouched.
type ReportedStatus struct {
	IsLocked     bool
	IsKeyPresent *bool
	IsDoorOpen   *bool
}

// AccessCode is a PIN credential. LockID nil means a master PIN valid
// on every device in the fleet.
//
// ValidFrom/ValidUntil bound the intended validity window. They are
// stored and surfaced but not yet enforced during sync: the full
// credential set is pushed and the firmware applies it as-is.
type AccessCode struct {
	ID         int64      `json:"id"`
	LockID     *int64     `json:"lock_id"`
	Code       string     `json:"code"`
	Name       string     `json:"name,omitempty"`
	IsActive   bool       `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsMaster reports whether the code applies fleet-wide.
func (c *AccessCode) IsMaster() bool {
	return c.LockID == nil
}

// RFIDCard is a card or tag credential scoped to one device.
type RFIDCard struct {
	ID         int64      `json:"id"`
	LockID     *int64     `json:"lock_id"`
	CardUID    string     `json:"card_uid"`
	Name       string     `json:"name,omitempty"`
	CardType   string     `json:"card_type"`
	IsActive   bool       `json:"is_active"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AccessLog is one append-only audit record of an access attempt.
// Rows are never updated or deduplicated.
type AccessLog struct {
	ID           int64     `json:"id"`
	LockID       int64     `json:"lock_id"`
	AccessType   string    `json:"access_type"`
	AccessMethod string    `json:"access_method,omitempty"`
	Success      bool      `json:"success"`
	Timestamp    time.Time `json:"timestamp"`
}

// PendingDevice is a provisional record for a device identifier seen on
// the bus with no matching Lock. Registering the lock deletes it; stale
// entries are expired lazily from the dashboard read path.
type PendingDevice struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"device_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
