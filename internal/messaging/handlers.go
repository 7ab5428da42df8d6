package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
	"github.com/kmush12/PineLock/internal/lock"
)

// LockStore is the slice of the lock repository the handlers need.
type LockStore interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*lock.Lock, error)
	UpdateReportedStatus(ctx context.Context, deviceID string, status lock.ReportedStatus) error
	Touch(ctx context.Context, deviceID string) error
}

// LogStore appends access log entries.
type LogStore interface {
	Create(ctx context.Context, entry *lock.AccessLog) error
}

// PendingStore records sightings of unregistered devices.
type PendingStore interface {
	Upsert(ctx context.Context, deviceID string) error
}

// Syncer pushes a device's credential configuration to it.
// Satisfied by *configsync.Engine.
type Syncer interface {
	SyncDevice(ctx context.Context, deviceID string) error
}

// EventSink fans events out to dashboard subscribers.
// Satisfied by *events.Broadcaster; nil disables broadcasting.
type EventSink interface {
	Broadcast(eventType string, data any)
}

// Telemetry records time-series points for access events, heartbeats
// and lock state. Satisfied by *influxdb.Client; nil disables it.
type Telemetry interface {
	RecordAccessEvent(deviceID, accessType string, success bool, ts time.Time)
	RecordHeartbeat(deviceID string)
	RecordLockState(deviceID string, locked bool)
}

// Handlers implements the inbound message handlers for all five device
// message types.
//
// Every handler treats an unknown device the same way: the sighting is
// upserted into the pending store and the frame is otherwise ignored.
// Malformed payloads are rejected with an error, which the dispatcher
// logs and drops.
type Handlers struct {
	locks     LockStore
	logs      LogStore
	pending   PendingStore
	syncer    Syncer
	events    EventSink
	telemetry Telemetry
	logger    Logger
}

// HandlersOptions holds the handler dependencies.
type HandlersOptions struct {
	Locks   LockStore    // required
	Logs    LogStore     // required
	Pending PendingStore // required
	Syncer  Syncer       // required
	Events  EventSink    // optional
	Telem   Telemetry    // optional
	Logger  Logger       // optional
}

// NewHandlers creates the handler set.
func NewHandlers(opts HandlersOptions) *Handlers {
	return &Handlers{
		locks:     opts.Locks,
		logs:      opts.Logs,
		pending:   opts.Pending,
		syncer:    opts.Syncer,
		events:    opts.Events,
		telemetry: opts.Telem,
		logger:    opts.Logger,
	}
}

// Register binds all handlers to their message types.
func (h *Handlers) Register(r *Registry) {
	r.Register(mqtt.TypeStatus, HandlerFunc(h.HandleStatus))
	r.Register(mqtt.TypeAccess, HandlerFunc(h.HandleAccess))
	r.Register(mqtt.TypeHeartbeat, HandlerFunc(h.HandleHeartbeat))
	r.Register(mqtt.TypeSync, HandlerFunc(h.HandleSyncRequest))
	r.Register(mqtt.TypeAlert, HandlerFunc(h.HandleAlert))
}

// HandleStatus applies a state report to the lock record.
func (h *Handlers) HandleStatus(ctx context.Context, deviceID string, payload []byte) error {
	var p StatusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	if p.IsLocked == nil {
		return fmt.Errorf("status frame missing is_locked")
	}

	status := lock.ReportedStatus{
		IsLocked:     *p.IsLocked,
		IsKeyPresent: p.IsKeyPresent,
		IsDoorOpen:   p.IsDoorOpen,
	}

	if err := h.locks.UpdateReportedStatus(ctx, deviceID, status); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return h.recordPending(ctx, deviceID)
		}
		return fmt.Errorf("update status: %w", err)
	}

	h.broadcast("status_changed", map[string]any{
		"device_id": deviceID,
		"is_locked": *p.IsLocked,
	})
	if h.telemetry != nil {
		h.telemetry.RecordLockState(deviceID, *p.IsLocked)
	}

	return nil
}

// HandleAccess appends an access attempt to the log.
//
// Entries are append-only: a replayed frame after a device reconnect
// appends again rather than being deduplicated. Duplicates are cheap;
// a lost entry on a physical access system is not.
func (h *Handlers) HandleAccess(ctx context.Context, deviceID string, payload []byte) error {
	var p AccessPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode access: %w", err)
	}
	if p.AccessType == "" {
		return fmt.Errorf("access frame missing access_type")
	}
	if p.Success == nil {
		return fmt.Errorf("access frame missing success")
	}

	l, err := h.locks.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return h.recordPending(ctx, deviceID)
		}
		return fmt.Errorf("resolve device: %w", err)
	}

	ts := p.Timestamp.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	entry := &lock.AccessLog{
		LockID:       l.ID,
		AccessType:   p.AccessType,
		AccessMethod: p.AccessMethod,
		Success:      *p.Success,
		Timestamp:    ts,
	}
	if err := h.logs.Create(ctx, entry); err != nil {
		return fmt.Errorf("append access log: %w", err)
	}

	// The frame proves the device is alive.
	if err := h.locks.Touch(ctx, deviceID); err != nil {
		h.logWarn("touch after access failed", "device_id", deviceID, "error", err.Error())
	}

	h.broadcast("access_event", map[string]any{
		"device_id":   deviceID,
		"lock_id":     l.ID,
		"access_type": p.AccessType,
		"success":     *p.Success,
		"timestamp":   ts.Format(time.RFC3339),
	})
	if h.telemetry != nil {
		h.telemetry.RecordAccessEvent(deviceID, p.AccessType, *p.Success, ts)
	}

	return nil
}

// HandleHeartbeat marks the device online. The payload is ignored;
// arrival is the signal.
func (h *Handlers) HandleHeartbeat(ctx context.Context, deviceID string, _ []byte) error {
	if err := h.locks.Touch(ctx, deviceID); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return h.recordPending(ctx, deviceID)
		}
		return fmt.Errorf("touch: %w", err)
	}

	if h.telemetry != nil {
		h.telemetry.RecordHeartbeat(deviceID)
	}

	return nil
}

// HandleSyncRequest pushes the device's current credential set back to
// it. Devices request this on boot and after flash corruption.
func (h *Handlers) HandleSyncRequest(ctx context.Context, deviceID string, _ []byte) error {
	if _, err := h.locks.GetByDeviceID(ctx, deviceID); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return h.recordPending(ctx, deviceID)
		}
		return fmt.Errorf("resolve device: %w", err)
	}

	if err := h.syncer.SyncDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("sync device: %w", err)
	}

	return nil
}

// HandleAlert fans an alert out to event subscribers. An alerting
// device is a live device, so it is marked online too.
func (h *Handlers) HandleAlert(ctx context.Context, deviceID string, payload []byte) error {
	var p AlertPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode alert: %w", err)
	}
	if p.AlertType == "" {
		return fmt.Errorf("alert frame missing alert_type")
	}

	if err := h.locks.Touch(ctx, deviceID); err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return h.recordPending(ctx, deviceID)
		}
		return fmt.Errorf("touch: %w", err)
	}

	h.broadcast("alert", map[string]any{
		"device_id":  deviceID,
		"alert_type": p.AlertType,
		"message":    p.Message,
	})

	h.logWarn("device alert",
		"device_id", deviceID,
		"alert_type", p.AlertType)

	return nil
}

// recordPending logs a sighting of a device that has no lock record.
func (h *Handlers) recordPending(ctx context.Context, deviceID string) error {
	if err := h.pending.Upsert(ctx, deviceID); err != nil {
		return fmt.Errorf("record pending device: %w", err)
	}

	if h.logger != nil {
		h.logger.Debug("frame from unregistered device", "device_id", deviceID)
	}

	return nil
}

func (h *Handlers) broadcast(eventType string, data any) {
	if h.events != nil {
		h.events.Broadcast(eventType, data)
	}
}

func (h *Handlers) logWarn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
