package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/kmush12/PineLock/internal/lock"
)

// fakeLockStore keeps lock records in a map keyed by device ID.
type fakeLockStore struct {
	locks    map[string]*lock.Lock
	statuses map[string]lock.ReportedStatus
	touched  map[string]int
}

func newFakeLockStore(deviceIDs ...string) *fakeLockStore {
	s := &fakeLockStore{
		locks:    make(map[string]*lock.Lock),
		statuses: make(map[string]lock.ReportedStatus),
		touched:  make(map[string]int),
	}
	for i, id := range deviceIDs {
		s.locks[id] = &lock.Lock{ID: int64(i + 1), DeviceID: id, Name: id}
	}
	return s
}

func (s *fakeLockStore) GetByDeviceID(ctx context.Context, deviceID string) (*lock.Lock, error) {
	l, ok := s.locks[deviceID]
	if !ok {
		return nil, lock.ErrLockNotFound
	}
	return l, nil
}

func (s *fakeLockStore) UpdateReportedStatus(ctx context.Context, deviceID string, status lock.ReportedStatus) error {
	if _, ok := s.locks[deviceID]; !ok {
		return lock.ErrLockNotFound
	}
	s.statuses[deviceID] = status
	return nil
}

func (s *fakeLockStore) Touch(ctx context.Context, deviceID string) error {
	if _, ok := s.locks[deviceID]; !ok {
		return lock.ErrLockNotFound
	}
	s.touched[deviceID]++
	return nil
}

type fakeLogStore struct {
	entries []lock.AccessLog
}

func (s *fakeLogStore) Create(ctx context.Context, entry *lock.AccessLog) error {
	entry.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return nil
}

type fakePendingStore struct {
	upserts []string
}

func (s *fakePendingStore) Upsert(ctx context.Context, deviceID string) error {
	s.upserts = append(s.upserts, deviceID)
	return nil
}

type fakeSyncer struct {
	synced []string
}

func (s *fakeSyncer) SyncDevice(ctx context.Context, deviceID string) error {
	s.synced = append(s.synced, deviceID)
	return nil
}

type fakeEventSink struct {
	events []struct {
		Type string
		Data any
	}
}

func (s *fakeEventSink) Broadcast(eventType string, data any) {
	s.events = append(s.events, struct {
		Type string
		Data any
	}{eventType, data})
}

type handlerFixture struct {
	locks   *fakeLockStore
	logs    *fakeLogStore
	pending *fakePendingStore
	syncer  *fakeSyncer
	events  *fakeEventSink
	h       *Handlers
}

func newHandlerFixture(deviceIDs ...string) *handlerFixture {
	f := &handlerFixture{
		locks:   newFakeLockStore(deviceIDs...),
		logs:    &fakeLogStore{},
		pending: &fakePendingStore{},
		syncer:  &fakeSyncer{},
		events:  &fakeEventSink{},
	}
	f.h = NewHandlers(HandlersOptions{
		Locks:   f.locks,
		Logs:    f.logs,
		Pending: f.pending,
		Syncer:  f.syncer,
		Events:  f.events,
	})
	return f
}

func TestHandleStatus(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	payload := []byte(`{"is_locked":false,"is_door_open":true}`)
	if err := f.h.HandleStatus(context.Background(), "front-door-01", payload); err != nil {
		t.Fatalf("HandleStatus: %v", err)
	}

	status, ok := f.locks.statuses["front-door-01"]
	if !ok {
		t.Fatal("status not applied")
	}
	if status.IsLocked {
		t.Error("IsLocked = true, want false")
	}
	if status.IsDoorOpen == nil || !*status.IsDoorOpen {
		t.Error("IsDoorOpen not carried through")
	}
	if status.IsKeyPresent != nil {
		t.Error("omitted is_key_present should stay nil")
	}

	if len(f.events.events) != 1 || f.events.events[0].Type != "status_changed" {
		t.Errorf("events = %+v, want one status_changed", f.events.events)
	}
}

func TestHandleStatusMissingIsLocked(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	err := f.h.HandleStatus(context.Background(), "front-door-01", []byte(`{"is_door_open":true}`))
	if err == nil {
		t.Error("expected error for frame without is_locked")
	}
	if len(f.locks.statuses) != 0 {
		t.Error("malformed frame must not touch the store")
	}
}

func TestHandleStatusMalformedJSON(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	if err := f.h.HandleStatus(context.Background(), "front-door-01", []byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestHandleStatusUnknownDevice(t *testing.T) {
	f := newHandlerFixture()

	payload := []byte(`{"is_locked":true}`)
	if err := f.h.HandleStatus(context.Background(), "mystery-01", payload); err != nil {
		t.Fatalf("HandleStatus: %v", err)
	}

	if len(f.pending.upserts) != 1 || f.pending.upserts[0] != "mystery-01" {
		t.Errorf("pending upserts = %v, want [mystery-01]", f.pending.upserts)
	}
	if len(f.events.events) != 0 {
		t.Error("unknown device must not broadcast")
	}
}

func TestHandleAccess(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	payload := []byte(`{"access_type":"pin","access_method":"1234","success":true,"timestamp":"2026-06-01T12:00:00Z"}`)
	if err := f.h.HandleAccess(context.Background(), "front-door-01", payload); err != nil {
		t.Fatalf("HandleAccess: %v", err)
	}

	if len(f.logs.entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(f.logs.entries))
	}
	entry := f.logs.entries[0]
	if entry.LockID != 1 || entry.AccessType != "pin" || !entry.Success {
		t.Errorf("unexpected entry: %+v", entry)
	}
	want := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if !entry.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
	}

	if f.locks.touched["front-door-01"] != 1 {
		t.Error("access frame should mark the device seen")
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != "access_event" {
		t.Errorf("events = %+v, want one access_event", f.events.events)
	}
}

func TestHandleAccessDefaultsTimestamp(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	before := time.Now().UTC()
	payload := []byte(`{"access_type":"rfid","success":false}`)
	if err := f.h.HandleAccess(context.Background(), "front-door-01", payload); err != nil {
		t.Fatalf("HandleAccess: %v", err)
	}

	entry := f.logs.entries[0]
	if entry.Timestamp.Before(before) {
		t.Errorf("Timestamp = %v, want receipt time at or after %v", entry.Timestamp, before)
	}
}

func TestHandleAccessMissingFields(t *testing.T) {
	f := newHandlerFixture("front-door-01")
	ctx := context.Background()

	if err := f.h.HandleAccess(ctx, "front-door-01", []byte(`{"success":true}`)); err == nil {
		t.Error("expected error for missing access_type")
	}
	if err := f.h.HandleAccess(ctx, "front-door-01", []byte(`{"access_type":"pin"}`)); err == nil {
		t.Error("expected error for missing success")
	}
	if len(f.logs.entries) != 0 {
		t.Error("malformed frames must not append log entries")
	}
}

func TestHandleAccessUnknownDevice(t *testing.T) {
	f := newHandlerFixture()

	payload := []byte(`{"access_type":"pin","success":true}`)
	if err := f.h.HandleAccess(context.Background(), "mystery-01", payload); err != nil {
		t.Fatalf("HandleAccess: %v", err)
	}
	if len(f.pending.upserts) != 1 {
		t.Errorf("pending upserts = %v, want one", f.pending.upserts)
	}
	if len(f.logs.entries) != 0 {
		t.Error("unknown device must not append log entries")
	}
}

func TestHandleHeartbeat(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	if err := f.h.HandleHeartbeat(context.Background(), "front-door-01", nil); err != nil {
		t.Fatalf("HandleHeartbeat: %v", err)
	}
	if f.locks.touched["front-door-01"] != 1 {
		t.Error("heartbeat should mark the device seen")
	}
}

func TestHandleHeartbeatUnknownDevice(t *testing.T) {
	f := newHandlerFixture()

	if err := f.h.HandleHeartbeat(context.Background(), "mystery-01", nil); err != nil {
		t.Fatalf("HandleHeartbeat: %v", err)
	}
	if len(f.pending.upserts) != 1 {
		t.Errorf("pending upserts = %v, want one", f.pending.upserts)
	}
}

func TestHandleSyncRequest(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	if err := f.h.HandleSyncRequest(context.Background(), "front-door-01", nil); err != nil {
		t.Fatalf("HandleSyncRequest: %v", err)
	}
	if len(f.syncer.synced) != 1 || f.syncer.synced[0] != "front-door-01" {
		t.Errorf("synced = %v, want [front-door-01]", f.syncer.synced)
	}
}

func TestHandleSyncRequestUnknownDevice(t *testing.T) {
	f := newHandlerFixture()

	if err := f.h.HandleSyncRequest(context.Background(), "mystery-01", nil); err != nil {
		t.Fatalf("HandleSyncRequest: %v", err)
	}
	if len(f.syncer.synced) != 0 {
		t.Error("unknown device must not trigger a sync")
	}
	if len(f.pending.upserts) != 1 {
		t.Errorf("pending upserts = %v, want one", f.pending.upserts)
	}
}

func TestHandleAlert(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	payload := []byte(`{"alert_type":"tamper","message":"case opened"}`)
	if err := f.h.HandleAlert(context.Background(), "front-door-01", payload); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != "alert" {
		t.Errorf("events = %+v, want one alert", f.events.events)
	}
	if f.locks.touched["front-door-01"] != 1 {
		t.Error("alert should mark the device seen")
	}
}

func TestHandleAlertMissingType(t *testing.T) {
	f := newHandlerFixture("front-door-01")

	if err := f.h.HandleAlert(context.Background(), "front-door-01", []byte(`{"message":"hm"}`)); err == nil {
		t.Error("expected error for alert without alert_type")
	}
}

func TestHandleAlertUnknownDevice(t *testing.T) {
	f := newHandlerFixture()

	payload := []byte(`{"alert_type":"tamper"}`)
	if err := f.h.HandleAlert(context.Background(), "mystery-01", payload); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}
	if len(f.pending.upserts) != 1 {
		t.Errorf("pending upserts = %v, want one", f.pending.upserts)
	}
	if len(f.events.events) != 0 {
		t.Errorf("events = %+v, want none for unregistered device", f.events.events)
	}
}

func TestPendingUpsertOnEveryMessageType(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()

	calls := []func() error{
		func() error { return f.h.HandleStatus(ctx, "mystery-01", []byte(`{"is_locked":true}`)) },
		func() error {
			return f.h.HandleAccess(ctx, "mystery-01", []byte(`{"access_type":"pin","success":true}`))
		},
		func() error { return f.h.HandleHeartbeat(ctx, "mystery-01", nil) },
		func() error { return f.h.HandleSyncRequest(ctx, "mystery-01", nil) },
		func() error { return f.h.HandleAlert(ctx, "mystery-01", []byte(`{"alert_type":"tamper"}`)) },
	}
	for i, call := range calls {
		if err := call(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if len(f.pending.upserts) != len(calls) {
		t.Errorf("pending upserts = %d, want %d", len(f.pending.upserts), len(calls))
	}
}
