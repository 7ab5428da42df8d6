package configsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kmush12/PineLock/internal/infrastructure/mqtt"
	"github.com/kmush12/PineLock/internal/lock"
)

// ErrUnknownDevice is returned when a sync is requested for a device ID
// with no lock record.
var ErrUnknownDevice = errors.New("no lock registered for device")

// maxConcurrentSyncs bounds fleet-wide fan-out so a master credential
// change does not flood the broker.
const maxConcurrentSyncs = 8

// ConfigPayload is the credential snapshot published to a device.
//
// access_codes carries every PIN the device must accept: its own codes
// plus all master codes. rfid_cards carries the UIDs of access cards
// enrolled on the device. key_tag is the UID of the device's single
// physical key tag, empty when none is enrolled.
type ConfigPayload struct {
	AccessCodes []string `json:"access_codes"`
	RFIDCards   []string `json:"rfid_cards"`
	KeyTag      string   `json:"key_tag"`
}

// Publisher is the slice of the MQTT client the engine needs.
// Satisfied by *mqtt.Client.
type Publisher interface {
	PublishJSON(topic string, payload any) error
	Topics() mqtt.Topics
}

var _ Publisher = (*mqtt.Client)(nil)

// LockStore resolves and enumerates registered locks.
type LockStore interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*lock.Lock, error)
	List(ctx context.Context) ([]lock.Lock, error)
}

// CodeStore lists the active PIN codes applying to one lock.
type CodeStore interface {
	ListActiveForLock(ctx context.Context, lockID int64) ([]lock.AccessCode, error)
}

// CardStore lists the active RFID cards enrolled on one lock.
type CardStore interface {
	ListActiveForLock(ctx context.Context, lockID int64) ([]lock.RFIDCard, error)
}

// Logger is the optional structured logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine builds and publishes credential snapshots.
//
// Thread Safety: all methods are safe for concurrent use; the engine
// holds no mutable state of its own.
type Engine struct {
	locks     LockStore
	codes     CodeStore
	cards     CardStore
	publisher Publisher
	logger    Logger
}

// EngineOptions holds the engine dependencies.
type EngineOptions struct {
	Locks     LockStore // required
	Codes     CodeStore // required
	Cards     CardStore // required
	Publisher Publisher // required
	Logger    Logger    // optional
}

// NewEngine creates a sync engine.
func NewEngine(opts EngineOptions) *Engine {
	return &Engine{
		locks:     opts.Locks,
		codes:     opts.Codes,
		cards:     opts.Cards,
		publisher: opts.Publisher,
		logger:    opts.Logger,
	}
}

// SyncDevice publishes the full credential snapshot to one device.
//
// The snapshot includes active codes scoped to the device and all
// active master codes. Validity windows are not evaluated here; the
// stored set is pushed as-is and window enforcement is a server-side
// concern at access time.
func (e *Engine) SyncDevice(ctx context.Context, deviceID string) error {
	l, err := e.locks.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
		}
		return fmt.Errorf("resolve device: %w", err)
	}

	payload, err := e.buildPayload(ctx, l.ID)
	if err != nil {
		return err
	}

	topic := e.publisher.Topics().DeviceConfig(deviceID)
	if err := e.publisher.PublishJSON(topic, payload); err != nil {
		return fmt.Errorf("publish config: %w", err)
	}

	e.logDebug("config synced",
		"device_id", deviceID,
		"codes", len(payload.AccessCodes),
		"cards", len(payload.RFIDCards))

	return nil
}

// SyncAll publishes a snapshot to every registered device.
//
// Used after changes to master credentials, which apply fleet-wide.
// Each device gets exactly one publish; failures are collected and the
// first one is returned after all devices have been attempted.
func (e *Engine) SyncAll(ctx context.Context) error {
	locks, err := e.locks.List(ctx)
	if err != nil {
		return fmt.Errorf("list locks: %w", err)
	}

	// Plain group, not WithContext: one failing device must not cancel
	// the publishes still in flight to the rest of the fleet.
	var g errgroup.Group
	g.SetLimit(maxConcurrentSyncs)

	var (
		mu       sync.Mutex
		firstErr error
	)

	for _, l := range locks {
		deviceID := l.DeviceID
		g.Go(func() error {
			if err := e.SyncDevice(ctx, deviceID); err != nil {
				e.logWarn("fleet sync failed for device",
					"device_id", deviceID,
					"error", err.Error())
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait() // goroutines report through firstErr, never here
	return firstErr
}

// buildPayload gathers a lock's active credentials into a snapshot.
func (e *Engine) buildPayload(ctx context.Context, lockID int64) (ConfigPayload, error) {
	codes, err := e.codes.ListActiveForLock(ctx, lockID)
	if err != nil {
		return ConfigPayload{}, fmt.Errorf("list codes: %w", err)
	}

	cards, err := e.cards.ListActiveForLock(ctx, lockID)
	if err != nil {
		return ConfigPayload{}, fmt.Errorf("list cards: %w", err)
	}

	payload := ConfigPayload{
		AccessCodes: make([]string, 0, len(codes)),
		RFIDCards:   make([]string, 0, len(cards)),
	}

	for _, c := range codes {
		payload.AccessCodes = append(payload.AccessCodes, c.Code)
	}

	for _, c := range cards {
		switch c.CardType {
		case lock.CardTypeKeyTag:
			// One key tag per device; a stray second enrolment loses.
			if payload.KeyTag == "" {
				payload.KeyTag = c.CardUID
			}
		default:
			payload.RFIDCards = append(payload.RFIDCards, c.CardUID)
		}
	}

	return payload, nil
}

func (e *Engine) logDebug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) logWarn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
