package lock

import "errors"

var (
	// ErrLockNotFound is returned when a lock ID or device ID does not exist.
	ErrLockNotFound = errors.New("lock not found")

	// ErrDuplicateDeviceID is returned when creating a lock with a device ID
	// that is already registered.
	ErrDuplicateDeviceID = errors.New("device id already registered")

	// ErrCodeNotFound is returned when an access code ID does not exist.
	ErrCodeNotFound = errors.New("access code not found")

	// ErrCardNotFound is returned when an RFID card ID does not exist.
	ErrCardNotFound = errors.New("rfid card not found")

	// ErrPendingNotFound is returned when a pending device ID does not exist.
	ErrPendingNotFound = errors.New("pending device not found")

	// ErrInvalidDeviceID is returned when a device ID fails validation.
	ErrInvalidDeviceID = errors.New("invalid device id")

	// ErrInvalidName is returned when a name fails validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidCode is returned when a PIN code fails validation.
	ErrInvalidCode = errors.New("invalid access code")

	// ErrInvalidCardUID is returned when a card UID fails validation.
	ErrInvalidCardUID = errors.New("invalid card uid")

	// ErrInvalidCardType is returned when a card type is not recognised.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrInvalidAction is returned when a command action is not lock or unlock.
	ErrInvalidAction = errors.New("invalid action")
)
