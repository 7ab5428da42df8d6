package lock

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants.
const (
	maxDeviceIDLength = 64
	maxNameLength     = 100
	minCodeLength     = 4
	maxCodeLength     = 10
	maxCardUIDLength  = 64

	// Device IDs become MQTT topic segments, so the pattern excludes
	// '/', '+' and '#' as well as anything else a broker could
	// misinterpret.
	deviceIDPattern = `^[a-zA-Z0-9_-]+$`
)

var deviceIDRegex = regexp.MustCompile(deviceIDPattern)

// ValidateDeviceID checks if a device ID is safe to use as a topic segment.
func ValidateDeviceID(deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id cannot be empty", ErrInvalidDeviceID)
	}
	if len(deviceID) > maxDeviceIDLength {
		return fmt.Errorf("%w: device id exceeds %d characters", ErrInvalidDeviceID, maxDeviceIDLength)
	}
	if !deviceIDRegex.MatchString(deviceID) {
		return fmt.Errorf("%w: device id must be alphanumeric with hyphens or underscores", ErrInvalidDeviceID)
	}
	return nil
}

// ValidateName checks if a lock or credential name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateCode checks PIN code length bounds. The firmware keypad
// accepts 4 to 10 characters.
func ValidateCode(code string) error {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return fmt.Errorf("%w: code must be %d-%d characters", ErrInvalidCode, minCodeLength, maxCodeLength)
	}
	return nil
}

// ValidateCardUID checks if a card UID is present and within bounds.
func ValidateCardUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: card uid cannot be empty", ErrInvalidCardUID)
	}
	if len(uid) > maxCardUIDLength {
		return fmt.Errorf("%w: card uid exceeds %d characters", ErrInvalidCardUID, maxCardUIDLength)
	}
	return nil
}

// ValidateCardType checks if a card type is recognised.
func ValidateCardType(cardType string) error {
	switch cardType {
	case CardTypeKeyTag, CardTypeAccess:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidCardType, cardType, CardTypeKeyTag, CardTypeAccess)
	}
}

// ValidateAction checks if a command action is recognised.
func ValidateAction(action string) error {
	switch action {
	case ActionLock, ActionUnlock:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidAction, action, ActionLock, ActionUnlock)
	}
}

// ValidateLock validates a Lock before persistence.
func ValidateLock(l *Lock) error {
	if err := ValidateDeviceID(l.DeviceID); err != nil {
		return err
	}
	return ValidateName(l.Name)
}

// ValidateAccessCode validates an AccessCode before persistence.
func ValidateAccessCode(c *AccessCode) error {
	return ValidateCode(c.Code)
}

// ValidateRFIDCard validates an RFIDCard before persistence.
func ValidateRFIDCard(c *RFIDCard) error {
	if err := ValidateCardUID(c.CardUID); err != nil {
		return err
	}
	return ValidateCardType(c.CardType)
}
