package messaging

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// StatusPayload is the state report a lock publishes after any state
// change and in response to commands.
//
// is_locked is required. The sensor fields are optional: firmware
// without a key-presence or door sensor omits them, and the stored
// value is left untouched.
type StatusPayload struct {
	IsLocked     *bool `json:"is_locked"`
	IsKeyPresent *bool `json:"is_key_present,omitempty"`
	IsDoorOpen   *bool `json:"is_door_open,omitempty"`
}

// AccessPayload is an access attempt report from a lock.
type AccessPayload struct {
	AccessType   string   `json:"access_type"`
	AccessMethod string   `json:"access_method,omitempty"`
	Success      *bool    `json:"success"`
	Timestamp    FlexTime `json:"timestamp,omitempty"`
}

// AlertPayload is an alert frame from a lock (tamper, low battery,
// repeated failures). The alert is fanned out to event subscribers
// verbatim; alert_type is the only required field.
type AlertPayload struct {
	AlertType string `json:"alert_type"`
	Message   string `json:"message,omitempty"`
}

// FlexTime unmarshals a timestamp that device firmware sends either as
// an RFC 3339 string or as unix seconds. Older firmware revisions
// predate the string format.
//
// A missing or unparseable value leaves the time zero; callers default
// zero to the frame's receipt time.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("timestamp must be an RFC 3339 string or unix seconds")
	}
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return fmt.Errorf("timestamp out of range: %v", secs)
	}

	sec, frac := math.Modf(secs)
	t.Time = time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler, always emitting RFC 3339.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
