package httpx

import (
	"encoding/json"
	"reflect"
	"time"
)

// zonelessLayouts are accepted after RFC 3339 and read as UTC. Fractional
// seconds are allowed after the seconds field.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a request time field. It accepts RFC 3339 and, for clients
// that omit the offset, ISO 8601 date-times without one, which are UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler. Values in no accepted layout
// are reported as a *json.UnmarshalTypeError so the decoder names the field.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return t.typeError(data)
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return t.typeError(data)
}

func (t *Timestamp) typeError(data []byte) error {
	value := "string"
	if len(data) > 0 && data[0] != '"' {
		value = "non-string"
	}
	return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeFor[Timestamp]()}
}

// TimePtr returns the time in UTC, or nil for a nil or absent Timestamp.
func (t *Timestamp) TimePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
