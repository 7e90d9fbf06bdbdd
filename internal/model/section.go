package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
)

// SectionState is the tag of a Section.
type SectionState uint8

const (
	// StateAbsent means the section was never probed.
	StateAbsent SectionState = iota
	// StatePresent means the probe produced data.
	StatePresent
	// StateFailed means the probe ran and recorded a failure reason.
	StateFailed
)

func (s SectionState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Section is one independently optional slice of a Record. Absent and Failed
// both mean "unknown" to consumers; only Get's ok flag means known.
type Section[T any] struct {
	state  SectionState
	value  T
	reason string
}

// Present wraps a successfully obtained value.
func Present[T any](v T) Section[T] {
	return Section[T]{state: StatePresent, value: v}
}

// Failed records an explicit failure marker.
func Failed[T any](reason string) Section[T] {
	return Section[T]{state: StateFailed, reason: reason}
}

// Failedf is Failed with formatting.
func Failedf[T any](format string, args ...any) Section[T] {
	return Failed[T](fmt.Sprintf(format, args...))
}

// Get returns the value and whether it is known.
func (s Section[T]) Get() (T, bool) {
	return s.value, s.state == StatePresent
}

// Known reports whether the section holds data.
func (s Section[T]) Known() bool { return s.state == StatePresent }

// State returns the tag.
func (s Section[T]) State() SectionState { return s.state }

// Reason returns the failure reason, empty unless Failed.
func (s Section[T]) Reason() string { return s.reason }

// IsZero lets `omitzero` drop Absent sections from JSON.
func (s Section[T]) IsZero() bool { return s.state == StateAbsent }

type failureMarker struct {
	Error string `json:"error"`
}

// MarshalJSON encodes Present as the bare value and Failed as {"error": reason}.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	switch s.state {
	case StatePresent:
		return json.Marshal(s.value)
	case StateFailed:
		return json.Marshal(failureMarker{Error: s.reason})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reverses MarshalJSON.
func (s *Section[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Section[T]{}
		return nil
	}
	if reason, ok := decodeFailureMarker(data); ok {
		*s = Failed[T](reason)
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "model: decode section")
	}
	*s = Present(v)
	return nil
}

// decodeFailureMarker matches objects whose only key is a string "error".
func decodeFailureMarker(data []byte) (string, bool) {
	if data[0] != '{' {
		return "", false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 1 {
		return "", false
	}
	msg, ok := raw["error"]
	if !ok {
		return "", false
	}
	var reason string
	if err := json.Unmarshal(msg, &reason); err != nil {
		return "", false
	}
	return reason, true
}
