package rpc

import (
	"fmt"
	"strconv"
	"strings"
)

// Error is the typed RPC error shape spec §6 defines: a numeric code, a
// SCREAMING_SNAKE name, and an optional trailing numeric value extracted
// from names like FLOOD_WAIT_30.
type Error struct {
	Code  int32
	Name  string
	Value *uint32
}

// ParseError builds an Error from a raw rpc_error (code, message),
// extracting a trailing "_<digits>" suffix when present: "FLOOD_WAIT_30"
// becomes Error{Code: 420, Name: "FLOOD_WAIT", Value: &30} (spec §6).
func ParseError(code int32, message string) *Error {
	name := message
	var value *uint32

	if idx := strings.LastIndexByte(message, '_'); idx >= 0 && idx < len(message)-1 {
		suffix := message[idx+1:]
		if n, err := strconv.ParseUint(suffix, 10, 32); err == nil {
			v := uint32(n)
			name = message[:idx]
			value = &v
		}
	}

	return &Error{Code: code, Name: name, Value: value}
}

func (e *Error) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("rpc: %d %s_%d", e.Code, e.Name, *e.Value)
	}
	return fmt.Sprintf("rpc: %d %s", e.Code, e.Name)
}

// IsFloodWait reports whether e is a FLOOD_WAIT_N error and returns N in
// seconds.
func (e *Error) IsFloodWait() (seconds int, ok bool) {
	if e.Name != "FLOOD_WAIT" || e.Value == nil {
		return 0, false
	}
	return int(*e.Value), true
}

// Matches reports whether e's name matches pattern, which may use a
// trailing or leading "*" as a wildcard (spec §6: "Wildcard name-matching
// supports prefix (\"PHONE_CODE_*\") and suffix (\"*_INVALID\")
// patterns"). A pattern without a "*" must match e's full original name
// exactly, including any numeric suffix ParseError stripped off.
func (e *Error) Matches(pattern string) bool {
	full := e.Name
	if e.Value != nil {
		full = fmt.Sprintf("%s_%d", e.Name, *e.Value)
	}

	switch {
	case strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*"):
		return strings.HasPrefix(full, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*"):
		return strings.HasSuffix(full, strings.TrimPrefix(pattern, "*"))
	case pattern == "*":
		return true
	default:
		return full == pattern
	}
}

// MigrateError is the internal "*_MIGRATE_N" signal the RPC runner
// consumes to reconnect on another DC and retry (spec §4.8, §7): it never
// surfaces to a caller.
type MigrateError struct {
	DCID int32
}

func (e *MigrateError) Error() string {
	return fmt.Sprintf("rpc: migrate to DC %d", e.DCID)
}

// AsMigrate reports whether err is a "*_MIGRATE_N" rpc error and, if so,
// returns the target DC id.
func AsMigrate(err *Error) (*MigrateError, bool) {
	if err.Value == nil || !strings.HasSuffix(err.Name, "_MIGRATE") {
		return nil, false
	}
	return &MigrateError{DCID: int32(*err.Value)}, true
}

// ErrDropped is returned to a caller whose delivery slot was closed
// before a reply arrived, e.g. during client shutdown (spec §7
// "Dropped").
type droppedError struct{}

func (droppedError) Error() string { return "rpc: caller's delivery slot was dropped" }

// ErrDropped is the sentinel matched via errors.Is for a dropped delivery
// slot.
var ErrDropped error = droppedError{}
