// Package itemid mints and manipulates 64-bit identifiers that are unique
// across a fleet of independently operating machines without coordination.
// Each identifier packs a 44-bit millisecond Unix timestamp, a 12-bit
// per-process counter and an 8-bit machine id into one word, and round-trips
// through a fixed 16-character lowercase hex form.
package itemid

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Compile-time interface checks for ID
var (
	_ fmt.Stringer               = ID(0)
	_ driver.Valuer              = ID(0)
	_ sql.Scanner                = (*ID)(nil)
	_ encoding.TextMarshaler     = ID(0)
	_ encoding.TextUnmarshaler   = (*ID)(nil)
	_ encoding.BinaryMarshaler   = ID(0)
	_ encoding.BinaryUnmarshaler = (*ID)(nil)
	_ json.Marshaler             = ID(0)
	_ json.Unmarshaler           = (*ID)(nil)
	_ gob.GobEncoder             = ID(0)
	_ gob.GobDecoder             = (*ID)(nil)
)

// Bit layout, most significant first: 44-bit millisecond timestamp,
// 12-bit counter, 8-bit machine id.
const (
	TimestampBits = 44
	CounterBits   = 12
	MachineIDBits = 8

	// MaxMillis is the largest timestamp an ID can carry.
	MaxMillis = int64(1)<<TimestampBits - 1
	// MaxCounter is the largest per-process counter value.
	MaxCounter = 1<<CounterBits - 1
	// MaxMachineID is the largest machine id.
	MaxMachineID = 1<<MachineIDBits - 1

	timestampShift = CounterBits + MachineIDBits
	counterShift   = MachineIDBits

	// encodedLen is the length of the canonical hex form.
	encodedLen = 16
)

var (
	// ErrInvalidHex is returned when a hex form is not exactly 16 hex digits.
	ErrInvalidHex = errors.New("itemid: hex form must be exactly 16 hex digits")
	// ErrHalfRange is returned when a half cannot be represented in 32 bits.
	ErrHalfRange = errors.New("itemid: half out of 32-bit range")
	// ErrInvalidBase is returned by FormatBase for bases outside 2..36.
	ErrInvalidBase = errors.New("itemid: base must be in 2..36")
)

// ID is a 64-bit time-ordered identifier. The zero value is Nil.
type ID int64

var Nil ID = 0

func (id ID) Int64() int64 {
	return int64(id)
}

// Uint64 returns the ID as its unsigned 64-bit magnitude, the
// interpretation used for ordering and the hex form.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

func (id ID) IsNil() bool {
	return id == Nil
}

// Millis returns the 44-bit millisecond timestamp field.
func (id ID) Millis() int64 {
	return int64(uint64(id) >> timestampShift)
}

// Time returns the timestamp field as a time.Time.
func (id ID) Time() time.Time {
	return time.UnixMilli(id.Millis())
}

// Counter returns the 12-bit counter field.
func (id ID) Counter() int {
	return int(uint64(id) >> counterShift & MaxCounter)
}

// MachineID returns the 8-bit machine id field.
func (id ID) MachineID() int {
	return int(uint64(id) & MaxMachineID)
}

// Halves returns the low and high 32-bit words of the ID.
func (id ID) Halves() (low, high uint32) {
	return uint32(uint64(id)), uint32(uint64(id) >> 32)
}

// Bytes returns the ID as an 8-byte big-endian slice.
func (id ID) Bytes() []byte {
	b := make([]byte, 8)
	b[0] = byte(id >> 56)
	b[1] = byte(id >> 48)
	b[2] = byte(id >> 40)
	b[3] = byte(id >> 32)
	b[4] = byte(id >> 24)
	b[5] = byte(id >> 16)
	b[6] = byte(id >> 8)
	b[7] = byte(id)
	return b
}

const hexDigits = "0123456789abcdef"

// String returns the canonical form: exactly 16 lowercase hex digits,
// zero-padded, high word first.
func (id ID) String() string {
	var buf [encodedLen]byte
	u := uint64(id)
	for i := encodedLen - 1; i >= 0; i-- {
		buf[i] = hexDigits[u&0xf]
		u >>= 4
	}
	return string(buf[:])
}

// FormatBase returns the ID in the given base, 2 through 36, as the plain
// unsigned 64-bit magnitude without padding. Note that FormatBase(16) is
// therefore not the canonical form; use String for the fixed 16-digit form.
func (id ID) FormatBase(base int) (string, error) {
	if base < 2 || base > 36 {
		return "", fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	return strconv.FormatUint(uint64(id), base), nil
}

// Compare returns -1, 0 or 1 ordering a and b by unsigned 64-bit magnitude.
// Because the timestamp occupies the most significant bits, this is
// chronological order; it deliberately differs from signed int64 order once
// the top bit is set.
func Compare(a, b ID) int {
	ua, ub := uint64(a), uint64(b)
	switch {
	case ua < ub:
		return -1
	case ua > ub:
		return 1
	}
	return 0
}

// Less reports whether a orders before b under Compare.
func Less(a, b ID) bool {
	return uint64(a) < uint64(b)
}

// Valid reports whether s is a canonical hex form: exactly 16 hex digits,
// either case.
func Valid(s string) bool {
	return len(s) == encodedLen && isHex(s)
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// FromHex parses a canonical 16-hex-digit form. The high word is the first
// eight digits, the low word the last eight.
func FromHex(s string) (ID, error) {
	if !Valid(s) {
		return Nil, ErrInvalidHex
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Nil, ErrInvalidHex
	}
	return ID(n), nil
}

// FromDecimal parses a base-10 signed 64-bit integer string.
func FromDecimal(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("itemid: empty string")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Nil, fmt.Errorf("itemid: invalid decimal %q: %w", s, err)
	}
	return ID(n), nil
}

// Parse parses either external string form: a 16-hex-digit string through
// the hex path, anything else through the decimal path.
func Parse(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("itemid: empty string")
	}
	if Valid(s) {
		return FromHex(s)
	}
	return FromDecimal(s)
}

// Parse parses a string into the ID receiver.
func (id *ID) Parse(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

const (
	minHalf = -1 << 31
	maxHalf = 1<<32 - 1
)

// FromHalves builds an ID from its low and high 32-bit words. Each argument
// may be given in signed or unsigned form; anything in [-2^31, 2^32-1] is
// accepted and its low 32 bits stored.
func FromHalves(low, high int64) (ID, error) {
	if low < minHalf || low > maxHalf {
		return Nil, fmt.Errorf("%w: low %d", ErrHalfRange, low)
	}
	if high < minHalf || high > maxHalf {
		return Nil, fmt.Errorf("%w: high %d", ErrHalfRange, high)
	}
	return ID(uint64(uint32(high))<<32 | uint64(uint32(low))), nil
}

// FromInt64 returns an ID adopting the 64-bit word verbatim.
func FromInt64(n int64) ID {
	return ID(n)
}

// FromString returns an ID parsed from the input string.
// Alias for Parse.
func FromString(s string) (ID, error) {
	return Parse(s)
}

// FromStringOrNil returns an ID parsed from the input string.
// Returns Nil on error.
func FromStringOrNil(s string) ID {
	id, err := Parse(s)
	if err != nil {
		return Nil
	}
	return id
}

// FromBytes returns an ID from an 8-byte big-endian slice.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 8 {
		return Nil, fmt.Errorf("itemid: ID must be exactly 8 bytes, got %d", len(b))
	}
	return ID(int64(b[0])<<56 | int64(b[1])<<48 | int64(b[2])<<40 | int64(b[3])<<32 |
		int64(b[4])<<24 | int64(b[5])<<16 | int64(b[6])<<8 | int64(b[7])), nil
}

// FromBytesOrNil returns an ID from an 8-byte slice.
// Returns Nil on error.
func FromBytesOrNil(b []byte) ID {
	id, err := FromBytes(b)
	if err != nil {
		return Nil
	}
	return id
}

// MarshalText implements encoding.TextMarshaler using the canonical hex form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON implements json.Marshaler as a quoted canonical hex form.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	// Handle null
	if string(b) == "null" {
		*id = Nil
		return nil
	}
	// Handle numeric value
	if len(b) > 0 && b[0] != '"' {
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return errors.New("itemid: invalid JSON value")
		}
		*id = ID(n)
		return nil
	}
	// Handle quoted string
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return errors.New("itemid: invalid JSON string")
	}
	return id.UnmarshalText(b[1 : len(b)-1])
}

// Value implements driver.Valuer for database storage
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan implements sql.Scanner for database retrieval
func (id *ID) Scan(src interface{}) error {
	if src == nil {
		*id = Nil
		return nil
	}
	switch v := src.(type) {
	case ID:
		*id = v
		return nil
	case int64:
		*id = ID(v)
		return nil
	case []byte:
		return id.UnmarshalText(v)
	case string:
		return id.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("itemid: cannot scan %T", src)
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// GobEncode implements gob.GobEncoder.
func (id ID) GobEncode() ([]byte, error) {
	return id.MarshalBinary()
}

// GobDecode implements gob.GobDecoder.
func (id *ID) GobDecode(data []byte) error {
	return id.UnmarshalBinary(data)
}

// Must panics if err is not nil
func Must(id ID, err error) ID {
	if err != nil {
		panic(err)
	}
	return id
}
