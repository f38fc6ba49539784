package itemid

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimestampRange is returned by the boundary builders for instants
// outside the 44-bit millisecond range.
var ErrTimestampRange = errors.New("itemid: timestamp out of 44-bit range")

// BoundaryFromMillis returns the smallest ID carrying the given millisecond
// timestamp: counter and machine id are both zero. Use it as the endpoint of
// a range query over stored IDs.
func BoundaryFromMillis(ms int64) (ID, error) {
	if ms < 0 || ms > MaxMillis {
		return Nil, fmt.Errorf("%w: %d", ErrTimestampRange, ms)
	}
	return ID(uint64(ms) << timestampShift), nil
}

// BoundaryFromTime returns the boundary ID for t's millisecond. Instants
// before the Unix epoch or beyond the 44-bit range fail with
// ErrTimestampRange.
func BoundaryFromTime(t time.Time) (ID, error) {
	return BoundaryFromMillis(t.UnixMilli())
}
