package itemid

// Layout describes the bit layout an ID packs its fields with. It is
// recorded alongside database deployments so the dialect packages can refuse
// to run against a database migrated with different field widths.
type Layout struct {
	TimestampBits int
	CounterBits   int
	MachineBits   int
}

// DefaultLayout returns the layout this package mints with.
func DefaultLayout() Layout {
	return Layout{
		TimestampBits: TimestampBits,
		CounterBits:   CounterBits,
		MachineBits:   MachineIDBits,
	}
}

// Computed values
func (l Layout) TimestampShift() int { return l.CounterBits + l.MachineBits }
func (l Layout) MaxMillis() int64    { return int64(1)<<l.TimestampBits - 1 }
func (l Layout) MaxCounter() int64   { return int64(1)<<l.CounterBits - 1 }
func (l Layout) MaxMachine() int64   { return int64(1)<<l.MachineBits - 1 }
