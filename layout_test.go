package itemid

import "testing"

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()

	if got := l.TimestampBits + l.CounterBits + l.MachineBits; got != 64 {
		t.Errorf("layout covers %d bits, want 64", got)
	}
	if l.TimestampBits != TimestampBits || l.CounterBits != CounterBits || l.MachineBits != MachineIDBits {
		t.Errorf("DefaultLayout() = %+v, want the minting constants %d/%d/%d",
			l, TimestampBits, CounterBits, MachineIDBits)
	}

	if got := l.TimestampShift(); got != timestampShift {
		t.Errorf("TimestampShift() = %d, want %d", got, timestampShift)
	}
	if got := l.MaxMillis(); got != MaxMillis {
		t.Errorf("MaxMillis() = %d, want %d", got, MaxMillis)
	}
	if got := l.MaxCounter(); got != int64(MaxCounter) {
		t.Errorf("MaxCounter() = %d, want %d", got, MaxCounter)
	}
	if got := l.MaxMachine(); got != int64(MaxMachineID) {
		t.Errorf("MaxMachine() = %d, want %d", got, MaxMachineID)
	}
}
