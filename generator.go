package itemid

import (
	"crypto/md5"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// ErrMachineIDRange is returned by SetMachineID for values outside 0..255.
var ErrMachineIDRange = errors.New("itemid: machine id out of range")

// Settings configures a Generator. The zero value uses the wall clock and
// derives the machine id from the local hostname.
type Settings struct {
	// MachineID resolves the 8-bit machine id, called once on first use.
	// nil means the first byte of the MD5 digest of the hostname, or a
	// random byte when the hostname is unavailable.
	MachineID func() (int64, error)

	// Clock supplies the current time. nil means time.Now.
	Clock func() time.Time
}

// Generator holds per-process minting state: a 12-bit counter seeded to a
// random value at construction, and an 8-bit machine id resolved lazily.
// All methods are safe for concurrent use.
type Generator struct {
	counter atomic.Uint32
	machine atomic.Int32 // -1 until resolved
	resolve func() (int64, error)
	now     func() time.Time
}

// DefaultGenerator is used by New and the package-level SetMachineID.
var DefaultGenerator = NewGenerator(Settings{})

// New mints an ID using the DefaultGenerator.
func New() ID {
	return DefaultGenerator.Generate()
}

// SetMachineID sets the DefaultGenerator's machine id and returns the
// previously stored id, 0 if none was resolved yet.
func SetMachineID(machineID int64) (int64, error) {
	return DefaultGenerator.SetMachineID(machineID)
}

func NewGenerator(st Settings) *Generator {
	g := &Generator{
		resolve: st.MachineID,
		now:     st.Clock,
	}
	if g.resolve == nil {
		g.resolve = hostMachineID
	}
	if g.now == nil {
		g.now = time.Now
	}
	g.machine.Store(-1)
	g.counter.Store(randomCounter())
	return g
}

// Generate mints a new ID from the current clock millisecond, the next
// counter value and the machine id. The clock is masked to 44 bits; the
// counter wraps silently modulo 4096, so uniqueness per machine holds only
// up to 4096 IDs within one millisecond.
func (g *Generator) Generate() ID {
	ms := uint64(g.now().UnixMilli()) & uint64(MaxMillis)
	seq := uint64(g.counter.Add(1)) & MaxCounter
	return ID(ms<<timestampShift | seq<<counterShift | uint64(g.MachineID()))
}

// SetMachineID stores the machine id used by every subsequent Generate call
// and returns the previously stored id, 0 if none was resolved yet.
// Already-minted IDs are unaffected.
func (g *Generator) SetMachineID(machineID int64) (int64, error) {
	if machineID < 0 || machineID > MaxMachineID {
		return 0, fmt.Errorf("%w: %d", ErrMachineIDRange, machineID)
	}
	prev := g.machine.Swap(int32(machineID))
	if prev < 0 {
		prev = 0
	}
	return int64(prev), nil
}

// MachineID returns the generator's machine id, resolving it on first use.
// A failing resolver pins the machine id to 0.
func (g *Generator) MachineID() int64 {
	if m := g.machine.Load(); m >= 0 {
		return int64(m)
	}
	m, err := g.resolve()
	if err != nil {
		m = 0
	}
	g.machine.CompareAndSwap(-1, int32(m&MaxMachineID))
	return int64(g.machine.Load())
}

// hostMachineID derives the default machine id: the first byte of the MD5
// digest of the hostname, or a random byte when the hostname is unavailable.
func hostMachineID() (int64, error) {
	name, err := os.Hostname()
	if err != nil || name == "" {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		return int64(b[0]), nil
	}
	sum := md5.Sum([]byte(name))
	return int64(sum[0]), nil
}

// randomCounter seeds the 12-bit counter so that restarts within the same
// millisecond do not replay the same sequence.
func randomCounter() uint32 {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano()) & MaxCounter
	}
	return (uint32(b[0])<<8 | uint32(b[1])) & MaxCounter
}
