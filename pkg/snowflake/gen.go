package snowflake

import (
	"sync/atomic"
	"time"
)

const (
	epoch        = 1491696000000 // 2017-04-09T00:00:00Z in unix milliseconds
	serverBits   = 10
	sequenceBits = 12
	timeBits     = 42
	serverShift  = sequenceBits
	timeShift    = sequenceBits + serverBits
	serverMax    = 1 << serverBits
	sequenceMask = 1<<sequenceBits - 1
	timeMask     = 1<<timeBits - 1
)

// Generator produces roughly time-ordered unique 64-bit numbers consisting of
// a millisecond timestamp, a machine id and a per-millisecond sequence.
type Generator struct {
	state   uint64
	machine uint64
}

// New returns a Generator for the given machine id. Only the low 10 bits
// of the machine id are used.
func New(machineID int) *Generator {
	return &Generator{
		state:   0,
		machine: uint64(machineID & (serverMax - 1) << serverShift),
	}
}

// MachineID returns the machine id this generator stamps into every value.
func (g *Generator) MachineID() int {
	return int(g.machine >> serverShift)
}

// Next returns the next unique value.
func (g *Generator) Next() uint64 {
	var state uint64

	// we attempt 100 times to update the millisecond part of the state
	// and increment the sequence atomically. each attempt is approx ~30ns
	// so we spend around ~3µs total.
	for i := 0; i < 100; i++ {
		t := (uint64(time.Now().UnixNano()/1e6) - epoch) & timeMask
		current := atomic.LoadUint64(&g.state)
		currentTime := current >> timeShift & timeMask
		currentSeq := current & sequenceMask

		// this sequence of milliseconds is exhausted;
		// wait for the next millisecond
		if t == currentTime && currentSeq == sequenceMask {
			time.Sleep(100 * time.Microsecond)
			continue
		}

		if t > currentTime {
			state = t << timeShift
		} else {
			state = current + 1
		}

		if atomic.CompareAndSwapUint64(&g.state, current, state) {
			break
		}

		state = 0
	}

	if state == 0 {
		panic("failed to update snowflake state after 100 attempts")
	}

	return state | g.machine
}

// NextString returns the next unique value in its sortable string form.
func (g *Generator) NextString() string {
	var s [11]byte
	encode(&s, g.Next())
	return string(s[:])
}

// AppendNext appends the next unique value in its sortable string form to s.
func (g *Generator) AppendNext(s *[11]byte) {
	encode(s, g.Next())
}

// digits holds 64 symbols in ascending ASCII order so that encoded strings
// sort the same as the numbers they represent.
const digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz~"

func encode(s *[11]byte, n uint64) {
	s[10], n = digits[n&0x3f], n>>6
	s[9], n = digits[n&0x3f], n>>6
	s[8], n = digits[n&0x3f], n>>6
	s[7], n = digits[n&0x3f], n>>6
	s[6], n = digits[n&0x3f], n>>6
	s[5], n = digits[n&0x3f], n>>6
	s[4], n = digits[n&0x3f], n>>6
	s[3], n = digits[n&0x3f], n>>6
	s[2], n = digits[n&0x3f], n>>6
	s[1], n = digits[n&0x3f], n>>6
	s[0] = digits[n&0x3f]
}
