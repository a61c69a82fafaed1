package l2cache

import (
	"runtime"
	"sync/atomic"
	"time"
)

// OneMillisecond is one millisecond in timestamp units.
// Timestamps are unix milliseconds shifted left by 12 bits; the low bits are a
// per-millisecond counter.
const OneMillisecond int64 = 1 << 12

var lastTimestamp atomic.Int64

// NextTimestamp returns a process-wide, strictly increasing timestamp.
// Up to 4096 timestamps are issued per millisecond; past that it waits for
// the clock to move on. When the wall clock steps backwards it keeps counting
// up from the last issued value instead of waiting for the clock to catch up.
func NextTimestamp() int64 {
	for {
		now := time.Now().UnixMilli() << 12
		cur := lastTimestamp.Load()
		next, ok := advance(cur, now)
		if !ok {
			runtime.Gosched()
			continue
		}
		if lastTimestamp.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// advance returns the timestamp following cur at wall time now (timestamp
// units). ok is false when every slot of the current millisecond is used.
func advance(cur, now int64) (next int64, ok bool) {
	maxValue := now + OneMillisecond - 1
	next = max(now, cur+1)
	switch {
	case next <= maxValue:
		return next, true
	case cur > maxValue:
		// clock moved backwards
		return cur + 1, true
	default:
		return 0, false
	}
}

// toTimestampUnits converts d to timestamp units.
func toTimestampUnits(d time.Duration) int64 {
	return d.Milliseconds() * OneMillisecond
}
