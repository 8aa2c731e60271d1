package timex

import "time"

var epoch = time.Now()

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Millis returns milliseconds since process start, truncated to 32 bits.
// The value wraps roughly every 49.7 days; compare with Since or Reached.
func Millis() uint32 { return uint32(time.Since(epoch).Milliseconds()) }

// Since returns now-t in milliseconds, correct across one wrap.
func Since(now, t uint32) uint32 { return now - t }

// Reached reports whether now is at or past t, tolerating wraparound as
// long as the two are within 2^31 ms of each other.
func Reached(now, t uint32) bool { return int32(now-t) >= 0 }

// Before reports whether now is strictly earlier than t (wrap-safe).
func Before(now, t uint32) bool { return int32(now-t) < 0 }

// Clock is the wall-backed millisecond clock.
type Clock struct{}

func (Clock) NowMs() uint32 { return Millis() }

func (Clock) SleepMs(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }
