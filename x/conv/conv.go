// Package conv formats integers into caller buffers without fmt or strconv,
// for firmware builds.
package conv

const hexDigits = "0123456789ABCDEF"

// Utoa writes n in base 10 at the end of buf and returns the used tail.
// 20 bytes hold any uint64.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 || i == 0 {
			return buf[i:]
		}
	}
}

// Itoa is Utoa with a leading '-' for negative n. 20 bytes hold any int64.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	// -n overflows for MinInt64; the unsigned negation does not.
	out := Utoa(buf, -uint64(n))
	i := len(buf) - len(out)
	if i == 0 {
		return out
	}
	buf[i-1] = '-'
	return buf[i-1:]
}

// Hex writes the low digits*4 bits of n as zero-padded uppercase hex at the
// end of buf. It returns an empty slice if buf is too short.
func Hex(buf []byte, n uint32, digits int) []byte {
	if digits <= 0 || digits > 8 || len(buf) < digits {
		return buf[:0]
	}
	i := len(buf)
	for range digits {
		i--
		buf[i] = hexDigits[n&0xF]
		n >>= 4
	}
	return buf[i:]
}
