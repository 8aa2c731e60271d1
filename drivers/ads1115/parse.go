package ads1115

import "strings"

type namedEnum interface {
	~uint8
	Valid() bool
	String() string
}

// parseName matches s against every valid value's String form. Case and
// the choice of '-' or '_' as separator are ignored.
func parseName[E namedEnum](s string) (E, bool) {
	want := normName(s)
	for v := E(0); v.Valid(); v++ {
		if normName(v.String()) == want {
			return v, true
		}
	}
	return 0, false
}

func normName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

func ParseMux(s string) (Mux, bool)                   { return parseName[Mux](s) }
func ParseGain(s string) (Gain, bool)                 { return parseName[Gain](s) }
func ParseDataRate(s string) (DataRate, bool)         { return parseName[DataRate](s) }
func ParseMode(s string) (Mode, bool)                 { return parseName[Mode](s) }
func ParseCompMode(s string) (CompMode, bool)         { return parseName[CompMode](s) }
func ParseCompPolarity(s string) (CompPolarity, bool) { return parseName[CompPolarity](s) }
func ParseCompLatch(s string) (CompLatch, bool)       { return parseName[CompLatch](s) }
func ParseCompQueue(s string) (CompQueue, bool)       { return parseName[CompQueue](s) }
