package ads1115

// ConfigFields is the decoded CONFIG register, less the OS bit.
type ConfigFields struct {
	Mux          Mux
	Gain         Gain
	DataRate     DataRate
	Mode         Mode
	CompMode     CompMode
	CompPolarity CompPolarity
	CompLatch    CompLatch
	CompQueue    CompQueue
}

// EncodeConfigWord packs f into a CONFIG word with the OS bit clear.
// Out-of-range fields are masked to their bit width.
func EncodeConfigWord(f ConfigFields) uint16 {
	var v uint16
	v |= (uint16(f.Mux) << cfgMuxShift) & cfgMuxMask
	v |= (uint16(f.Gain) << cfgPGAShift) & cfgPGAMask
	v |= (uint16(f.Mode) << cfgModeShift) & cfgModeMask
	v |= (uint16(f.DataRate) << cfgDRShift) & cfgDRMask
	v |= (uint16(f.CompMode) << cfgCompModeBit) & cfgCompModeMask
	v |= (uint16(f.CompPolarity) << cfgCompPolBit) & cfgCompPolMask
	v |= (uint16(f.CompLatch) << cfgCompLatBit) & cfgCompLatMask
	v |= (uint16(f.CompQueue) << cfgCompQueShift) & cfgCompQueMask
	return v
}

// DecodeConfigWord unpacks a CONFIG word. The OS bit is ignored.
func DecodeConfigWord(v uint16) ConfigFields {
	return ConfigFields{
		Mux:          Mux((v & cfgMuxMask) >> cfgMuxShift),
		Gain:         Gain((v & cfgPGAMask) >> cfgPGAShift),
		Mode:         Mode((v & cfgModeMask) >> cfgModeShift),
		DataRate:     DataRate((v & cfgDRMask) >> cfgDRShift),
		CompMode:     CompMode((v & cfgCompModeMask) >> cfgCompModeBit),
		CompPolarity: CompPolarity((v & cfgCompPolMask) >> cfgCompPolBit),
		CompLatch:    CompLatch((v & cfgCompLatMask) >> cfgCompLatBit),
		CompQueue:    CompQueue((v & cfgCompQueMask) >> cfgCompQueShift),
	}
}

// Valid reports whether every field holds a defined value.
func (f ConfigFields) Valid() bool {
	return f.Mux.Valid() && f.Gain.Valid() && f.DataRate.Valid() && f.Mode.Valid() &&
		f.CompMode.Valid() && f.CompPolarity.Valid() && f.CompLatch.Valid() && f.CompQueue.Valid()
}

// ValidateConfigWord rejects words whose PGA field is 6 or 7. The hardware
// accepts those as aliases of ±0.256 V; the driver does not model them.
func ValidateConfigWord(v uint16) bool { return DecodeConfigWord(v).Valid() }

// OSIdle reports whether a CONFIG word read back from the device shows no
// conversion in progress.
func OSIdle(v uint16) bool { return v&cfgOSMask == cfgOSIdle }

// ---------------- Lookup tables ----------------

var lsbVolts = [...]float32{
	187.5e-6,  // ±6.144 V
	125.0e-6,  // ±4.096 V
	62.5e-6,   // ±2.048 V
	31.25e-6,  // ±1.024 V
	15.625e-6, // ±0.512 V
	7.8125e-6, // ±0.256 V
}

var fullScaleVolts = [...]float32{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

// Nominal period plus margin, per data rate.
var conversionMs = [...]uint32{
	125 + 5, // 8 SPS
	63 + 5,  // 16 SPS
	32 + 5,  // 32 SPS
	16 + 5,  // 64 SPS
	8 + 2,   // 128 SPS
	4 + 2,   // 250 SPS
	3 + 1,   // 475 SPS
	2 + 1,   // 860 SPS
}

func gainIndex(g Gain) int {
	if int(g) >= len(lsbVolts) {
		return int(Gain2V048)
	}
	return int(g)
}

// LSBVolts returns volts per count for g. Invalid gains use ±2.048 V.
func LSBVolts(g Gain) float32 { return lsbVolts[gainIndex(g)] }

// FullScaleVolts returns the positive full-scale input for g.
func FullScaleVolts(g Gain) float32 { return fullScaleVolts[gainIndex(g)] }

// RawToVoltage scales a conversion result by the LSB size for g.
func RawToVoltage(raw int16, g Gain) float32 { return float32(raw) * LSBVolts(g) }

// ConversionTimeMs returns the wait budget for one conversion at r.
// Invalid rates use the 128 SPS budget.
func ConversionTimeMs(r DataRate) uint32 {
	if int(r) >= len(conversionMs) {
		return conversionMs[SPS128]
	}
	return conversionMs[r]
}
