package ads1115

const (
	// 7-bit I2C addresses selected by the ADDR pin (GND, VDD, SDA, SCL).
	AddressGND = 0x48
	AddressVDD = 0x49
	AddressSDA = 0x4A
	AddressSCL = 0x4B

	AddressMin = AddressGND
	AddressMax = AddressSCL

	// --- Register pointers (16-bit, MSB first) ---
	RegConversion = 0x00 // R, two's complement
	RegConfig     = 0x01 // R/W
	RegLoThresh   = 0x02 // R/W
	RegHiThresh   = 0x03 // R/W

	// --- CONFIG bitfields ---
	cfgOSMask       = 0x8000
	cfgMuxMask      = 0x7000
	cfgMuxShift     = 12
	cfgPGAMask      = 0x0E00
	cfgPGAShift     = 9
	cfgModeMask     = 0x0100
	cfgModeShift    = 8
	cfgDRMask       = 0x00E0
	cfgDRShift      = 5
	cfgCompModeMask = 0x0010
	cfgCompModeBit  = 4
	cfgCompPolMask  = 0x0008
	cfgCompPolBit   = 3
	cfgCompLatMask  = 0x0004
	cfgCompLatBit   = 2
	cfgCompQueMask  = 0x0003
	cfgCompQueShift = 0

	// OS reads 1 when the device is idle; writing 1 starts a single-shot.
	cfgOSIdle  = 0x8000
	cfgOSStart = 0x8000

	// Power-on register values.
	DefaultConfigWord = 0x8583
	DefaultLoThresh   = 0x8000
	DefaultHiThresh   = 0x7FFF
)

// Ready-pin comparator pattern: Hi_thresh MSB = 1, Lo_thresh MSB = 0.
const (
	readyPinLoThresh int16 = 0x0000
	readyPinHiThresh int16 = -0x8000
)
