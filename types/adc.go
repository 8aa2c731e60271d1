package types

// ------------------------
// ADC readings (retained per channel)
// ------------------------

type Reading struct {
	Channel string  `json:"channel"` // mux name, e.g. "ain0-gnd"
	Raw     int16   `json:"raw"`
	Volts   float32 `json:"volts"`
	Gain    string  `json:"gain"` // e.g. "2.048v"
	TS      int64   `json:"ts_ms"` // Unix ms
}

// ------------------------
// Driver health (retained)
// ------------------------

// Link is the availability reported for the converter.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

type HealthInfo struct {
	Link                Link   `json:"link"`
	State               string `json:"state"` // UNINIT, READY, DEGRADED, OFFLINE
	ConsecutiveFailures uint8  `json:"consecutive_failures"`
	TotalFailures       uint32 `json:"total_failures"`
	TotalSuccess        uint32 `json:"total_success"`
	LastError           string `json:"last_error,omitempty"` // machine-readable short code
	LastErrorMsg        string `json:"last_error_msg,omitempty"`
	TS                  int64  `json:"ts_ms"`
}

// ------------------------
// Control (request/reply)
// ------------------------

// ReadNow asks for an immediate conversion on Channel (a mux name); empty
// means every scheduled channel.
type ReadNow struct {
	Channel string `json:"channel,omitempty"`
}

type SetInterval struct {
	IntervalMs uint32 `json:"interval_ms"` // >0
}

type Recover struct{}

type ControlReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Msg   string `json:"msg,omitempty"`
}
