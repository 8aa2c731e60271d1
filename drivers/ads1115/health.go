package ads1115

import "ads1115-go/x/mathx"

// DriverState is the availability classification derived from health.
type DriverState uint8

const (
	StateUninit DriverState = iota
	StateReady
	StateDegraded
	StateOffline
)

func (s DriverState) String() string {
	switch s {
	case StateUninit:
		return "UNINIT"
	case StateReady:
		return "READY"
	case StateDegraded:
		return "DEGRADED"
	case StateOffline:
		return "OFFLINE"
	}
	return "UNKNOWN"
}

// Health is a point-in-time copy of the driver's health record.
type Health struct {
	State               DriverState
	LastOkMs            uint32
	LastErrorMs         uint32
	LastError           Status
	ConsecutiveFailures uint8
	TotalFailures       uint32
	TotalSuccess        uint32
}

type healthRecord struct {
	lastOkMs            uint32
	lastErrorMs         uint32
	lastError           Status
	consecutiveFailures uint8
	totalFailures       uint32
	totalSuccess        uint32
}

// updateHealth is the only place outside Begin/End that moves d.state.
// It returns st unchanged.
func (d *Device) updateHealth(st Status) Status {
	now := d.clk.NowMs()
	prev := d.state

	if st.OK() || st.InProgress() {
		d.health.lastOkMs = now
		d.health.consecutiveFailures = 0
		d.health.totalSuccess = mathx.SatInc(d.health.totalSuccess)
		if d.initialized {
			d.state = StateReady
		}
	} else {
		d.health.lastErrorMs = now
		d.health.lastError = st
		d.health.consecutiveFailures = mathx.SatInc(d.health.consecutiveFailures)
		d.health.totalFailures = mathx.SatInc(d.health.totalFailures)
		if d.initialized {
			if d.health.consecutiveFailures >= d.cfg.OfflineThreshold {
				d.state = StateOffline
			} else {
				d.state = StateDegraded
			}
		}
	}

	if d.state != prev {
		d.log.V(1).Info("state change",
			"from", prev.String(), "to", d.state.String(),
			"consecutive", d.health.consecutiveFailures, "code", string(st.Code))
	}
	return st
}

// State returns the current availability classification.
func (d *Device) State() DriverState { return d.state }

// IsOnline reports Ready or Degraded.
func (d *Device) IsOnline() bool { return d.state == StateReady || d.state == StateDegraded }

func (d *Device) Health() Health {
	return Health{
		State:               d.state,
		LastOkMs:            d.health.lastOkMs,
		LastErrorMs:         d.health.lastErrorMs,
		LastError:           d.health.lastError,
		ConsecutiveFailures: d.health.consecutiveFailures,
		TotalFailures:       d.health.totalFailures,
		TotalSuccess:        d.health.totalSuccess,
	}
}

func (d *Device) LastOkMs() uint32           { return d.health.lastOkMs }
func (d *Device) LastErrorMs() uint32        { return d.health.lastErrorMs }
func (d *Device) LastError() Status          { return d.health.lastError }
func (d *Device) ConsecutiveFailures() uint8 { return d.health.consecutiveFailures }
func (d *Device) TotalFailures() uint32      { return d.health.totalFailures }
func (d *Device) TotalSuccess() uint32       { return d.health.totalSuccess }
