// Package sampler runs one ADS1115 on a schedule and publishes its
// readings and health on the in-process bus.
//
// Topics (name defaults to "ads1115"):
//
//	adc/<name>/reading/<mux>  retained types.Reading per channel
//	adc/<name>/health         retained types.HealthInfo, on state change
//	adc/<name>/ctrl/<verb>    requests: read_now, set_interval, recover
//
// The service owns the device: nothing else may call it while Run is
// active.
package sampler

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"ads1115-go/bus"
	"ads1115-go/drivers/ads1115"
	"ads1115-go/errcode"
	"ads1115-go/services/internal/util"
	"ads1115-go/types"
	"ads1115-go/x/mathx"
	"ads1115-go/x/timex"
)

const (
	DefaultName         = "ads1115"
	DefaultIntervalMs   = 1000
	DefaultTickMs       = 1
	DefaultRecoverEvery = 5 * time.Second

	minIntervalMs = 10
	maxIntervalMs = 3_600_000
	// readSlackMs is added to the conversion budget to form the default
	// per-conversion timeout.
	readSlackMs = 20
)

type Options struct {
	Name string
	// Channels are sampled in order on every sweep. Empty means the
	// device's configured mux only.
	Channels   []ads1115.Mux
	IntervalMs uint32
	TickMs     uint32
	// ReadTimeoutMs bounds one conversion from start to result. Zero means
	// the data rate's budget plus a small slack.
	ReadTimeoutMs uint32
	// AutoRecover lets the service call Recover while the device is
	// Offline, at most once per RecoverEvery.
	AutoRecover  bool
	RecoverEvery time.Duration
	Logger       logr.Logger
}

type Service struct {
	conn *bus.Connection
	dev  *ads1115.Device
	clk  ads1115.Clock
	opts Options
	log  logr.Logger
	ctrl *bus.Subscription

	recoverLim *rate.Limiter
	interval   time.Duration

	queue    []ads1115.Mux
	cur      ads1115.Mux
	pending  bool
	deadline uint32 // single-shot: give up; continuous: first valid sample

	healthSent bool
	lastState  ads1115.DriverState
}

// New applies defaults to opts and subscribes to the control topics, so
// requests sent any time after New returns are queued for Run. dev must
// already have been through Begin.
func New(conn *bus.Connection, dev *ads1115.Device, opts Options) *Service {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if len(opts.Channels) == 0 {
		opts.Channels = []ads1115.Mux{dev.Mux()}
	}
	if opts.IntervalMs == 0 {
		opts.IntervalMs = DefaultIntervalMs
	}
	opts.IntervalMs = mathx.Clamp(opts.IntervalMs, minIntervalMs, maxIntervalMs)
	if opts.TickMs == 0 {
		opts.TickMs = DefaultTickMs
	}
	if opts.RecoverEvery <= 0 {
		opts.RecoverEvery = DefaultRecoverEvery
	}
	clk := dev.Config().Clock
	if clk == nil {
		clk = timex.Clock{}
	}
	return &Service{
		conn:       conn,
		dev:        dev,
		clk:        clk,
		opts:       opts,
		log:        opts.Logger.WithName("sampler").WithValues("name", opts.Name),
		ctrl:       conn.Subscribe(ControlTopic(opts.Name, bus.Single)),
		recoverLim: rate.NewLimiter(rate.Every(opts.RecoverEvery), 1),
		interval:   time.Duration(opts.IntervalMs) * time.Millisecond,
	}
}

// ReadingTopic is where readings for mux m are retained.
func ReadingTopic(name string, m ads1115.Mux) bus.Topic {
	return bus.T("adc", name, "reading", m.String())
}

// HealthTopic is where health is retained.
func HealthTopic(name string) bus.Topic { return bus.T("adc", name, "health") }

// ControlTopic addresses a control verb.
func ControlTopic(name, verb string) bus.Topic { return bus.T("adc", name, "ctrl", verb) }

// Run samples until ctx is done. The first sweep starts immediately. The
// control subscription is released when Run returns, so a Service runs once.
func (s *Service) Run(ctx context.Context) error {
	defer s.conn.Unsubscribe(s.ctrl)
	if !s.dev.Initialized() {
		return &errcode.E{C: errcode.NotInitialized, Op: "sampler.Run", Msg: "device not started"}
	}

	s.log.Info("started", "channels", len(s.opts.Channels), "interval_ms", s.opts.IntervalMs,
		"mode", s.dev.Mode().String())
	s.publishHealth()

	sweepT := time.NewTimer(0)
	defer sweepT.Stop()
	tickT := time.NewTimer(time.Hour)
	if !tickT.Stop() {
		util.DrainTimer(tickT)
	}
	defer tickT.Stop()
	tickArmed := false

	for {
		select {
		case <-ctx.Done():
			s.abandon()
			s.log.Info("stopped")
			return nil

		case msg, ok := <-s.ctrl.Channel():
			if !ok {
				return nil
			}
			s.handleControl(msg, sweepT)

		case <-sweepT.C:
			s.sweep()
			util.ResetTimer(sweepT, s.interval)

		case <-tickT.C:
			tickArmed = false
			s.poll()
		}

		s.publishHealth()
		if s.pending && !tickArmed {
			util.ResetTimer(tickT, time.Duration(s.opts.TickMs)*time.Millisecond)
			tickArmed = true
		}
	}
}

// -----------------------------------------------------------------------------
// Scheduling
// -----------------------------------------------------------------------------

func (s *Service) sweep() {
	if s.pending || len(s.queue) > 0 {
		s.log.V(1).Info("sweep overrun", "queued", len(s.queue))
		return
	}
	s.queue = append(s.queue[:0], s.opts.Channels...)
	s.next()
}

// next starts work on queued channels until one is left in flight or the
// queue is empty.
func (s *Service) next() {
	for !s.pending && len(s.queue) > 0 {
		if !s.dev.IsOnline() && !s.tryRecover() {
			s.queue = s.queue[:0]
			return
		}
		ch := s.queue[0]
		s.queue = s.queue[1:]

		if s.dev.Pending() && !s.dropStale() {
			// Left over from a period offline and still not cleared.
			s.queue = s.queue[:0]
			return
		}
		if s.dev.Mode() == ads1115.ModeContinuous {
			s.beginContinuous(ch)
			continue
		}
		st := s.dev.StartConversionMux(ch)
		if !st.InProgress() {
			s.log.V(1).Info("start failed", "channel", ch.String(), "code", string(st.Code), "msg", st.Msg)
			continue
		}
		s.cur = ch
		s.pending = true
		s.deadline = s.clk.NowMs() + s.readTimeoutMs()
	}
}

// beginContinuous reads ch directly when it is already selected. Otherwise
// it switches the mux and leaves the read pending for one conversion time.
func (s *Service) beginContinuous(ch ads1115.Mux) {
	if s.dev.Mux() == ch {
		s.read(ch)
		return
	}
	if st := s.dev.SetMux(ch); !st.OK() {
		s.log.V(1).Info("mux switch failed", "channel", ch.String(), "code", string(st.Code))
		return
	}
	s.cur = ch
	s.pending = true
	s.deadline = s.clk.NowMs() + s.dev.ConversionTimeMs()
}

func (s *Service) poll() {
	if !s.pending {
		return
	}
	if !s.dev.IsOnline() {
		s.pending = false
		s.queue = s.queue[:0]
		return
	}
	now := s.clk.NowMs()

	if s.dev.Mode() == ads1115.ModeSingleShot {
		s.dev.Tick(now)
		if s.dev.Pending() {
			if timex.Reached(now, s.deadline) {
				s.log.V(1).Info("conversion timeout", "channel", s.cur.String())
				s.abandon()
				s.next()
			}
			return
		}
	} else if !timex.Reached(now, s.deadline) {
		return
	}

	s.pending = false
	s.read(s.cur)
	s.next()
}

// abandon drops an in-flight single-shot conversion by rewriting the
// configuration.
func (s *Service) abandon() {
	if s.pending && s.dev.Pending() {
		s.dropStale()
	}
	s.pending = false
}

// dropStale clears the driver's single-shot session by rewriting the
// current mux. It reports whether the session is gone.
func (s *Service) dropStale() bool {
	if st := s.dev.SetMux(s.dev.Mux()); !st.OK() {
		s.log.V(1).Info("clear pending failed", "code", string(st.Code), "msg", st.Msg)
	}
	return !s.dev.Pending()
}

func (s *Service) readTimeoutMs() uint32 {
	if s.opts.ReadTimeoutMs > 0 {
		return s.opts.ReadTimeoutMs
	}
	return s.dev.ConversionTimeMs() + readSlackMs
}

func (s *Service) tryRecover() bool {
	if !s.opts.AutoRecover || !s.recoverLim.Allow() {
		return false
	}
	st := s.dev.Recover()
	s.log.V(1).Info("recover attempt", "code", string(st.Code), "state", s.dev.State().String())
	return s.dev.IsOnline()
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

func (s *Service) read(ch ads1115.Mux) {
	raw, st := s.dev.ReadRaw()
	if !st.OK() {
		s.log.V(1).Info("read failed", "channel", ch.String(), "code", string(st.Code), "msg", st.Msg)
		return
	}
	r := types.Reading{
		Channel: ch.String(),
		Raw:     raw,
		Volts:   s.dev.RawToVoltage(raw),
		Gain:    s.dev.Gain().String(),
		TS:      timex.NowMs(),
	}
	s.conn.Publish(s.conn.NewMessage(ReadingTopic(s.opts.Name, ch), r, true))
}

// publishHealth publishes once at start and afterwards only when the
// driver state changes.
func (s *Service) publishHealth() {
	state := s.dev.State()
	if s.healthSent && state == s.lastState {
		return
	}
	s.healthSent = true
	s.lastState = state
	s.conn.Publish(s.conn.NewMessage(HealthTopic(s.opts.Name), healthInfo(s.dev.Health()), true))
}

func healthInfo(h ads1115.Health) types.HealthInfo {
	link := types.LinkDown
	switch h.State {
	case ads1115.StateReady:
		link = types.LinkUp
	case ads1115.StateDegraded:
		link = types.LinkDegraded
	}
	hi := types.HealthInfo{
		Link:                link,
		State:               h.State.String(),
		ConsecutiveFailures: h.ConsecutiveFailures,
		TotalFailures:       h.TotalFailures,
		TotalSuccess:        h.TotalSuccess,
		TS:                  timex.NowMs(),
	}
	if !h.LastError.OK() {
		hi.LastError = string(h.LastError.Code)
		hi.LastErrorMsg = h.LastError.Msg
	}
	return hi
}

// -----------------------------------------------------------------------------
// Control
// -----------------------------------------------------------------------------

func (s *Service) handleControl(msg *bus.Message, sweepT *time.Timer) {
	if len(msg.Topic) == 0 {
		return
	}
	switch verb := msg.Topic[len(msg.Topic)-1]; verb {
	case "read_now":
		var req types.ReadNow
		if err := util.DecodePayload(msg.Payload, &req); err != nil {
			s.replyErr(msg, errcode.InvalidPayload, err.Error())
			return
		}
		chans := s.opts.Channels
		if req.Channel != "" {
			m, ok := ads1115.ParseMux(req.Channel)
			if !ok {
				s.replyErr(msg, errcode.InvalidParams, "unknown channel "+req.Channel)
				return
			}
			chans = []ads1115.Mux{m}
		}
		s.queue = append(s.queue, chans...)
		s.next()
		s.replyOK(msg, "")

	case "set_interval":
		var req types.SetInterval
		if err := util.DecodePayload(msg.Payload, &req); err != nil {
			s.replyErr(msg, errcode.InvalidPayload, err.Error())
			return
		}
		if req.IntervalMs == 0 {
			s.replyErr(msg, errcode.InvalidParams, "interval_ms must be > 0")
			return
		}
		s.opts.IntervalMs = mathx.Clamp(req.IntervalMs, minIntervalMs, maxIntervalMs)
		s.interval = time.Duration(s.opts.IntervalMs) * time.Millisecond
		util.ResetTimer(sweepT, s.interval)
		s.replyOK(msg, "")

	case "recover":
		st := s.dev.Recover()
		if !st.OK() {
			s.replyErr(msg, st.Code, st.Msg)
			return
		}
		s.replyOK(msg, s.dev.State().String())

	default:
		s.replyErr(msg, errcode.Unsupported, "unknown verb "+verb)
	}
}

func (s *Service) replyOK(req *bus.Message, m string) {
	s.conn.Reply(req, types.ControlReply{OK: true, Msg: m}, false)
}

func (s *Service) replyErr(req *bus.Message, c errcode.Code, m string) {
	s.conn.Reply(req, types.ControlReply{Error: string(c), Msg: m}, false)
}
