// Package i2cowner serialises access to one I2C bus through a single
// goroutine and adds per-call deadlines to buses that have none.
package i2cowner

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"

	"ads1115-go/errcode"
)

const DefaultDepth = 16

type req struct {
	addr uint16
	w, r []byte
	done chan error
}

// Owner implements drivers.I2C and ads1115.TimeoutI2C.
type Owner struct {
	hw   drivers.I2C
	reqs chan req
	quit chan struct{}
	once sync.Once
}

var _ drivers.I2C = (*Owner)(nil)

// New starts the owner goroutine for hw. depth bounds queued requests.
func New(hw drivers.I2C, depth int) *Owner {
	if depth <= 0 {
		depth = DefaultDepth
	}
	o := &Owner{
		hw:   hw,
		reqs: make(chan req, depth),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Owner) loop() {
	for {
		select {
		case rq := <-o.reqs:
			err := o.hw.Tx(rq.addr, rq.w, rq.r)
			// done is buffered; the caller may have given up.
			rq.done <- err
		case <-o.quit:
			return
		}
	}
}

// Close stops the owner. Calls made afterwards fail with errcode.Error.
func (o *Owner) Close() { o.once.Do(func() { close(o.quit) }) }

// Tx waits without a deadline.
func (o *Owner) Tx(addr uint16, w, r []byte) error { return o.TxTimeout(addr, w, r, 0) }

// TxTimeout bounds the whole call, queueing included, by timeoutMs; zero
// means no deadline. A request still queued at the deadline reports
// errcode.Busy and one still running reports errcode.Timeout. The caller's buffers
// are never touched after TxTimeout returns.
func (o *Owner) TxTimeout(addr uint16, w, r []byte, timeoutMs uint32) error {
	rq := req{addr: addr, w: append([]byte(nil), w...), done: make(chan error, 1)}
	if len(r) > 0 {
		rq.r = make([]byte, len(r))
	}

	var expired <-chan time.Time
	if timeoutMs > 0 {
		t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer t.Stop()
		expired = t.C
	}

	select {
	case o.reqs <- rq:
	case <-expired:
		return errcode.Busy
	case <-o.quit:
		return errcode.Error
	}

	select {
	case err := <-rq.done:
		if err == nil {
			copy(r, rq.r)
		}
		return err
	case <-expired:
		return errcode.Timeout
	case <-o.quit:
		return errcode.Error
	}
}
