package i2cowner

import (
	"errors"
	"sync"
	"testing"
	"time"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/drivers/ads1115/sim"
	"ads1115-go/errcode"
)

// gateBus blocks every Tx until release is closed.
type gateBus struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newGateBus() *gateBus {
	return &gateBus{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *gateBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	for i := range r {
		r[i] = 0xAA
	}
	return nil
}

type echoBus struct{ err error }

func (b echoBus) Tx(addr uint16, w, r []byte) error {
	copy(r, w)
	return b.err
}

func TestTxCopiesResult(t *testing.T) {
	o := New(echoBus{}, 0)
	defer o.Close()

	r := make([]byte, 2)
	if err := o.Tx(0x48, []byte{1, 2}, r); err != nil {
		t.Fatal(err)
	}
	if r[0] != 1 || r[1] != 2 {
		t.Fatalf("r = %v", r)
	}
}

func TestTxPropagatesError(t *testing.T) {
	boom := errors.New("nack")
	o := New(echoBus{err: boom}, 0)
	defer o.Close()

	r := []byte{9, 9}
	if err := o.Tx(0x48, []byte{1, 2}, r); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if r[0] != 9 {
		t.Fatal("failed read overwrote caller buffer")
	}
}

func TestTimeoutWhileRunning(t *testing.T) {
	b := newGateBus()
	o := New(b, 1)
	defer o.Close()
	defer close(b.release)

	r := []byte{0, 0}
	err := o.TxTimeout(0x48, []byte{0}, r, 5)
	if !errors.Is(err, errcode.Timeout) {
		t.Fatalf("err = %v", err)
	}
	if r[0] != 0 {
		t.Fatal("caller buffer written after timeout")
	}
}

func TestBusyWhenQueueFull(t *testing.T) {
	b := newGateBus()
	o := New(b, 1)
	defer o.Close()

	go o.Tx(0x48, []byte{0}, nil) // occupies the worker
	<-b.entered
	go o.Tx(0x48, []byte{0}, nil) // fills the queue
	deadline := time.Now().Add(time.Second)
	for len(o.reqs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := o.TxTimeout(0x48, []byte{0}, nil, 5); !errors.Is(err, errcode.Busy) {
		t.Fatalf("err = %v", err)
	}
	close(b.release)
}

func TestClosedOwnerFails(t *testing.T) {
	o := New(echoBus{}, 0)
	o.Close()
	o.Close()
	// The queue may still accept one request; completion must fail.
	if err := o.TxTimeout(0x48, []byte{0}, nil, 50); err == nil {
		t.Fatal("Tx on closed owner succeeded")
	}
}

func TestDriverHonoursTimeoutThroughOwner(t *testing.T) {
	b := newGateBus()
	o := New(b, 0)
	defer o.Close()
	defer close(b.release)

	st := ads1115.NewTxTransport(o).WriteRead(0x48, []byte{ads1115.RegConfig}, make([]byte, 2), 5)
	if st.Code != errcode.Timeout || st.Msg != "I2C timeout" {
		t.Fatalf("status = %v", st)
	}
}

func TestDriverOverOwner(t *testing.T) {
	sd := sim.New(ads1115.AddressGND, nil)
	sd.SetInput(ads1115.MuxAIN1GND, 1234)
	o := New(sd, 0)
	defer o.Close()

	cfg := ads1115.DefaultConfig()
	cfg.Transport = ads1115.NewTxTransport(o)
	cfg.Mux = ads1115.MuxAIN1GND
	cfg.DataRate = ads1115.SPS860
	d := ads1115.New()
	if st := d.Begin(cfg); !st.OK() {
		t.Fatalf("Begin: %v", st)
	}
	raw, st := d.ReadBlocking(t.Context(), 100)
	if !st.OK() || raw != 1234 {
		t.Fatalf("ReadBlocking = %d, %v", raw, st)
	}
}
