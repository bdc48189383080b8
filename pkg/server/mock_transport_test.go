package server

import (
	"sync"
	"testing"
	"time"

	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type notifyCall struct {
	char  *Characteristic
	value []byte
	peers []string
}

type advertiseCall struct {
	uuid ble.UUID
	name string
}

// mockTransport records every call. With autoComplete set, completions fire
// from a fresh goroutine the way a radio would; otherwise tests fire them.
type mockTransport struct {
	mu            sync.Mutex
	handler       Handler
	startPower    bool
	startErr      error
	autoComplete  bool
	registered    []*Service
	registerDone  []func(error)
	advertiseArgs []advertiseCall
	advertiseDone []func(error)
	advertising   bool
	stopAdvCalls  int
	notifies      []notifyCall
	stopped       bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{}
}

func (t *mockTransport) Start(h Handler) error {
	t.mu.Lock()
	t.handler = h
	power := t.startPower
	err := t.startErr
	t.mu.Unlock()
	if err != nil {
		return err
	}
	if power {
		h.OnPowerStateChanged(models.PowerStatePoweredOn)
	}
	return nil
}

func (t *mockTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.advertising = false
	return nil
}

func (t *mockTransport) RegisterService(svc *Service, done func(error)) {
	t.mu.Lock()
	t.registered = append(t.registered, svc)
	if t.autoComplete {
		t.mu.Unlock()
		go done(nil)
		return
	}
	t.registerDone = append(t.registerDone, done)
	t.mu.Unlock()
}

func (t *mockTransport) BeginAdvertising(u ble.UUID, name string, done func(error)) {
	t.mu.Lock()
	t.advertiseArgs = append(t.advertiseArgs, advertiseCall{u, name})
	if t.autoComplete {
		t.advertising = true
		t.mu.Unlock()
		go done(nil)
		return
	}
	t.advertiseDone = append(t.advertiseDone, func(err error) {
		if err == nil {
			t.mu.Lock()
			t.advertising = true
			t.mu.Unlock()
		}
		done(err)
	})
	t.mu.Unlock()
}

func (t *mockTransport) IsAdvertising() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advertising
}

func (t *mockTransport) StopAdvertising() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopAdvCalls++
	t.advertising = false
}

func (t *mockTransport) Notify(c *Characteristic, value []byte, peers []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifies = append(t.notifies, notifyCall{c, value, peers})
}

func (t *mockTransport) setAdvertising(b bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advertising = b
}

func (t *mockTransport) completeRegistration(err error) {
	t.mu.Lock()
	done := t.registerDone[len(t.registerDone)-1]
	t.mu.Unlock()
	done(err)
}

func (t *mockTransport) completeAdvertising(err error) {
	t.mu.Lock()
	done := t.advertiseDone[len(t.advertiseDone)-1]
	t.mu.Unlock()
	done(err)
}

func (t *mockTransport) counts() (registered, advertised, stops, notifies int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.registered), len(t.advertiseArgs), t.stopAdvCalls, len(t.notifies)
}

func (t *mockTransport) notifyCalls() []notifyCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]notifyCall{}, t.notifies...)
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func syncDispatch(fn func()) { fn() }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
