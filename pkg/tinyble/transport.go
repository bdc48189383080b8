// Package tinyble is the tinygo.org/x/bluetooth transport for the chat peripheral.
package tinyble

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/server"
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

const outboxSize = 64

var errNotStarted = errors.New("transport not started")

type writer interface {
	Write(p []byte) (int, error)
}

type writeFunc func(client string, key string, offset int, value []byte)

// peripheral is the slice of a tinygo adapter the transport drives
type peripheral interface {
	Enable() error
	OnConnect(fn func(peer string, connected bool))
	AddService(svc *server.Service, onWrite writeFunc) (map[string]writer, error)
	Advertise(name string, serviceUUID bluetooth.UUID) error
	StopAdvertising() error
}

// Transport drives the default tinygo adapter in the peripheral role.
// tinygo exposes no CCCD callback, so a connected central counts as
// subscribed to every notifying characteristic until it disconnects.
type Transport struct {
	p   peripheral
	log logrus.FieldLogger

	mu          sync.Mutex
	started     bool
	handler     server.Handler
	handles     map[string]writer
	notifying   []string
	connected   []string
	advertising bool
	outbox      chan func()
	quit        chan struct{}
}

// NewTransport makes a transport on bluetooth.DefaultAdapter
func NewTransport(log logrus.FieldLogger) *Transport {
	return newTransport(newDefaultPeripheral(), log)
}

func newTransport(p peripheral, log logrus.FieldLogger) *Transport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Transport{
		p:       p,
		log:     log.WithField("component", "tinyble"),
		handles: map[string]writer{},
	}
}

func (t *Transport) Start(h server.Handler) error {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
	if err := t.p.Enable(); err != nil {
		h.OnPowerStateChanged(models.PowerStateUnsupported)
		return errors.Wrap(err, "adapter enable issue")
	}
	t.p.OnConnect(t.onConnect)
	t.mu.Lock()
	t.started = true
	t.outbox = make(chan func(), outboxSize)
	t.quit = make(chan struct{})
	go t.sendLoop(t.outbox, t.quit)
	t.mu.Unlock()
	h.OnPowerStateChanged(models.PowerStatePoweredOn)
	return nil
}

func (t *Transport) Stop() error {
	t.StopAdvertising()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	if t.quit != nil {
		close(t.quit)
		t.quit = nil
	}
	return nil
}

func (t *Transport) sendLoop(outbox chan func(), quit chan struct{}) {
	for {
		select {
		case fn := <-outbox:
			fn()
		case <-quit:
			return
		}
	}
}

func (t *Transport) onConnect(peer string, connected bool) {
	peer = strings.ToUpper(peer)
	t.mu.Lock()
	h := t.handler
	keys := append([]string(nil), t.notifying...)
	if connected {
		t.connected = append(t.connected, peer)
	} else {
		t.connected = without(t.connected, peer)
	}
	t.mu.Unlock()
	if h == nil {
		return
	}
	if !connected {
		h.OnDisconnect(peer)
		return
	}
	for _, key := range keys {
		h.OnSubscribe(peer, key)
	}
}

func without(list []string, s string) []string {
	ret := list[:0]
	for _, v := range list {
		if !util.AddrEqualAddr(v, s) {
			ret = append(ret, v)
		}
	}
	return ret
}

func (t *Transport) RegisterService(svc *server.Service, done func(error)) {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()
	if !started {
		go done(errNotStarted)
		return
	}
	go func() {
		handles, err := t.p.AddService(svc, t.onWrite)
		if err != nil {
			done(err)
			return
		}
		t.mu.Lock()
		t.handles = handles
		t.notifying = nil
		for _, c := range svc.Characteristics {
			if c.Properties.Notifies() {
				t.notifying = append(t.notifying, c.Key())
			}
		}
		t.mu.Unlock()
		done(nil)
	}()
}

func (t *Transport) onWrite(client string, key string, offset int, value []byte) {
	buf := make([]byte, len(value))
	copy(buf, value)
	t.mu.Lock()
	h := t.handler
	peer := client
	if len(t.connected) == 1 {
		peer = t.connected[0]
	}
	t.mu.Unlock()
	if h == nil {
		return
	}
	h.OnWriteRequest([]models.WriteRequest{{Peer: peer, CharacteristicUUID: key, Offset: offset, Value: buf}})
}

// BeginAdvertising configures and starts the default advertisement
func (t *Transport) BeginAdvertising(serviceUUID ble.UUID, name string, done func(error)) {
	u, err := toUUID(serviceUUID)
	if err != nil {
		go done(err)
		return
	}
	go func() {
		if err := t.p.Advertise(name, u); err != nil {
			done(errors.Wrap(err, "advertisement start issue"))
			return
		}
		t.mu.Lock()
		t.advertising = true
		t.mu.Unlock()
		done(nil)
	}()
}

func (t *Transport) IsAdvertising() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advertising
}

func (t *Transport) StopAdvertising() {
	t.mu.Lock()
	was := t.advertising
	t.advertising = false
	t.mu.Unlock()
	if !was {
		return
	}
	if err := t.p.StopAdvertising(); err != nil {
		t.log.WithError(err).Warn("advertisement stop issue")
	}
}

// Notify writes value through the characteristic handle. tinygo fans a
// handle write out to every subscriber, so peers only narrows logging.
func (t *Transport) Notify(c *server.Characteristic, value []byte, peers []string) {
	key := c.Key()
	t.mu.Lock()
	w, ok := t.handles[key]
	outbox := t.outbox
	t.mu.Unlock()
	if !ok || outbox == nil {
		t.log.WithField("char", key).Warn("no handle, dropping notification")
		return
	}
	if peers != nil {
		t.log.WithField("peers", fmt.Sprint(peers)).Debug("targeted notify sent to all subscribers")
	}
	payload := make([]byte, len(value))
	copy(payload, value)
	send := func() {
		if _, err := w.Write(payload); err != nil {
			t.log.WithError(err).WithField("char", key).Warn("notify issue")
		}
	}
	select {
	case outbox <- send:
	default:
		t.log.WithField("char", key).Warn("outbox full, dropping notification")
	}
}
