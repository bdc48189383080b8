// Package ble is the go-ble (Linux HCI) transport for the chat peripheral.
package ble

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/server"
	"github.com/Krajiyah/ble-chat/pkg/util"
	mapset "github.com/deckarep/golang-set"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// advertiseSettle is how long an advertising request must survive before it counts as started
	advertiseSettle = 200 * time.Millisecond
	outboxSize      = 64
)

var errNotStarted = errors.New("transport not started")

type notifier interface {
	Context() context.Context
	Write(b []byte) (int, error)
}

type advertisement struct {
	cancel context.CancelFunc
}

// Transport drives a go-ble HCI device in the peripheral role
type Transport struct {
	methods  coreMethods
	deviceID int
	log      logrus.FieldLogger

	mu        sync.Mutex
	dev       radio
	handler   server.Handler
	adv       *advertisement
	notifiers map[string]map[string]notifier // characteristic -> peer -> notifier
	outbox    chan func()
	quit      chan struct{}
}

// NewTransport makes a transport for HCI device deviceID (-1 picks the first one)
func NewTransport(deviceID int, log logrus.FieldLogger) *Transport {
	return newTransport(&realCoreMethods{}, deviceID, log)
}

func newTransport(methods coreMethods, deviceID int, log logrus.FieldLogger) *Transport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Transport{
		methods:   methods,
		deviceID:  deviceID,
		log:       log.WithField("component", "goble"),
		notifiers: map[string]map[string]notifier{},
	}
}

func getAddrFromReq(req ble.Request) string {
	return strings.ToUpper(req.Conn().RemoteAddr().String())
}

// Start opens the HCI device. go-ble has no power-state stream, so an opened
// device is reported as powered on and a failure as unsupported.
func (t *Transport) Start(h server.Handler) error {
	dev, err := t.methods.NewDevice(t.deviceID)
	if err != nil {
		h.OnPowerStateChanged(models.PowerStateUnsupported)
		return err
	}
	t.mu.Lock()
	t.dev = dev
	t.handler = h
	t.outbox = make(chan func(), outboxSize)
	t.quit = make(chan struct{})
	go t.sendLoop(t.outbox, t.quit)
	t.mu.Unlock()
	t.log.WithField("device", t.deviceID).Info("hci device open")
	h.OnPowerStateChanged(models.PowerStatePoweredOn)
	return nil
}

// Stop halts advertising and closes the device
func (t *Transport) Stop() error {
	t.StopAdvertising()
	t.mu.Lock()
	dev := t.dev
	t.dev = nil
	if t.quit != nil {
		close(t.quit)
		t.quit = nil
	}
	t.mu.Unlock()
	if dev == nil {
		return nil
	}
	if err := util.CatchErrs(dev.RemoveAllServices); err != nil {
		t.log.WithError(err).Warn("could not clear gatt database")
	}
	return util.CatchErrs(dev.Stop)
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

// RegisterService translates svc into a go-ble service and adds it to the device
func (t *Transport) RegisterService(svc *server.Service, done func(error)) {
	bs := ble.NewService(svc.UUID)
	for _, c := range svc.Characteristics {
		bs.AddCharacteristic(t.newCharacteristic(c))
	}
	t.mu.Lock()
	dev := t.dev
	t.mu.Unlock()
	go func() {
		if dev == nil {
			done(errNotStarted)
			return
		}
		done(util.CatchErrs(func() error { return dev.AddService(bs) }))
	}()
}

func (t *Transport) newCharacteristic(c *server.Characteristic) *ble.Characteristic {
	key := c.Key()
	bc := ble.NewCharacteristic(c.UUID)
	if c.Properties.Notifies() {
		bc.HandleNotify(ble.NotifyHandlerFunc(func(req ble.Request, n ble.Notifier) {
			t.serveNotify(getAddrFromReq(req), key, n, req.Conn().Disconnected())
		}))
	}
	if c.Properties.Has(server.PropertyWriteWithoutResponse) || c.Properties.Has(server.PropertyWrite) {
		bc.HandleWrite(ble.WriteHandlerFunc(func(req ble.Request, rsp ble.ResponseWriter) {
			t.serveWrite(getAddrFromReq(req), key, req.Offset(), req.Data())
		}))
	}
	// the handlers above widen the property byte; keep what was declared
	bc.Property = c.Properties.BLE()
	return bc
}

func (t *Transport) serveNotify(peer string, key string, n notifier, gone <-chan struct{}) {
	t.mu.Lock()
	if t.notifiers[key] == nil {
		t.notifiers[key] = map[string]notifier{}
	}
	t.notifiers[key][peer] = n
	h := t.handler
	t.mu.Unlock()
	h.OnSubscribe(peer, key)
	go func() {
		select {
		case <-n.Context().Done():
			t.dropNotifier(peer, key, n)
			h.OnUnsubscribe(peer, key)
		case <-gone:
			t.dropPeer(peer)
			h.OnDisconnect(peer)
		}
	}()
}

func (t *Transport) dropNotifier(peer string, key string, n notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notifiers[key][peer] == n {
		delete(t.notifiers[key], peer)
	}
}

func (t *Transport) dropPeer(peer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, peers := range t.notifiers {
		delete(peers, peer)
	}
}

func (t *Transport) serveWrite(peer string, key string, offset int, data []byte) {
	value := make([]byte, len(data))
	copy(value, data)
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	h.OnWriteRequest([]models.WriteRequest{{Peer: peer, CharacteristicUUID: key, Offset: offset, Value: value}})
}

// BeginAdvertising broadcasts name and serviceUUID until StopAdvertising.
// done(nil) fires once the request has survived the settle window.
func (t *Transport) BeginAdvertising(serviceUUID ble.UUID, name string, done func(error)) {
	t.mu.Lock()
	dev := t.dev
	if dev == nil {
		t.mu.Unlock()
		go done(errNotStarted)
		return
	}
	if t.adv != nil {
		t.adv.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	adv := &advertisement{cancel: cancel}
	t.adv = adv
	t.mu.Unlock()

	go func() {
		err := util.Timeout(func() error {
			err := util.CatchErrs(func() error { return dev.AdvertiseNameAndServices(ctx, name, serviceUUID) })
			t.advertisingEnded(adv)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				t.log.WithError(err).Warn("advertising ended")
			}
			return err
		}, advertiseSettle)
		if err == util.ErrTimeout {
			err = nil
		}
		done(err)
	}()
}

func (t *Transport) advertisingEnded(adv *advertisement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.adv == adv {
		t.adv = nil
	}
}

// IsAdvertising reports whether a broadcast is running on the device
func (t *Transport) IsAdvertising() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.adv != nil
}

func (t *Transport) StopAdvertising() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.adv != nil {
		t.adv.cancel()
		t.adv = nil
	}
}

// Notify queues value for every subscriber of c, or only for peers when given
func (t *Transport) Notify(c *server.Characteristic, value []byte, peers []string) {
	var wanted mapset.Set
	if peers != nil {
		wanted = mapset.NewSet()
		for _, p := range peers {
			wanted.Add(strings.ToUpper(p))
		}
	}
	t.mu.Lock()
	targets := map[string]notifier{}
	for peer, n := range t.notifiers[c.Key()] {
		if wanted == nil || wanted.Contains(peer) {
			targets[peer] = n
		}
	}
	outbox := t.outbox
	t.mu.Unlock()
	if outbox == nil {
		t.log.WithError(errNotStarted).Warn("dropping notification")
		return
	}
	payload := make([]byte, len(value))
	copy(payload, value)
	send := func() {
		for peer, n := range targets {
			if _, err := n.Write(payload); err != nil {
				t.log.WithError(err).WithField("peer", peer).Warn("notify issue")
			}
		}
	}
	select {
	case outbox <- send:
	default:
		t.log.WithField("char", c.Key()).Warn("outbox full, dropping notification")
	}
}
