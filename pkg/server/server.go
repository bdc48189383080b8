package server

import (
	"context"

	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures a BLEServer
type Options struct {
	// DeviceName is broadcast as the local name
	DeviceName string
	// IncomingLabel is prepended to every received message before display
	IncomingLabel string
	// ResumeAdvertising restarts broadcast once the last subscriber leaves
	ResumeAdvertising bool
	QueueSize         int
	Logger            logrus.FieldLogger
}

// DefaultOptions returns the stock chat identity
func DefaultOptions() Options {
	return Options{
		DeviceName:    util.DefaultDeviceName,
		IncomingLabel: util.DefaultIncomingLabel,
	}
}

func (o Options) deviceName() string {
	if o.DeviceName == "" {
		return util.DefaultDeviceName
	}
	return o.DeviceName
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// BLEServer is the chat peripheral. It receives raw transport callbacks and
// runs the lifecycle state machine and message channel on one serial queue.
type BLEServer struct {
	transport Transport
	queue     *Queue
	machine   *Machine
	channel   *Channel
	log       logrus.FieldLogger
}

// NewBLEServer wires a peripheral over t. display and listener may be nil.
func NewBLEServer(t Transport, display Display, listener models.BLEServerStatusListener, opts Options) *BLEServer {
	server := &BLEServer{
		transport: t,
		queue:     NewQueue(opts.QueueSize),
		log:       opts.logger().WithField("component", "server"),
	}
	registry := NewRegistry()
	server.machine = newMachine(t, registry, listener, opts, server.post)
	server.channel = newChannel(t, registry, display, opts)
	return server
}

// Run starts the transport and processes callbacks until ctx is cancelled
func (server *BLEServer) Run(ctx context.Context) error {
	if err := server.transport.Start(server); err != nil {
		server.queue.Close()
		return errors.Wrap(err, "transport start issue")
	}
	err := server.queue.Run(ctx)
	if stopErr := server.transport.Stop(); stopErr != nil {
		server.log.WithError(stopErr).Warn("transport stop issue")
	}
	if errors.Cause(err) == context.Canceled {
		return nil
	}
	return err
}

func (server *BLEServer) post(fn func()) {
	if err := server.queue.Post(fn); err != nil {
		server.log.WithError(err).Debug("dropping transport callback")
	}
}

// OnPowerStateChanged implements Handler
func (server *BLEServer) OnPowerStateChanged(ps models.PowerState) {
	server.post(func() { server.machine.HandlePowerState(ps) })
}

// OnSubscribe implements Handler
func (server *BLEServer) OnSubscribe(peer string, charUUID string) {
	server.post(func() { server.machine.HandleSubscribe(peer, charUUID) })
}

// OnUnsubscribe implements Handler
func (server *BLEServer) OnUnsubscribe(peer string, charUUID string) {
	server.post(func() { server.machine.HandleUnsubscribe(peer, charUUID) })
}

// OnDisconnect implements Handler
func (server *BLEServer) OnDisconnect(peer string) {
	server.post(func() { server.machine.HandleDisconnect(peer) })
}

// OnWriteRequest implements Handler
func (server *BLEServer) OnWriteRequest(reqs []models.WriteRequest) {
	server.post(func() {
		if _, err := server.channel.Receive(reqs); err != nil {
			server.machine.report(err)
		}
	})
}

// Send echoes text to the display and notifies subscribers with it
func (server *BLEServer) Send(text string) error {
	return server.queue.Do(func() error { return server.channel.SendText(text) })
}

// SendBytes notifies the subscribers of uuid with payload
func (server *BLEServer) SendBytes(payload []byte, uuid string) error {
	return server.queue.Do(func() error { return server.channel.Send(payload, uuid) })
}

// SendBytesTo notifies only peers among the subscribers of uuid
func (server *BLEServer) SendBytesTo(payload []byte, uuid string, peers []string) error {
	return server.queue.Do(func() error { return server.channel.SendTo(payload, uuid, peers) })
}

// State returns the current lifecycle state
func (server *BLEServer) State() (models.LifecycleState, error) {
	var state models.LifecycleState
	err := server.queue.Do(func() error {
		state = server.machine.State()
		return nil
	})
	return state, err
}

// Subscribers returns a snapshot of the connected subscribers
func (server *BLEServer) Subscribers() ([]models.Subscriber, error) {
	var subs []models.Subscriber
	err := server.queue.Do(func() error {
		subs = server.machine.Subscribers()
		return nil
	})
	return subs, err
}

// IsAdvertising reports the radio's broadcast state as seen from the queue
func (server *BLEServer) IsAdvertising() (bool, error) {
	var adv bool
	err := server.queue.Do(func() error {
		adv = server.transport.IsAdvertising()
		return nil
	})
	return adv, err
}

// SubscriberCount returns how many centrals are subscribed
func (server *BLEServer) SubscriberCount() (int, error) {
	var n int
	err := server.queue.Do(func() error {
		n = server.machine.SubscriberCount()
		return nil
	})
	return n, err
}
