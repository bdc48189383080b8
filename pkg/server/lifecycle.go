package server

import (
	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/bradfitz/slice"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Machine is the peripheral lifecycle state machine. It is not safe for
// concurrent use; BLEServer runs every call on its serial queue.
type Machine struct {
	state       models.LifecycleState
	service     *Service
	registry    *Registry
	subscribers map[string]*models.Subscriber
	advertiser  *Advertiser
	transport   Transport
	listener    models.BLEServerStatusListener
	opts        Options

	// generation is bumped on every power-on and teardown so completions
	// belonging to an earlier session are discarded.
	generation         int
	advertisingPending bool

	dispatch func(func())
	log      logrus.FieldLogger
}

func newMachine(t Transport, registry *Registry, listener models.BLEServerStatusListener, opts Options, dispatch func(func())) *Machine {
	if listener == nil {
		listener = blankListener{}
	}
	log := opts.logger()
	return &Machine{
		state:       models.Unready,
		registry:    registry,
		subscribers: map[string]*models.Subscriber{},
		advertiser:  newAdvertiser(t, log),
		transport:   t,
		listener:    listener,
		opts:        opts,
		dispatch:    dispatch,
		log:         log.WithField("component", "lifecycle"),
	}
}

func (m *Machine) State() models.LifecycleState { return m.state }

// AdvertisingPending reports whether an advertising request awaits its completion
func (m *Machine) AdvertisingPending() bool { return m.advertisingPending }

func (m *Machine) SubscriberCount() int { return len(m.subscribers) }

// Subscribers returns a snapshot of the subscriber table sorted by peer
func (m *Machine) Subscribers() []models.Subscriber {
	ret := make([]models.Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		ret = append(ret, models.Subscriber{Peer: s.Peer, Characteristics: s.Characteristics.Clone()})
	}
	slice.Sort(ret, func(i, j int) bool { return ret[i].Peer < ret[j].Peer })
	return ret
}

func (m *Machine) setState(s models.LifecycleState) {
	if s == m.state {
		return
	}
	from := m.state
	m.state = s
	m.log.WithFields(logrus.Fields{"from": from, "to": s}).Debug("state changed")
	m.listener.OnStateChanged(from, s)
}

func (m *Machine) report(err error) {
	m.log.WithError(err).Error("peripheral error")
	m.listener.OnInternalError(err)
}

// HandlePowerState reacts to the radio power state. Powered on builds and
// submits the chat service; anything else tears the session down.
func (m *Machine) HandlePowerState(ps models.PowerState) {
	if ps != models.PowerStatePoweredOn {
		m.log.WithField("power", ps).Warn("radio not powered on")
		m.teardown()
		return
	}
	if m.state != models.Unready {
		m.log.Debug("ignoring repeated power on")
		return
	}
	m.generation++
	gen := m.generation
	svc := newChatService()
	for _, c := range svc.Characteristics {
		m.registry.Register(c.Key(), c)
	}
	m.service = svc
	m.setState(models.PoweredOn)
	m.transport.RegisterService(svc, func(err error) {
		m.dispatch(func() { m.handleServiceAdded(gen, err) })
	})
}

func (m *Machine) handleServiceAdded(gen int, err error) {
	if gen != m.generation || m.state != models.PoweredOn {
		m.log.Debug("discarding stale service-add completion")
		return
	}
	if err != nil {
		m.report(errors.Wrapf(ErrRegistrationFailed, "%v", err))
		m.teardown()
		return
	}
	m.log.WithFields(logrus.Fields{
		"service": util.UuidToStr(m.service.UUID),
		"chars":   m.registry.UUIDs(),
	}).Info("service published")
	m.setState(models.ServicePublished)
	if err := m.StartAdvertising(); err != nil {
		m.report(err)
	}
}

// StartAdvertising requests broadcast of the published service
func (m *Machine) StartAdvertising() error {
	var uuid ble.UUID
	if m.service != nil {
		uuid = m.service.UUID
	}
	gen := m.generation
	err := m.advertiser.Start(m.state, uuid, m.opts.deviceName(), func(err error) {
		m.dispatch(func() { m.handleAdvertisingStarted(gen, err) })
	})
	if err != nil {
		return err
	}
	m.advertisingPending = true
	m.setState(models.Advertising)
	return nil
}

func (m *Machine) handleAdvertisingStarted(gen int, err error) {
	if gen != m.generation || !m.advertisingPending {
		m.log.Debug("discarding stale advertising completion")
		return
	}
	m.advertisingPending = false
	if err != nil {
		m.report(errors.Wrapf(ErrAdvertisingFailed, "%v", err))
		if m.state == models.Advertising {
			m.setState(models.ServicePublished)
		}
		return
	}
	m.log.WithField("name", m.opts.deviceName()).Info("started advertising")
	if len(m.subscribers) > 0 {
		// a central attached before the radio confirmed the start
		m.advertiser.Stop()
	}
}

// HandleSubscribe records peer as a subscriber of charUUID
func (m *Machine) HandleSubscribe(peer string, charUUID string) {
	log := m.log.WithFields(logrus.Fields{"peer": peer, "char": charUUID})
	if m.state < models.ServicePublished {
		log.Warn("ignoring subscribe before the service is published")
		return
	}
	c, err := m.registry.Lookup(charUUID)
	if err != nil {
		log.WithError(err).Warn("ignoring subscribe")
		return
	}
	if !c.Properties.Notifies() {
		log.Warn("ignoring subscribe to characteristic without notify")
		return
	}
	prev := len(m.subscribers)
	sub, ok := m.subscribers[peer]
	if !ok {
		sub = models.NewSubscriber(peer)
		m.subscribers[peer] = sub
	}
	sub.Characteristics.Add(c.Key())
	next := len(m.subscribers)
	log.Info("central subscribed")
	if next != prev {
		m.listener.OnSubscribersChanged(next)
	}
	if ShouldStopAdvertising(prev, next) {
		m.advertiser.Stop()
	}
	m.setState(models.Subscribed)
}

// HandleUnsubscribe removes charUUID from peer's subscriptions; a peer with
// none left is no longer a subscriber.
func (m *Machine) HandleUnsubscribe(peer string, charUUID string) {
	sub, ok := m.subscribers[peer]
	if !ok {
		m.log.WithField("peer", peer).Debug("unsubscribe from unknown peer")
		return
	}
	sub.Characteristics.Remove(util.NormalizeUUID(charUUID))
	m.log.WithFields(logrus.Fields{"peer": peer, "char": charUUID}).Info("central unsubscribed")
	if sub.Characteristics.Cardinality() > 0 {
		return
	}
	m.removeSubscriber(peer)
}

// HandleDisconnect drops peer and all of its subscriptions
func (m *Machine) HandleDisconnect(peer string) {
	if _, ok := m.subscribers[peer]; !ok {
		return
	}
	m.log.WithField("peer", peer).Info("central disconnected")
	m.removeSubscriber(peer)
}

func (m *Machine) removeSubscriber(peer string) {
	prev := len(m.subscribers)
	delete(m.subscribers, peer)
	next := len(m.subscribers)
	m.listener.OnSubscribersChanged(next)
	if next > 0 || m.state != models.Subscribed {
		return
	}
	if ShouldResumeAdvertising(prev, next, m.opts.ResumeAdvertising) {
		m.setState(models.ServicePublished)
		if err := m.StartAdvertising(); err != nil {
			m.report(err)
		}
		return
	}
	// service stays published but the radio is left silent
	m.setState(models.Advertising)
}

func (m *Machine) teardown() {
	m.generation++
	m.advertisingPending = false
	m.advertiser.Stop()
	m.registry.Clear()
	m.service = nil
	if len(m.subscribers) > 0 {
		m.subscribers = map[string]*models.Subscriber{}
		m.listener.OnSubscribersChanged(0)
	}
	m.setState(models.Unready)
}

type blankListener struct{}

func (blankListener) OnStateChanged(models.LifecycleState, models.LifecycleState) {}
func (blankListener) OnSubscribersChanged(int)                                   {}
func (blankListener) OnInternalError(error)                                      {}
