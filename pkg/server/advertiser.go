package server

import (
	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ShouldStopAdvertising reports whether a subscriber count change from prev to next
// must halt broadcast. Only one conversation is supported, so the first subscriber
// hides the peripheral from every other central.
func ShouldStopAdvertising(prev, next int) bool {
	return prev == 0 && next > 0
}

// ShouldResumeAdvertising reports whether broadcast restarts when the last subscriber leaves.
func ShouldResumeAdvertising(prev, next int, resume bool) bool {
	return resume && prev > 0 && next == 0
}

// Advertiser starts and stops broadcast of the service identity
type Advertiser struct {
	transport Transport
	log       logrus.FieldLogger
}

func newAdvertiser(t Transport, log logrus.FieldLogger) *Advertiser {
	return &Advertiser{transport: t, log: log.WithField("component", "advertiser")}
}

// Start asks the transport to broadcast serviceUUID and name. It is only valid
// once the service is published; done receives the transport's result.
func (a *Advertiser) Start(state models.LifecycleState, serviceUUID ble.UUID, name string, done func(error)) error {
	if state != models.ServicePublished {
		return errors.Wrapf(ErrInvalidState, "cannot advertise in state %s", state)
	}
	a.log.WithField("name", name).Debug("requesting advertising")
	a.transport.BeginAdvertising(serviceUUID, name, done)
	return nil
}

// Stop halts broadcast if the radio reports it is advertising. It returns
// whether a stop was issued.
func (a *Advertiser) Stop() bool {
	if !a.transport.IsAdvertising() {
		return false
	}
	a.transport.StopAdvertising()
	a.log.Info("stopped advertising")
	return true
}
