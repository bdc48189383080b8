package server

import (
	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Channel moves chat text between the display and the characteristic
type Channel struct {
	registry  *Registry
	transport Transport
	display   Display
	label     string
	log       logrus.FieldLogger
}

func newChannel(t Transport, registry *Registry, display Display, opts Options) *Channel {
	if display == nil {
		display = blankDisplay{}
	}
	return &Channel{
		registry:  registry,
		transport: t,
		display:   display,
		label:     opts.IncomingLabel,
		log:       opts.logger().WithField("component", "channel"),
	}
}

// Send notifies every subscriber of uuid with payload
func (ch *Channel) Send(payload []byte, uuid string) error {
	return ch.SendTo(payload, uuid, nil)
}

// SendTo notifies the given peers, or all subscribers when peers is nil.
// Unregistered uuids fail with ErrCharacteristicNotFound before the transport is touched.
func (ch *Channel) SendTo(payload []byte, uuid string, peers []string) error {
	c, err := ch.registry.Lookup(uuid)
	if err != nil {
		return err
	}
	c.Value = payload
	ch.transport.Notify(c, payload, peers)
	ch.log.WithFields(logrus.Fields{"char": c.Key(), "bytes": len(payload)}).Debug("notified")
	return nil
}

// SendText echoes text to the display and sends it over the chat characteristic
func (ch *Channel) SendText(text string) error {
	ch.display.AppendOutgoingMessage(text)
	return ch.Send(util.EncodeText(text), util.ChatCharUUID)
}

// Receive decodes the first write of a batch and forwards it, labelled, to
// the display. Further writes in the same batch are ignored.
func (ch *Channel) Receive(reqs []models.WriteRequest) (string, error) {
	if len(reqs) == 0 {
		return "", nil
	}
	if len(reqs) > 1 {
		ch.log.WithField("ignored", len(reqs)-1).Debug("only the first write of a batch is read")
	}
	req := reqs[0]
	if req.Value == nil {
		return "", nil
	}
	text, err := util.DecodeText(req.Value)
	if err != nil {
		return "", errors.Wrapf(ErrDecodeFailure, "write from %s: %v", req.Peer, err)
	}
	msg := ch.label + text
	ch.log.WithField("peer", req.Peer).Debug("received")
	ch.display.AppendIncomingMessage(msg)
	return msg, nil
}

type blankDisplay struct{}

func (blankDisplay) AppendIncomingMessage(string) {}
func (blankDisplay) AppendOutgoingMessage(string) {}
