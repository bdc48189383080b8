package server

import (
	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/go-ble/ble"
)

// Transport is the radio capability the peripheral drives. Completion
// callbacks may be invoked from any goroutine.
type Transport interface {
	// Start opens the radio and begins delivering callbacks to h.
	Start(h Handler) error
	Stop() error
	RegisterService(svc *Service, done func(error))
	BeginAdvertising(serviceUUID ble.UUID, name string, done func(error))
	// IsAdvertising reports the radio's actual broadcast state.
	IsAdvertising() bool
	StopAdvertising()
	// Notify pushes value to the subscribed peers of c; nil peers means all subscribers.
	Notify(c *Characteristic, value []byte, peers []string)
}

// Handler receives raw callbacks from a Transport.
type Handler interface {
	OnPowerStateChanged(models.PowerState)
	OnSubscribe(peer string, charUUID string)
	OnUnsubscribe(peer string, charUUID string)
	OnDisconnect(peer string)
	OnWriteRequest([]models.WriteRequest)
}

// Display is the chat view. Both calls are fire-and-forget; implementations
// move the text onto their own UI context.
type Display interface {
	AppendIncomingMessage(text string)
	AppendOutgoingMessage(text string)
}
