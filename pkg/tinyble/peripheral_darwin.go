//go:build darwin

package tinyble

import (
	"github.com/Krajiyah/ble-chat/pkg/server"
	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

var errCentralOnly = errors.New("tinygo bluetooth is central-only on darwin")

type unsupportedPeripheral struct{}

func newDefaultPeripheral() peripheral { return unsupportedPeripheral{} }

func (unsupportedPeripheral) Enable() error { return errCentralOnly }
func (unsupportedPeripheral) OnConnect(fn func(peer string, connected bool)) {}
func (unsupportedPeripheral) AddService(svc *server.Service, onWrite writeFunc) (map[string]writer, error) {
	return nil, errCentralOnly
}
func (unsupportedPeripheral) Advertise(name string, serviceUUID bluetooth.UUID) error {
	return errCentralOnly
}
func (unsupportedPeripheral) StopAdvertising() error { return nil }
