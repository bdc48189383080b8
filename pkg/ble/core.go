package ble

import (
	"context"

	"github.com/go-ble/ble"
)

// radio is the part of a go-ble device the peripheral needs
type radio interface {
	AddService(svc *ble.Service) error
	RemoveAllServices() error
	AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error
	Stop() error
}

type coreMethods interface {
	NewDevice(deviceID int) (radio, error)
}

type realCoreMethods struct{}
