//go:build !linux

package ble

import "github.com/pkg/errors"

func (bc *realCoreMethods) NewDevice(deviceID int) (radio, error) {
	return nil, errors.New("the go-ble backend needs a Linux HCI socket; use the tinygo backend on this platform")
}
