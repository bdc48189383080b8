//go:build linux

package ble

import (
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
)

func (bc *realCoreMethods) NewDevice(deviceID int) (radio, error) {
	opts := []ble.Option{}
	if deviceID >= 0 {
		opts = append(opts, ble.OptDeviceID(deviceID))
	}
	var dev radio
	err := util.CatchErrs(func() error {
		d, e := linux.NewDevice(opts...)
		if e != nil {
			return e
		}
		dev = d
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "linux.NewDevice issue")
	}
	return dev, nil
}
