//go:build !darwin

package tinyble

import (
	"fmt"

	"github.com/Krajiyah/ble-chat/pkg/server"
	"tinygo.org/x/bluetooth"
)

type tinygoPeripheral struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
}

func newDefaultPeripheral() peripheral {
	return &tinygoPeripheral{adapter: bluetooth.DefaultAdapter}
}

func (p *tinygoPeripheral) Enable() error { return p.adapter.Enable() }

func (p *tinygoPeripheral) OnConnect(fn func(peer string, connected bool)) {
	p.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		fn(device.Address.String(), connected)
	})
}

func flags(prop server.Property) bluetooth.CharacteristicPermissions {
	var ret bluetooth.CharacteristicPermissions
	if prop.Has(server.PropertyBroadcast) {
		ret |= bluetooth.CharacteristicBroadcastPermission
	}
	if prop.Has(server.PropertyRead) {
		ret |= bluetooth.CharacteristicReadPermission
	}
	if prop.Has(server.PropertyWriteWithoutResponse) {
		ret |= bluetooth.CharacteristicWriteWithoutResponsePermission
	}
	if prop.Has(server.PropertyWrite) {
		ret |= bluetooth.CharacteristicWritePermission
	}
	if prop.Notifies() {
		ret |= bluetooth.CharacteristicNotifyPermission
	}
	if prop.Has(server.PropertyIndicate) || prop.Has(server.PropertyIndicateEncryptionRequired) {
		ret |= bluetooth.CharacteristicIndicatePermission
	}
	return ret
}

func (p *tinygoPeripheral) AddService(svc *server.Service, onWrite writeFunc) (map[string]writer, error) {
	su, err := toUUID(svc.UUID)
	if err != nil {
		return nil, err
	}
	handles := map[string]writer{}
	configs := []bluetooth.CharacteristicConfig{}
	for _, c := range svc.Characteristics {
		cu, err := toUUID(c.UUID)
		if err != nil {
			return nil, err
		}
		key := c.Key()
		h := new(bluetooth.Characteristic)
		handles[key] = h
		configs = append(configs, bluetooth.CharacteristicConfig{
			Handle: h,
			UUID:   cu,
			Value:  c.Value,
			Flags:  flags(c.Properties),
			WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
				onWrite(fmt.Sprint(client), key, offset, value)
			},
		})
	}
	err = p.adapter.AddService(&bluetooth.Service{UUID: su, Characteristics: configs})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func (p *tinygoPeripheral) Advertise(name string, serviceUUID bluetooth.UUID) error {
	p.adv = p.adapter.DefaultAdvertisement()
	err := p.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	})
	if err != nil {
		return err
	}
	return p.adv.Start()
}

func (p *tinygoPeripheral) StopAdvertising() error {
	if p.adv == nil {
		return nil
	}
	return p.adv.Stop()
}
