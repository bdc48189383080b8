package server

import (
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/bradfitz/slice"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

// Property is the bitmask of operations a characteristic declares
type Property int

const (
	PropertyBroadcast Property = 1 << iota
	PropertyRead
	PropertyWriteWithoutResponse
	PropertyWrite
	PropertyNotify
	PropertyIndicate
	PropertyAuthenticatedSignedWrites
	PropertyExtendedProperties
	PropertyNotifyEncryptionRequired
	PropertyIndicateEncryptionRequired
)

// Permission is the bitmask of access rules on a characteristic value
type Permission int

const (
	PermissionReadable Permission = 1 << iota
	PermissionWriteable
	PermissionReadEncryptionRequired
	PermissionWriteEncryptionRequired
)

// Has reports whether all bits of o are set
func (p Property) Has(o Property) bool { return p&o == o }

// Has reports whether all bits of o are set
func (p Permission) Has(o Permission) bool { return p&o == o }

// Notifies reports whether centrals may subscribe, with or without encryption
func (p Property) Notifies() bool {
	return p.Has(PropertyNotify) || p.Has(PropertyNotifyEncryptionRequired)
}

// BLE maps p onto the go-ble property byte. Encryption variants collapse onto
// their plain counterparts; the platform enforces the encryption requirement.
func (p Property) BLE() ble.Property {
	var ret ble.Property
	if p.Has(PropertyBroadcast) {
		ret |= ble.CharBroadcast
	}
	if p.Has(PropertyRead) {
		ret |= ble.CharRead
	}
	if p.Has(PropertyWriteWithoutResponse) {
		ret |= ble.CharWriteNR
	}
	if p.Has(PropertyWrite) {
		ret |= ble.CharWrite
	}
	if p.Notifies() {
		ret |= ble.CharNotify
	}
	if p.Has(PropertyIndicate) || p.Has(PropertyIndicateEncryptionRequired) {
		ret |= ble.CharIndicate
	}
	if p.Has(PropertyAuthenticatedSignedWrites) {
		ret |= ble.CharSignedWrite
	}
	if p.Has(PropertyExtendedProperties) {
		ret |= ble.CharExtended
	}
	return ret
}

// Characteristic is a peripheral-side GATT characteristic
type Characteristic struct {
	UUID        ble.UUID
	Properties  Property
	Permissions Permission
	Value       []byte
}

// Key returns the registry key for c
func (c *Characteristic) Key() string { return util.UuidToStr(c.UUID) }

// Service is a peripheral-side GATT service. It is not modified after registration.
type Service struct {
	UUID            ble.UUID
	Primary         bool
	Characteristics []*Characteristic
}

func newChatService() *Service {
	char := &Characteristic{
		UUID:        ble.MustParse(util.ChatCharUUID),
		Properties:  PropertyNotifyEncryptionRequired | PropertyWriteWithoutResponse,
		Permissions: PermissionWriteEncryptionRequired,
	}
	return &Service{
		UUID:            ble.MustParse(util.ServiceUUID),
		Primary:         true,
		Characteristics: []*Characteristic{char},
	}
}

// Registry maps characteristic uuid strings to the characteristics of the published service
type Registry struct {
	chars map[string]*Characteristic
}

// NewRegistry makes an empty registry
func NewRegistry() *Registry {
	return &Registry{chars: map[string]*Characteristic{}}
}

// Register inserts or overwrites the mapping for uuid
func (r *Registry) Register(uuid string, c *Characteristic) {
	r.chars[util.NormalizeUUID(uuid)] = c
}

// Lookup returns the characteristic registered under uuid or ErrCharacteristicNotFound
func (r *Registry) Lookup(uuid string) (*Characteristic, error) {
	if c, ok := r.chars[util.NormalizeUUID(uuid)]; ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrCharacteristicNotFound, "uuid %s", uuid)
}

// Clear drops every mapping
func (r *Registry) Clear() {
	r.chars = map[string]*Characteristic{}
}

func (r *Registry) Len() int { return len(r.chars) }

// UUIDs returns the registered keys in sorted order
func (r *Registry) UUIDs() []string {
	ret := make([]string, 0, len(r.chars))
	for k := range r.chars {
		ret = append(ret, k)
	}
	slice.Sort(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
