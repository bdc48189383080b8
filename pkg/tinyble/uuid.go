package tinyble

import (
	"encoding/binary"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"tinygo.org/x/bluetooth"
)

// toUUID converts a go-ble UUID (little-endian bytes) into a tinygo UUID
func toUUID(u ble.UUID) (bluetooth.UUID, error) {
	switch len(u) {
	case 2:
		return bluetooth.New16BitUUID(binary.LittleEndian.Uint16(u)), nil
	case 16:
		var b [16]byte
		copy(b[:], ble.Reverse(u))
		return bluetooth.NewUUID(b), nil
	}
	return bluetooth.UUID{}, errors.Errorf("unsupported uuid length %d", len(u))
}
