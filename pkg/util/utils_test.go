package util

import (
	"testing"

	"github.com/go-ble/ble"
	"gotest.tools/assert"
)

func TestUuidEqualStr(t *testing.T) {
	assert.Check(t, UuidEqualStr(ble.MustParse(ChatCharUUID), "c001"))
	assert.Check(t, UuidEqualStr(ble.MustParse("00010000-0001-1000-8000-00805F9B34FB"), "00010000000110008000Q0805F9B34FB") == false)
	assert.Check(t, UuidEqualStr(ble.MustParse("00010000-0001-1000-8000-00805F9B34FB"), "00010000-0001-1000-8000-00805f9b34fb"))
	assert.Equal(t, UuidToStr(ble.MustParse(ServiceUUID)), "A001")
}

func TestAddrEqualAddr(t *testing.T) {
	assert.Check(t, AddrEqualAddr("aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF"))
	assert.Check(t, !AddrEqualAddr("aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:00"))
}
