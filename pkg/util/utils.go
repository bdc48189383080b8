package util

import (
	"strings"

	"github.com/go-ble/ble"
)

// AddrEqualAddr compares two bluetooth addresses ignoring case
func AddrEqualAddr(a string, b string) bool {
	return strings.ToUpper(a) == strings.ToUpper(b)
}

// NormalizeUUID turns any textual uuid form ("c001", "0000C001-0000-...") into the registry key form
func NormalizeUUID(s string) string {
	return strings.ToUpper(strings.Replace(s, "-", "", -1))
}

// UuidToStr returns the registry key form of u
func UuidToStr(u ble.UUID) string {
	return NormalizeUUID(u.String())
}

// UuidEqualStr reports whether u and s name the same uuid
func UuidEqualStr(u ble.UUID, s string) bool {
	return UuidToStr(u) == NormalizeUUID(s)
}
