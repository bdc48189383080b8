package util

const (
	// ServiceUUID represents UUID for the primary chat service advertised by the peripheral
	ServiceUUID = "A001"
	// ChatCharUUID represents UUID for the characteristic carrying chat messages in both directions
	ChatCharUUID = "C001"
	// DefaultDeviceName is the local name broadcast alongside ServiceUUID
	DefaultDeviceName = "某某某的 mac os"
	// DefaultIncomingLabel is prepended to every message written by a central before it is displayed
	DefaultIncomingLabel = "裝置端: "
)
