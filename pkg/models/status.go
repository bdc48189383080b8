package models

// PowerState is the radio state reported by a transport
type PowerState int

const (
	// PowerStateUnknown means the transport has not reported yet
	PowerStateUnknown PowerState = iota
	// PowerStateResetting means the link to the radio was lost and an update is imminent
	PowerStateResetting
	// PowerStateUnsupported means the hardware cannot act as a BLE peripheral
	PowerStateUnsupported
	// PowerStateUnauthorized means the process may not use the radio
	PowerStateUnauthorized
	// PowerStatePoweredOff means the radio is off
	PowerStatePoweredOff
	// PowerStatePoweredOn means the radio is on and usable
	PowerStatePoweredOn
)

func (s PowerState) String() string {
	switch s {
	case PowerStateResetting:
		return "Resetting"
	case PowerStateUnsupported:
		return "Unsupported"
	case PowerStateUnauthorized:
		return "Unauthorized"
	case PowerStatePoweredOff:
		return "PoweredOff"
	case PowerStatePoweredOn:
		return "PoweredOn"
	default:
		return "Unknown"
	}
}

// LifecycleState is an enum for the peripheral lifecycle
type LifecycleState int

const (
	// Unready indicates the radio is not powered on or the session was torn down
	Unready LifecycleState = iota
	// PoweredOn indicates the service is built and submitted to the transport
	PoweredOn
	// ServicePublished indicates the transport accepted the service
	ServicePublished
	// Advertising indicates broadcast was requested, or that the last subscriber left
	Advertising
	// Subscribed indicates at least one central subscribed to a characteristic
	Subscribed
)

func (s LifecycleState) String() string {
	switch s {
	case Unready:
		return "Unready"
	case PoweredOn:
		return "PoweredOn"
	case ServicePublished:
		return "ServicePublished"
	case Advertising:
		return "Advertising"
	case Subscribed:
		return "Subscribed"
	default:
		return "Unknown"
	}
}
