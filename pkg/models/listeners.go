package models

// BLEServerStatusListener receives lifecycle reports from the peripheral.
// Calls arrive on the peripheral's serial queue and must not block.
type BLEServerStatusListener interface {
	OnStateChanged(from LifecycleState, to LifecycleState)
	OnSubscribersChanged(count int)
	OnInternalError(error)
}
