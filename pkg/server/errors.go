package server

import "github.com/pkg/errors"

var (
	// ErrCharacteristicNotFound is returned by sends that target an unregistered uuid
	ErrCharacteristicNotFound = errors.New("characteristic not found")
	// ErrRegistrationFailed is reported when the transport rejects the service; the session is over
	ErrRegistrationFailed = errors.New("service registration failed")
	// ErrAdvertisingFailed is reported when the transport could not start broadcasting
	ErrAdvertisingFailed = errors.New("advertising failed to start")
	// ErrDecodeFailure is returned when an inbound write is not valid UTF-8
	ErrDecodeFailure = errors.New("could not decode write request")
	// ErrInvalidState is returned when an operation is requested in the wrong lifecycle state
	ErrInvalidState = errors.New("invalid lifecycle state")
	// ErrQueueClosed is returned when work is submitted to a queue that is not running
	ErrQueueClosed = errors.New("queue closed")
)
