package internal

import (
	"sync"

	"github.com/Krajiyah/ble-chat/pkg/models"
)

// RecordingDisplay keeps both message streams for assertions
type RecordingDisplay struct {
	mu       sync.Mutex
	incoming []string
	outgoing []string
}

func (d *RecordingDisplay) AppendIncomingMessage(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.incoming = append(d.incoming, text)
}

func (d *RecordingDisplay) AppendOutgoingMessage(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outgoing = append(d.outgoing, text)
}

func (d *RecordingDisplay) Incoming() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.incoming...)
}

func (d *RecordingDisplay) Outgoing() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.outgoing...)
}

// StateChange is one recorded lifecycle transition
type StateChange struct {
	From models.LifecycleState
	To   models.LifecycleState
}

// RecordingListener records everything reported by a BLEServer
type RecordingListener struct {
	mu      sync.Mutex
	Changes []StateChange
	Counts  []int
	Errors  []error
}

func (l *RecordingListener) OnStateChanged(from models.LifecycleState, to models.LifecycleState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Changes = append(l.Changes, StateChange{from, to})
}

func (l *RecordingListener) OnSubscribersChanged(count int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Counts = append(l.Counts, count)
}

func (l *RecordingListener) OnInternalError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, err)
}

func (l *RecordingListener) ErrorList() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error{}, l.Errors...)
}

// HandlerEvent is one recorded transport callback
type HandlerEvent struct {
	Kind     string
	Peer     string
	CharUUID string
	Power    models.PowerState
	Writes   []models.WriteRequest
}

// RecordingHandler records transport callbacks and forwards them on Events
type RecordingHandler struct {
	Events chan HandlerEvent
}

func NewRecordingHandler() *RecordingHandler {
	return &RecordingHandler{Events: make(chan HandlerEvent, 32)}
}

func (h *RecordingHandler) OnPowerStateChanged(ps models.PowerState) {
	h.Events <- HandlerEvent{Kind: "power", Power: ps}
}

func (h *RecordingHandler) OnSubscribe(peer string, charUUID string) {
	h.Events <- HandlerEvent{Kind: "subscribe", Peer: peer, CharUUID: charUUID}
}

func (h *RecordingHandler) OnUnsubscribe(peer string, charUUID string) {
	h.Events <- HandlerEvent{Kind: "unsubscribe", Peer: peer, CharUUID: charUUID}
}

func (h *RecordingHandler) OnDisconnect(peer string) {
	h.Events <- HandlerEvent{Kind: "disconnect", Peer: peer}
}

func (h *RecordingHandler) OnWriteRequest(reqs []models.WriteRequest) {
	h.Events <- HandlerEvent{Kind: "write", Writes: reqs}
}
