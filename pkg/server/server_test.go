package server

import (
	"context"
	"testing"
	"time"

	. "github.com/Krajiyah/ble-chat/internal"
	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/Krajiyah/ble-chat/pkg/util"
	"github.com/pkg/errors"
	"gotest.tools/assert"
)

type testServer struct {
	*BLEServer
	transport *mockTransport
	display   *RecordingDisplay
	listener  *RecordingListener
	cancel    context.CancelFunc
	done      chan error
}

func startTestServer(t *testing.T) *testServer {
	tr := newMockTransport()
	tr.startPower = true
	tr.autoComplete = true
	d := &RecordingDisplay{}
	l := &RecordingListener{}
	opts := DefaultOptions()
	opts.Logger, _ = nullLogger()
	server := NewBLEServer(tr, d, l, opts)
	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{server, tr, d, l, cancel, make(chan error, 1)}
	go func() { ts.done <- server.Run(ctx) }()
	return ts
}

func (ts *testServer) stateIs(s models.LifecycleState) func() bool {
	return func() bool {
		state, err := ts.State()
		return err == nil && state == s
	}
}

func TestServerScenario(t *testing.T) {
	ts := startTestServer(t)
	waitFor(t, "advertising", func() bool {
		adv, err := ts.IsAdvertising()
		return err == nil && adv && ts.stateIs(models.Advertising)()
	})

	ts.transport.handler.OnSubscribe("peer1", util.ChatCharUUID)
	waitFor(t, "subscribed", ts.stateIs(models.Subscribed))
	adv, err := ts.IsAdvertising()
	assert.NilError(t, err)
	assert.Check(t, !adv)

	err = ts.Send("hello")
	assert.NilError(t, err)
	calls := ts.transport.notifyCalls()
	assert.Equal(t, len(calls), 1)
	assert.DeepEqual(t, calls[0].value, []byte("hello"))
	assert.Check(t, calls[0].peers == nil)
	assert.DeepEqual(t, ts.display.Outgoing(), []string{"hello"})

	ts.transport.handler.OnWriteRequest([]models.WriteRequest{{Peer: "peer1", CharacteristicUUID: "C001", Value: []byte("hi")}})
	waitFor(t, "incoming message", func() bool { return len(ts.display.Incoming()) == 1 })
	assert.Equal(t, ts.display.Incoming()[0], util.DefaultIncomingLabel+"hi")

	ts.transport.handler.OnUnsubscribe("peer1", util.ChatCharUUID)
	waitFor(t, "unsubscribed", ts.stateIs(models.Advertising))
	subs, err := ts.Subscribers()
	assert.NilError(t, err)
	assert.Equal(t, len(subs), 0)
	n, err := ts.SubscriberCount()
	assert.NilError(t, err)
	assert.Equal(t, n, 0)
	adv, err = ts.IsAdvertising()
	assert.NilError(t, err)
	assert.Check(t, !adv)

	ts.cancel()
	assert.NilError(t, <-ts.done)
	assert.Check(t, ts.transport.stopped)
	assert.Equal(t, ts.Send("too late"), ErrQueueClosed)
}

func TestServerSendBytesUnknownUUID(t *testing.T) {
	ts := startTestServer(t)
	defer ts.cancel()
	waitFor(t, "advertising", ts.stateIs(models.Advertising))
	err := ts.SendBytes([]byte("x"), "C009")
	assert.Equal(t, errors.Cause(err), ErrCharacteristicNotFound)
	assert.Equal(t, len(ts.transport.notifyCalls()), 0)
}

func TestServerReportsDecodeFailure(t *testing.T) {
	ts := startTestServer(t)
	defer ts.cancel()
	waitFor(t, "advertising", ts.stateIs(models.Advertising))
	ts.transport.handler.OnWriteRequest([]models.WriteRequest{{Peer: "peer1", Value: []byte{0xff}}})
	waitFor(t, "decode error", func() bool { return len(ts.listener.ErrorList()) == 1 })
	assert.Equal(t, errors.Cause(ts.listener.ErrorList()[0]), ErrDecodeFailure)
	assert.Equal(t, len(ts.display.Incoming()), 0)
	state, err := ts.State()
	assert.NilError(t, err)
	assert.Equal(t, state, models.Advertising)
}

func TestServerPowerOffFailsSends(t *testing.T) {
	ts := startTestServer(t)
	defer ts.cancel()
	waitFor(t, "advertising", ts.stateIs(models.Advertising))
	ts.transport.handler.OnPowerStateChanged(models.PowerStatePoweredOff)
	waitFor(t, "unready", ts.stateIs(models.Unready))
	err := ts.Send("hello")
	assert.Equal(t, errors.Cause(err), ErrCharacteristicNotFound)
	registered, _, _, _ := ts.transport.counts()
	assert.Equal(t, registered, 1)
}

func TestServerCallsFailAfterStartError(t *testing.T) {
	tr := newMockTransport()
	tr.startErr = errors.New("no hci device")
	opts := DefaultOptions()
	opts.Logger, _ = nullLogger()
	server := NewBLEServer(tr, nil, nil, opts)
	assert.ErrorContains(t, server.Run(context.Background()), "no hci device")

	done := make(chan error, 1)
	go func() { done <- server.Send("hello") }()
	select {
	case err := <-done:
		assert.Equal(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("Send blocked after Run failed")
	}
	_, err := server.State()
	assert.Equal(t, err, ErrQueueClosed)
	_, err = server.SubscriberCount()
	assert.Equal(t, err, ErrQueueClosed)
	assert.Equal(t, len(tr.notifyCalls()), 0)
}

func TestServerSendBytesTo(t *testing.T) {
	ts := startTestServer(t)
	defer ts.cancel()
	waitFor(t, "advertising", ts.stateIs(models.Advertising))
	ts.transport.handler.OnSubscribe("peer1", util.ChatCharUUID)
	waitFor(t, "subscribed", ts.stateIs(models.Subscribed))

	assert.NilError(t, ts.SendBytesTo([]byte("psst"), util.ChatCharUUID, []string{"peer1"}))
	calls := ts.transport.notifyCalls()
	assert.Equal(t, len(calls), 1)
	assert.DeepEqual(t, calls[0].peers, []string{"peer1"})
	assert.DeepEqual(t, calls[0].value, []byte("psst"))

	err := ts.SendBytesTo([]byte("psst"), "C009", []string{"peer1"})
	assert.Equal(t, errors.Cause(err), ErrCharacteristicNotFound)
	assert.Equal(t, len(ts.transport.notifyCalls()), 1)
}
