package chatui

import (
	"github.com/Krajiyah/ble-chat/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const bridgeSize = 128

// incomingMsg is text received from the central.
type incomingMsg struct {
	id   uuid.UUID
	text string
}

// outgoingMsg is text this device sent.
type outgoingMsg struct {
	id   uuid.UUID
	text string
}

// stateMsg signals a lifecycle transition.
type stateMsg struct {
	from models.LifecycleState
	to   models.LifecycleState
}

// subscribersMsg carries the new subscriber count.
type subscribersMsg struct {
	count int
}

// errorMsg carries an internal error report.
type errorMsg struct {
	err error
}

// Bridge moves peripheral callbacks onto the Bubble Tea loop. It is both the
// chat Display and the status listener; calls never block the caller.
type Bridge struct {
	msgs chan tea.Msg
	log  logrus.FieldLogger
}

func NewBridge(log logrus.FieldLogger) *Bridge {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bridge{
		msgs: make(chan tea.Msg, bridgeSize),
		log:  log.WithField("component", "chatui"),
	}
}

func (b *Bridge) push(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	default:
		b.log.WithField("msg", msg).Warn("display backlog full, dropping update")
	}
}

func (b *Bridge) AppendIncomingMessage(text string) {
	id := uuid.New()
	b.log.WithField("id", id).Debug("incoming message")
	b.push(incomingMsg{id: id, text: text})
}

func (b *Bridge) AppendOutgoingMessage(text string) {
	id := uuid.New()
	b.log.WithField("id", id).Debug("outgoing message")
	b.push(outgoingMsg{id: id, text: text})
}

func (b *Bridge) OnStateChanged(from models.LifecycleState, to models.LifecycleState) {
	b.push(stateMsg{from: from, to: to})
}

func (b *Bridge) OnSubscribersChanged(count int) {
	b.push(subscribersMsg{count: count})
}

func (b *Bridge) OnInternalError(err error) {
	b.push(errorMsg{err: err})
}

// Next waits for the next bridged update.
func (b *Bridge) Next() tea.Cmd {
	return func() tea.Msg {
		return <-b.msgs
	}
}
