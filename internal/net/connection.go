// Package net carries commands and snapshots between the simulation and its
// observers. The Connection interface is the only surface the simulation and
// the client mirror ever see; whether the peer is in-process or remote is an
// implementation detail.
package net

import (
	"sync"

	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

// Connection is the transport-agnostic channel between a client and the
// authoritative simulation. Disconnect is idempotent and releases every
// registered callback so repeated connect/disconnect cycles cannot leak
// closures.
type Connection interface {
	SendCommand(cmd sim.Command) error
	OnSnapshot(fn func(*proto.StateMessage))
	OnGameOver(fn func(proto.GameOverWire))
	Disconnect()
}

// Loopback is the in-process Connection for the host's own view. Commands
// pass straight into the enqueue func; snapshots are delivered by the hub
// through Deliver.
type Loopback struct {
	mu         sync.Mutex
	enqueue    func(sim.Command)
	onSnapshot func(*proto.StateMessage)
	onGameOver func(proto.GameOverWire)
	closed     bool
}

func NewLoopback(enqueue func(sim.Command)) *Loopback {
	return &Loopback{enqueue: enqueue}
}

func (l *Loopback) SendCommand(cmd sim.Command) error {
	l.mu.Lock()
	enqueue := l.enqueue
	closed := l.closed
	l.mu.Unlock()
	if closed || enqueue == nil {
		return ErrDisconnected
	}
	enqueue(cmd)
	return nil
}

func (l *Loopback) OnSnapshot(fn func(*proto.StateMessage)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.onSnapshot = fn
}

func (l *Loopback) OnGameOver(fn func(proto.GameOverWire)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.onGameOver = fn
}

// Deliver hands a snapshot to the registered callback. Called by the hub on
// its broadcast schedule.
func (l *Loopback) Deliver(msg *proto.StateMessage) {
	l.mu.Lock()
	onSnapshot := l.onSnapshot
	onGameOver := l.onGameOver
	l.mu.Unlock()
	if onSnapshot != nil {
		onSnapshot(msg)
	}
	if msg.GameOver != nil && onGameOver != nil {
		onGameOver(*msg.GameOver)
	}
}

// Disconnect releases callbacks. Safe to call more than once.
func (l *Loopback) Disconnect() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.enqueue = nil
	l.onSnapshot = nil
	l.onGameOver = nil
}

var _ Connection = (*Loopback)(nil)
