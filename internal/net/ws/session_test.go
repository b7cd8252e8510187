package ws

import (
	"errors"
	"testing"

	"golang.org/x/time/rate"

	servernet "github.com/niembro64/rts-prototype-sub002/internal/net"
)

func TestSendFrameReportsBacklogAsTimeout(t *testing.T) {
	// No write loop draining the channel, so the backlog fills immediately.
	s := &session{
		writeCh: make(chan []byte, 2),
		done:    make(chan struct{}),
	}

	if err := s.SendFrame([]byte("a")); err != nil {
		t.Fatalf("send 1: %v", err)
	}
	if err := s.SendFrame([]byte("b")); err != nil {
		t.Fatalf("send 2: %v", err)
	}
	if err := s.SendFrame([]byte("c")); !errors.Is(err, servernet.ErrSendTimeout) {
		t.Fatalf("expected ErrSendTimeout on a full backlog, got %v", err)
	}
}

func TestSendFrameAfterCloseReportsDisconnect(t *testing.T) {
	s := &session{
		writeCh: make(chan []byte, 2),
		done:    make(chan struct{}),
	}
	close(s.done)

	if err := s.SendFrame([]byte("a")); !errors.Is(err, servernet.ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestAllowCommandEnforcesTheBurstBudget(t *testing.T) {
	s := &session{limiter: rate.NewLimiter(rate.Limit(1), 2)}

	if !s.allowCommand() || !s.allowCommand() {
		t.Fatalf("expected the burst budget to admit two commands")
	}
	if s.allowCommand() {
		t.Fatalf("expected the third immediate command rejected")
	}
}
