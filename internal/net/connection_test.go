package net

import (
	"errors"
	"testing"

	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

func TestLoopbackForwardsCommands(t *testing.T) {
	var received []sim.Command
	conn := NewLoopback(func(cmd sim.Command) {
		received = append(received, cmd)
	})

	err := conn.SendCommand(sim.Command{Type: sim.CommandMove, Move: &sim.MoveCommand{TargetX: 50}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(received) != 1 || received[0].Move.TargetX != 50 {
		t.Fatalf("expected forwarded command, got %+v", received)
	}
}

func TestLoopbackDeliversSnapshotsAndGameOver(t *testing.T) {
	conn := NewLoopback(nil)

	var snapshots []*proto.StateMessage
	var results []proto.GameOverWire
	conn.OnSnapshot(func(msg *proto.StateMessage) { snapshots = append(snapshots, msg) })
	conn.OnGameOver(func(over proto.GameOverWire) { results = append(results, over) })

	conn.Deliver(&proto.StateMessage{Type: proto.TypeState, Tick: 1})
	if len(snapshots) != 1 || len(results) != 0 {
		t.Fatalf("expected 1 snapshot and no result, got %d and %d", len(snapshots), len(results))
	}

	conn.Deliver(&proto.StateMessage{
		Type: proto.TypeState, Tick: 2,
		GameOver: &proto.GameOverWire{WinnerID: "player-1", Reason: "commander_destroyed"},
	})
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if len(results) != 1 || results[0].WinnerID != "player-1" {
		t.Fatalf("expected game over delivered, got %+v", results)
	}
}

func TestLoopbackDisconnectIsIdempotentAndReleasesCallbacks(t *testing.T) {
	delivered := 0
	conn := NewLoopback(func(sim.Command) {})
	conn.OnSnapshot(func(*proto.StateMessage) { delivered++ })

	conn.Disconnect()
	conn.Disconnect()

	conn.Deliver(&proto.StateMessage{Type: proto.TypeState})
	if delivered != 0 {
		t.Fatalf("expected no delivery after disconnect, got %d", delivered)
	}

	if err := conn.SendCommand(sim.Command{Type: sim.CommandMove}); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}

	// Callbacks registered after disconnect must not resurrect the channel.
	conn.OnSnapshot(func(*proto.StateMessage) { delivered++ })
	conn.Deliver(&proto.StateMessage{Type: proto.TypeState})
	if delivered != 0 {
		t.Fatalf("expected closed connection to stay closed, got %d deliveries", delivered)
	}
}
