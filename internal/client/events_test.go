package client

import "testing"

func TestEventBufferSurfacesEachAppendOnce(t *testing.T) {
	var buf EventBuffer[int]

	buf.Append(1, 2)
	buf.Append(3)

	got := buf.Drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i] != want {
			t.Fatalf("event %d: expected %d, got %d", i, want, got[i])
		}
	}

	if again := buf.Drain(); again != nil {
		t.Fatalf("expected empty second drain, got %v", again)
	}
}

func TestEventBufferAccumulatesAcrossBursts(t *testing.T) {
	var buf EventBuffer[string]

	// Several snapshots may land between two consuming passes; none of
	// their events may be lost.
	buf.Append("a")
	buf.Append("b", "c")
	buf.Append("d")

	if buf.Len() != 4 {
		t.Fatalf("expected 4 staged events, got %d", buf.Len())
	}
	got := buf.Drain()
	if len(got) != 4 {
		t.Fatalf("expected 4 drained events, got %d", len(got))
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer after drain, got %d", buf.Len())
	}
}

func TestEventBufferReusesBuffersAcrossCycles(t *testing.T) {
	var buf EventBuffer[int]

	for cycle := 0; cycle < 5; cycle++ {
		buf.Append(cycle)
		got := buf.Drain()
		if len(got) != 1 || got[0] != cycle {
			t.Fatalf("cycle %d: expected [%d], got %v", cycle, cycle, got)
		}
	}
}
