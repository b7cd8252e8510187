package client

import (
	"math/rand"
	"sync"
	"time"

	"github.com/niembro64/rts-prototype-sub002/internal/proto"
)

// intervalEMAAlpha weights the exponential moving average of the observed
// snapshot interval.
const intervalEMAAlpha = 0.2

// AudioSmoother spreads discrete audio cues across the measured snapshot
// interval so a burst of identical sounds arriving in one snapshot does not
// play as a single synchronized blast. Continuous cues (beam on/off) always
// bypass smoothing.
type AudioSmoother struct {
	mu sync.Mutex

	now func() time.Time
	rng *rand.Rand

	lastSnapshot time.Time
	intervalEMA  time.Duration

	scheduled []scheduledCue
	ready     []proto.AudioEventWire
}

type scheduledCue struct {
	event proto.AudioEventWire
	due   time.Time
}

func NewAudioSmoother(seed int64) *AudioSmoother {
	return &AudioSmoother{
		now: time.Now,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Ingest stages a snapshot's audio events. Continuous cues become ready
// immediately; discrete cues are jittered within the EMA interval.
func (s *AudioSmoother) Ingest(events []proto.AudioEventWire) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.lastSnapshot.IsZero() {
		observed := now.Sub(s.lastSnapshot)
		if s.intervalEMA == 0 {
			s.intervalEMA = observed
		} else {
			s.intervalEMA = time.Duration(
				(1-intervalEMAAlpha)*float64(s.intervalEMA) + intervalEMAAlpha*float64(observed))
		}
	}
	s.lastSnapshot = now

	for _, event := range events {
		if event.Continuous || s.intervalEMA <= 0 {
			s.ready = append(s.ready, event)
			continue
		}
		delay := time.Duration(s.rng.Float64() * float64(s.intervalEMA))
		s.scheduled = append(s.scheduled, scheduledCue{event: event, due: now.Add(delay)})
	}
}

// Due returns every cue whose play time has arrived. Each cue is returned
// exactly once.
func (s *AudioSmoother) Due() []proto.AudioEventWire {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := s.ready
	s.ready = nil

	kept := s.scheduled[:0]
	for _, cue := range s.scheduled {
		if cue.due.After(now) {
			kept = append(kept, cue)
		} else {
			out = append(out, cue.event)
		}
	}
	s.scheduled = kept
	return out
}
