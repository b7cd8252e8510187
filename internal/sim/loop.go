package sim

import (
	"time"

	"github.com/niembro64/rts-prototype-sub002/internal/telemetry"
)

const (
	tickDurationMetricKey = "sim_tick_duration_micros"
	tickClampedMetricKey  = "sim_tick_clamped_total"
)

// LoopConfig tunes the fixed-timestep runner.
type LoopConfig struct {
	// TickRate is fixed steps per second.
	TickRate int
	// CatchupMaxSteps caps how many fixed steps one wall-clock frame may
	// run after a stall, bounding worst-case catch-up work.
	CatchupMaxSteps int
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{TickRate: 30, CatchupMaxSteps: 5}
}

// StepResult is handed to the AfterStep hook once per executed fixed step.
type StepResult struct {
	Tick     uint64
	Effects  TickEffects
	Duration time.Duration
}

// LoopHooks let the host observe the loop without the engine knowing about
// transports.
type LoopHooks struct {
	AfterStep func(StepResult)
}

// Loop drives an engine with a fixed-timestep accumulator: wall-clock delta
// feeds the accumulator and whole steps drain from it, so simulation fidelity
// is independent of frame cadence.
type Loop struct {
	engine  *Engine
	config  LoopConfig
	hooks   LoopHooks
	logger  telemetry.Logger
	metrics telemetry.Metrics

	accumulator float64
	last        time.Time
	now         func() time.Time
}

func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 30
	}
	if cfg.CatchupMaxSteps <= 0 {
		cfg.CatchupMaxSteps = 5
	}
	return &Loop{
		engine:  engine,
		config:  cfg,
		hooks:   hooks,
		logger:  engine.logger,
		metrics: engine.metrics,
		now:     time.Now,
	}
}

// Advance feeds elapsed wall-clock seconds into the accumulator and executes
// every whole fixed step it holds, up to the catch-up cap. Excess backlog
// beyond the cap is discarded so a stalled host does not spiral.
func (l *Loop) Advance(elapsed float64) int {
	if l == nil || l.engine == nil {
		return 0
	}
	step := 1.0 / float64(l.config.TickRate)
	l.accumulator += elapsed

	maxBacklog := step * float64(l.config.CatchupMaxSteps)
	if l.accumulator > maxBacklog {
		l.accumulator = maxBacklog
		if l.metrics != nil {
			l.metrics.Add(tickClampedMetricKey, 1)
		}
	}

	steps := 0
	for l.accumulator >= step {
		l.accumulator -= step
		start := l.now()
		tick := l.engine.Tick()
		effects := l.engine.Step(step)
		duration := l.now().Sub(start)
		if l.metrics != nil {
			l.metrics.Store(tickDurationMetricKey, uint64(duration.Microseconds()))
		}
		if l.hooks.AfterStep != nil {
			l.hooks.AfterStep(StepResult{Tick: tick, Effects: effects, Duration: duration})
		}
		steps++
	}
	return steps
}

// Run drives Advance from a ticker until stop closes.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	interval := time.Second / time.Duration(l.config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.last = l.now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := l.now()
			elapsed := now.Sub(l.last).Seconds()
			l.last = now
			if elapsed <= 0 {
				elapsed = interval.Seconds()
			}
			l.Advance(elapsed)
		}
	}
}
