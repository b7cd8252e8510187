package sim

import (
	"context"
	"sync/atomic"

	"github.com/niembro64/rts-prototype-sub002/internal/telemetry"
	"github.com/niembro64/rts-prototype-sub002/logging"
	loggingcombat "github.com/niembro64/rts-prototype-sub002/logging/combat"
	logginglifecycle "github.com/niembro64/rts-prototype-sub002/logging/lifecycle"
)

// Engine owns one match's authoritative state: the world, economy, command
// queue, and the external physics collaborator. All services are explicit
// constructor dependencies so matches and tests are isolated instances.
type Engine struct {
	world    *World
	economy  *Economy
	registry *Registry
	physics  PhysicsEngine
	queue    *CommandQueue

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics

	currentTick atomic.Uint64
	gameOver    *GameOver
}

// EngineDeps carries optional observability collaborators.
type EngineDeps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

// NewEngine wires an engine from explicit parts. Nil physics falls back to
// the built-in kinematic integrator; nil observability becomes no-ops.
func NewEngine(world *World, economy *Economy, registry *Registry, physics PhysicsEngine, deps EngineDeps) *Engine {
	if physics == nil {
		physics = NewKinematicPhysics(world.Bounds())
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	var metrics telemetry.Metrics = deps.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	return &Engine{
		world:     world,
		economy:   economy,
		registry:  registry,
		physics:   physics,
		queue:     NewCommandQueue(metrics),
		publisher: publisher,
		logger:    deps.Logger,
		metrics:   metrics,
	}
}

// World exposes the authoritative store for snapshot serialization.
func (e *Engine) World() *World { return e.world }

// Economy exposes the per-player resource service.
func (e *Engine) Economy() *Economy { return e.economy }

// Registry exposes the build-time catalogs.
func (e *Engine) Registry() *Registry { return e.registry }

// Physics exposes the body-stepping collaborator.
func (e *Engine) Physics() PhysicsEngine { return e.physics }

// Tick reports the current simulation tick. Safe to call from transport
// goroutines while the loop is stepping.
func (e *Engine) Tick() uint64 { return e.currentTick.Load() }

// Finished reports the game-over payload once the match has ended.
func (e *Engine) Finished() *GameOver { return e.gameOver }

// Enqueue stages a command for its scheduled tick. Safe to call from
// transport callback goroutines.
func (e *Engine) Enqueue(cmd Command) {
	if e == nil {
		return
	}
	e.queue.Push(cmd)
}

// AddPlayer registers a participant in the world and economy and spawns
// their commander at the given position.
func (e *Engine) AddPlayer(id PlayerID, startX, startY float64, startingEnergy float64) *Entity {
	e.world.AddPlayer(id)
	e.economy.AddPlayer(id, startingEnergy)
	commander := e.world.SpawnUnit(e.registry, id, "commander", startX, startY)
	e.physics.TrackUnit(commander.ID, startX, startY, commander.Unit.Radius, commander.Unit.Mass)
	return commander
}

// RemovePlayer drops a departed participant and everything they own.
func (e *Engine) RemovePlayer(id PlayerID) []EntityID {
	removed := e.world.RemovePlayer(id)
	for _, eid := range removed {
		e.physics.Untrack(eid)
	}
	e.economy.RemovePlayer(id)
	return removed
}

// Step advances the simulation one fixed timestep: drain due commands, then
// economy, construction, production, movement, physics sync, combat, and the
// game-over check, in that order.
func (e *Engine) Step(dt float64) TickEffects {
	var effects TickEffects
	tick := e.currentTick.Load()

	for _, cmd := range e.queue.DrainDue(tick) {
		effects.Merge(e.applyCommand(cmd))
	}

	e.economy.Accrue(dt)
	effects.Merge(updateConstruction(e.world, e.economy, dt))
	effects.Merge(updateProduction(e.world, e.economy, e.registry, e.physics, e.publisher, tick, dt))
	updateMovement(e.world, e.physics, dt)

	e.physics.Step(dt)
	e.physics.Positions(func(id EntityID, x, y float64) {
		if ent := e.world.Get(id); ent != nil {
			ent.X, ent.Y = x, y
		}
	})

	effects.Merge(updateCombat(e.world, dt))

	for _, id := range effects.Deaths {
		e.physics.Untrack(id)
		loggingcombat.UnitDied(context.Background(), e.publisher, tick,
			logging.EntityRef{ID: id.String(), Kind: logging.EntityKindUnit},
			loggingcombat.UnitDiedPayload{})
	}

	if over := e.checkGameOver(); over != nil {
		effects.GameOver = over
	}

	e.currentTick.Add(1)
	return effects
}

// checkGameOver tests commander survival per player. Fires once; later steps
// keep returning nil so the loop does not re-broadcast the result.
func (e *Engine) checkGameOver() *GameOver {
	if e.gameOver != nil {
		return nil
	}
	players := e.world.Players()
	if len(players) < 2 {
		return nil
	}
	var alive []PlayerID
	for _, id := range players {
		if e.world.Commander(id) != nil {
			alive = append(alive, id)
		}
	}
	if len(alive) > 1 {
		return nil
	}
	over := &GameOver{Reason: "commander_destroyed"}
	if len(alive) == 1 {
		over.WinnerID = alive[0]
	}
	e.gameOver = over
	logginglifecycle.MatchEnded(context.Background(), e.publisher, e.currentTick.Load(),
		logginglifecycle.MatchEndedPayload{WinnerID: string(over.WinnerID), Reason: over.Reason})
	return over
}
