package sim

import (
	"math"
	"testing"
)

func stepWorld(w *World, physics PhysicsEngine, dt float64) {
	updateMovement(w, physics, dt)
	physics.Step(dt)
	physics.Positions(func(id EntityID, x, y float64) {
		if ent := w.Get(id); ent != nil {
			ent.X, ent.Y = x, y
		}
	})
}

func TestUnitWalksToWaypointAndStops(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()
	physics := NewKinematicPhysics(w.Bounds())

	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	physics.TrackUnit(unit.ID, unit.X, unit.Y, unit.Unit.Radius, unit.Unit.Mass)
	pushAction(unit.Unit, UnitAction{Type: WaypointMove, TargetX: 200, TargetY: 100}, false)

	for i := 0; i < 200; i++ {
		stepWorld(w, physics, 1.0/30)
		if len(unit.Unit.Actions) == 0 {
			break
		}
	}

	if len(unit.Unit.Actions) != 0 {
		t.Fatalf("expected waypoint consumed, %d actions remain", len(unit.Unit.Actions))
	}
	if math.Abs(unit.X-200) > waypointArriveEpsilon+1 {
		t.Fatalf("expected unit near x=200, got %v", unit.X)
	}

	stepWorld(w, physics, 1.0/30)
	if unit.Unit.VelX != 0 || unit.Unit.VelY != 0 {
		t.Fatalf("expected idle unit to hold still, vel (%v,%v)", unit.Unit.VelX, unit.Unit.VelY)
	}
}

func TestPushActionReplaceAndQueue(t *testing.T) {
	uc := &UnitComponent{PatrolStart: -1}

	pushAction(uc, UnitAction{Type: WaypointMove, TargetX: 10}, false)
	pushAction(uc, UnitAction{Type: WaypointMove, TargetX: 20}, true)
	if len(uc.Actions) != 2 {
		t.Fatalf("expected queued second waypoint, got %d actions", len(uc.Actions))
	}

	pushAction(uc, UnitAction{Type: WaypointMove, TargetX: 30}, false)
	if len(uc.Actions) != 1 || uc.Actions[0].TargetX != 30 {
		t.Fatalf("expected replace to clear the queue, got %+v", uc.Actions)
	}
}

func TestPatrolLoopRequeuesCompletedWaypoints(t *testing.T) {
	uc := &UnitComponent{PatrolStart: -1}
	pushAction(uc, UnitAction{Type: WaypointPatrol, TargetX: 10}, false)
	pushAction(uc, UnitAction{Type: WaypointPatrol, TargetX: 20}, true)

	if uc.PatrolStart != 0 {
		t.Fatalf("expected patrol start at 0, got %d", uc.PatrolStart)
	}

	completeAction(uc)
	if len(uc.Actions) != 2 {
		t.Fatalf("expected completed patrol point re-queued, got %d actions", len(uc.Actions))
	}
	if uc.Actions[0].TargetX != 20 || uc.Actions[1].TargetX != 10 {
		t.Fatalf("expected loop order [20 10], got %+v", uc.Actions)
	}
}

func TestMoveWaypointClearsPatrol(t *testing.T) {
	uc := &UnitComponent{PatrolStart: -1}
	pushAction(uc, UnitAction{Type: WaypointPatrol, TargetX: 10}, false)
	pushAction(uc, UnitAction{Type: WaypointMove, TargetX: 50}, false)

	if uc.PatrolStart != -1 {
		t.Fatalf("expected patrol cleared by replacing move, got start %d", uc.PatrolStart)
	}
}

func TestFightWaypointHoldsInsideFightstopRange(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	// snapgun fightstop tier is 100; the drone's radius is 10.
	gunner := w.SpawnUnit(reg, "p1", "gunner", 100, 100)
	enemy := w.SpawnUnit(reg, "p2", "drone", 100+90, 100)
	gunner.Weapons[0].TargetID = enemy.ID

	if !shouldHoldForCombat(w, gunner, UnitAction{Type: WaypointFight}) {
		t.Fatalf("expected fight waypoint to hold with the target inside fightstop range")
	}
	if !shouldHoldForCombat(w, gunner, UnitAction{Type: WaypointPatrol}) {
		t.Fatalf("expected patrol waypoint to hold with the target inside fightstop range")
	}
	if shouldHoldForCombat(w, gunner, UnitAction{Type: WaypointMove}) {
		t.Fatalf("expected plain move to ignore combat")
	}

	// A lock beyond the fightstop tier keeps the unit closing distance.
	enemy.X = 100 + 200
	if shouldHoldForCombat(w, gunner, UnitAction{Type: WaypointFight}) {
		t.Fatalf("expected fight waypoint to keep closing on a distant target")
	}

	gunner.Weapons[0].TargetID = 0
	enemy.X = 100 + 90
	if shouldHoldForCombat(w, gunner, UnitAction{Type: WaypointFight}) {
		t.Fatalf("expected fight waypoint to resume once targets clear")
	}
}

func TestFormationOffsetsAreDistinct(t *testing.T) {
	offsets := formationOffsets(5)
	if len(offsets) != 5 {
		t.Fatalf("expected 5 offsets, got %d", len(offsets))
	}
	seen := make(map[[2]float64]struct{}, len(offsets))
	for _, off := range offsets {
		if _, dup := seen[off]; dup {
			t.Fatalf("duplicate formation offset %v", off)
		}
		seen[off] = struct{}{}
	}
}

func TestAssignMoveTargetsIndividual(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()
	a := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	b := w.SpawnUnit(reg, "p1", "jackal", 120, 100)

	assignMoveTargets([]*Entity{a, b}, &MoveCommand{
		WaypointType: WaypointMove,
		IndividualTargets: []IndividualTarget{
			{EntityID: a.ID, X: 300, Y: 300},
			{EntityID: b.ID, X: 340, Y: 300},
		},
	})

	if got := a.Unit.Actions[0].TargetX; got != 300 {
		t.Fatalf("expected unit a routed to 300, got %v", got)
	}
	if got := b.Unit.Actions[0].TargetX; got != 340 {
		t.Fatalf("expected unit b routed to 340, got %v", got)
	}
}
