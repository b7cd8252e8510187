package proto

import (
	"encoding/json"
	"testing"

	"github.com/niembro64/rts-prototype-sub002/internal/sim"
)

func snapshotWorld(t *testing.T) (*sim.World, *sim.Registry) {
	t.Helper()
	w := sim.NewWorld(sim.WorldConfig{
		Bounds:       sim.Rect{MinX: 0, MinY: 0, MaxX: 2000, MaxY: 2000},
		TotalUnitCap: 20,
		Seed:         7,
	})
	return w, sim.DefaultRegistry()
}

func TestEncodeFullCapturesUnitsAndBuildings(t *testing.T) {
	w, reg := snapshotWorld(t)
	w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	w.SpawnUnit(reg, "p2", "hound", 300, 300)
	w.SpawnBuilding(reg, "p1", "factory", 500, 500, true)

	s := NewSerializer(DefaultSerializerConfig())
	msg := s.EncodeFull(w, 9, nil, sim.TickEffects{})

	if !msg.Full {
		t.Fatalf("expected full flag set")
	}
	if msg.Tick != 9 {
		t.Fatalf("expected tick 9, got %d", msg.Tick)
	}
	if len(msg.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(msg.Entities))
	}
	if len(msg.ChangedEntities) != 0 || len(msg.RemovedIDs) != 0 {
		t.Fatalf("full snapshots must not carry delta fields")
	}

	units, buildings := 0, 0
	for _, e := range msg.Entities {
		switch {
		case e.Unit != nil:
			units++
		case e.Building != nil:
			buildings++
		default:
			t.Fatalf("entity snapshot with no variant: %+v", e)
		}
	}
	if units != 2 || buildings != 1 {
		t.Fatalf("expected 2 units and 1 building, got %d and %d", units, buildings)
	}
}

func TestEncodeDeltaContainsOnlyChanges(t *testing.T) {
	w, reg := snapshotWorld(t)
	mover := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	idle := w.SpawnUnit(reg, "p1", "jackal", 300, 300)
	doomed := w.SpawnUnit(reg, "p2", "hound", 500, 500)

	s := NewSerializer(DefaultSerializerConfig())
	s.EncodeFull(w, 0, nil, sim.TickEffects{})

	delta := s.EncodeDelta(w, 1, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 0 || len(delta.RemovedIDs) != 0 {
		t.Fatalf("expected empty delta for an unchanged world, got %d changed %d removed",
			len(delta.ChangedEntities), len(delta.RemovedIDs))
	}

	mover.X = 150
	w.Remove(doomed.ID)

	delta = s.EncodeDelta(w, 2, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected 1 changed entity, got %d", len(delta.ChangedEntities))
	}
	if delta.ChangedEntities[0].EntityID() != mover.ID {
		t.Fatalf("expected changed entity %d, got %d", mover.ID, delta.ChangedEntities[0].EntityID())
	}
	if len(delta.RemovedIDs) != 1 || delta.RemovedIDs[0] != doomed.ID {
		t.Fatalf("expected removal of %d, got %+v", doomed.ID, delta.RemovedIDs)
	}
	_ = idle
}

func TestSubVisibleMotionDoesNotForceDeltas(t *testing.T) {
	w, reg := snapshotWorld(t)
	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)

	s := NewSerializer(DefaultSerializerConfig())
	s.EncodeFull(w, 0, nil, sim.TickEffects{})

	unit.X += 0.001
	delta := s.EncodeDelta(w, 1, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 0 {
		t.Fatalf("expected sub-visible motion suppressed, got %d changed", len(delta.ChangedEntities))
	}

	unit.X += 1
	delta = s.EncodeDelta(w, 2, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected visible motion replicated, got %d changed", len(delta.ChangedEntities))
	}
}

func TestHairlineDamageForcesDelta(t *testing.T) {
	w, reg := snapshotWorld(t)
	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)

	s := NewSerializer(DefaultSerializerConfig())
	s.EncodeFull(w, 0, nil, sim.TickEffects{})

	// HP is not quantized: any damage must replicate.
	unit.Unit.HP -= 0.001
	delta := s.EncodeDelta(w, 1, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected hp change replicated, got %d changed", len(delta.ChangedEntities))
	}
}

func TestWaypointReplacementForcesDelta(t *testing.T) {
	w, reg := snapshotWorld(t)
	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	unit.Unit.Actions = []sim.UnitAction{{Type: sim.WaypointMove, TargetX: 500, TargetY: 500}}

	s := NewSerializer(DefaultSerializerConfig())
	s.EncodeFull(w, 0, nil, sim.TickEffects{})

	// Same queue length, different destination.
	unit.Unit.Actions = []sim.UnitAction{{Type: sim.WaypointMove, TargetX: 800, TargetY: 200}}
	delta := s.EncodeDelta(w, 1, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected waypoint replacement replicated, got %d changed", len(delta.ChangedEntities))
	}

	// Same destination, different waypoint kind.
	unit.Unit.Actions[0].Type = sim.WaypointFight
	delta = s.EncodeDelta(w, 2, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected waypoint kind change replicated, got %d changed", len(delta.ChangedEntities))
	}
}

func TestRetargetAtSameTurretAngleForcesDelta(t *testing.T) {
	w, reg := snapshotWorld(t)
	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	unit.Weapons[0].TargetID = 41

	s := NewSerializer(DefaultSerializerConfig())
	s.EncodeFull(w, 0, nil, sim.TickEffects{})

	// The turret has not swung yet, only the lock changed hands.
	unit.Weapons[0].TargetID = 42
	delta := s.EncodeDelta(w, 1, nil, sim.TickEffects{})
	if len(delta.ChangedEntities) != 1 {
		t.Fatalf("expected retarget replicated, got %d changed", len(delta.ChangedEntities))
	}
}

// applyTo folds a state message into a client-style id map. Snapshots are
// marshaled immediately because the serializer recycles their backing records
// on the next encode.
func applyTo(t *testing.T, state map[sim.EntityID]string, msg *StateMessage) {
	t.Helper()
	entities := msg.Entities
	if !msg.Full {
		entities = msg.ChangedEntities
	} else {
		for id := range state {
			delete(state, id)
		}
	}
	for _, e := range entities {
		raw, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal entity: %v", err)
		}
		state[e.EntityID()] = string(raw)
	}
	for _, id := range msg.RemovedIDs {
		delete(state, id)
	}
}

func TestDeltaReconstructionMatchesDirectFull(t *testing.T) {
	w, reg := snapshotWorld(t)
	mover := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	victim := w.SpawnUnit(reg, "p2", "hound", 300, 300)
	w.SpawnBuilding(reg, "p1", "factory", 500, 500, true)

	s := NewSerializer(DefaultSerializerConfig())
	mirrored := make(map[sim.EntityID]string)
	applyTo(t, mirrored, s.EncodeFull(w, 0, nil, sim.TickEffects{}))

	// Mutate across several deltas: movement, damage, removal, and a late
	// spawn.
	mover.X, mover.Y = 180, 140
	applyTo(t, mirrored, s.EncodeDelta(w, 1, nil, sim.TickEffects{}))

	victim.Unit.HP -= 40
	w.SpawnUnit(reg, "p2", "wasp", 700, 700)
	applyTo(t, mirrored, s.EncodeDelta(w, 2, nil, sim.TickEffects{}))

	w.Remove(victim.ID)
	mover.Rotation = 1.25
	applyTo(t, mirrored, s.EncodeDelta(w, 3, nil, sim.TickEffects{}))

	// A second serializer with no history encodes the same world directly.
	reference := make(map[sim.EntityID]string)
	applyTo(t, reference, NewSerializer(DefaultSerializerConfig()).EncodeFull(w, 3, nil, sim.TickEffects{}))

	if len(mirrored) != len(reference) {
		t.Fatalf("expected %d entities after reconstruction, got %d", len(reference), len(mirrored))
	}
	for id, want := range reference {
		got, ok := mirrored[id]
		if !ok {
			t.Fatalf("reconstruction missing entity %d", id)
		}
		if got != want {
			t.Fatalf("entity %d diverged:\nreconstructed: %s\ndirect full:   %s", id, got, want)
		}
	}
}

func TestProjectilesTravelAsEventsNotSnapshots(t *testing.T) {
	w, reg := snapshotWorld(t)
	w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	w.Add(&sim.Entity{
		Kind:      sim.KindProjectile,
		Transform: sim.Transform{X: 200, Y: 200},
		Owner:     "p1",
		Projectile: &sim.ProjectileComponent{
			Owner:       "p1",
			Kind:        sim.ProjectileTraveling,
			VelX:        100,
			MaxLifespan: 2,
			HitEntities: map[sim.EntityID]struct{}{},
			MaxHits:     1,
		},
	})

	s := NewSerializer(DefaultSerializerConfig())
	msg := s.EncodeFull(w, 0, nil, sim.TickEffects{})
	if len(msg.Entities) != 1 {
		t.Fatalf("expected only the unit in entity snapshots, got %d", len(msg.Entities))
	}
}

func TestPeriodicVelocityCorrectionsForTravelingProjectiles(t *testing.T) {
	w, reg := snapshotWorld(t)
	w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	proj := w.Add(&sim.Entity{
		Kind:      sim.KindProjectile,
		Transform: sim.Transform{X: 200, Y: 200},
		Owner:     "p1",
		Projectile: &sim.ProjectileComponent{
			Owner:       "p1",
			Kind:        sim.ProjectileTraveling,
			VelX:        120,
			MaxLifespan: 5,
			HitEntities: map[sim.EntityID]struct{}{},
			MaxHits:     1,
		},
	})
	beam := w.Add(&sim.Entity{
		Kind:  sim.KindProjectile,
		Owner: "p1",
		Projectile: &sim.ProjectileComponent{
			Owner:       "p1",
			Kind:        sim.ProjectileBeam,
			HitEntities: map[sim.EntityID]struct{}{},
			MaxHits:     sim.InfiniteHits,
		},
	})

	cfg := DefaultSerializerConfig()
	cfg.CorrectionInterval = 2
	s := NewSerializer(cfg)

	msg := s.EncodeFull(w, 0, nil, sim.TickEffects{}) // sequence 1
	if len(msg.ProjectileVelocityUpdates) != 0 {
		t.Fatalf("expected no correction off the interval, got %d", len(msg.ProjectileVelocityUpdates))
	}

	msg = s.EncodeDelta(w, 1, nil, sim.TickEffects{}) // sequence 2
	if len(msg.ProjectileVelocityUpdates) != 1 {
		t.Fatalf("expected 1 correction on the interval, got %d", len(msg.ProjectileVelocityUpdates))
	}
	if msg.ProjectileVelocityUpdates[0].ID != proj.ID {
		t.Fatalf("expected correction for %d, got %d (beam=%d)", proj.ID, msg.ProjectileVelocityUpdates[0].ID, beam.ID)
	}
}

func TestEffectsAndEconomyRideTheSnapshot(t *testing.T) {
	w, reg := snapshotWorld(t)
	w.SpawnUnit(reg, "p1", "jackal", 100, 100)

	effects := sim.TickEffects{
		AudioEvents:  []sim.AudioEvent{{Cue: sim.AudioShot, X: 1, Y: 2}},
		SprayTargets: []sim.SprayTarget{{X: 3, Y: 4}},
		GameOver:     &sim.GameOver{WinnerID: "p1", Reason: "commander_destroyed"},
	}
	economy := map[sim.PlayerID]sim.PlayerEconomy{
		"p1": {Stockpile: 250, MaxStockpile: 1000, BaseIncome: 10},
	}

	s := NewSerializer(DefaultSerializerConfig())
	msg := s.EncodeFull(w, 5, economy, effects)

	if len(msg.AudioEvents) != 1 || msg.AudioEvents[0].Cue != string(sim.AudioShot) {
		t.Fatalf("expected audio event on the wire, got %+v", msg.AudioEvents)
	}
	if len(msg.SprayTargets) != 1 {
		t.Fatalf("expected spray target on the wire, got %+v", msg.SprayTargets)
	}
	if msg.GameOver == nil || msg.GameOver.WinnerID != "p1" {
		t.Fatalf("expected game over on the wire, got %+v", msg.GameOver)
	}
	if got := msg.Economy["p1"].Stockpile; got != 250 {
		t.Fatalf("expected economy stockpile 250, got %v", got)
	}
}

func TestSequenceIncrementsPerEncode(t *testing.T) {
	w, _ := snapshotWorld(t)
	s := NewSerializer(DefaultSerializerConfig())

	first := s.EncodeFull(w, 0, nil, sim.TickEffects{}).Sequence
	second := s.EncodeDelta(w, 1, nil, sim.TickEffects{}).Sequence
	if second != first+1 {
		t.Fatalf("expected sequence %d after %d, got %d", first+1, first, second)
	}
}
