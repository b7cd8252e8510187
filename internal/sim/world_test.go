package sim

import "testing"

func newTestWorld(totalCap int) *World {
	return NewWorld(WorldConfig{
		Bounds:       Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000},
		TotalUnitCap: totalCap,
		Seed:         7,
	})
}

func TestIssueIDNeverReused(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	first := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	w.Remove(first.ID)
	second := w.SpawnUnit(reg, "p1", "jackal", 100, 100)

	if second.ID <= first.ID {
		t.Fatalf("expected fresh id after removal, got %d then %d", first.ID, second.ID)
	}
}

func TestQueriesRebuildAfterMutation(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	unit := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	if len(w.Units()) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(w.Units()))
	}

	w.SpawnBuilding(reg, "p1", "factory", 300, 300, true)
	if len(w.Buildings()) != 1 {
		t.Fatalf("expected 1 building, got %d", len(w.Buildings()))
	}
	if len(w.ByPlayer("p1")) != 2 {
		t.Fatalf("expected 2 owned entities, got %d", len(w.ByPlayer("p1")))
	}

	w.Remove(unit.ID)
	if len(w.Units()) != 0 {
		t.Fatalf("expected unit cache invalidated, still have %d", len(w.Units()))
	}
	if len(w.UnitsByPlayer("p1")) != 0 {
		t.Fatalf("expected no units for p1, got %d", len(w.UnitsByPlayer("p1")))
	}
}

func TestUnitCapDividesAcrossPlayers(t *testing.T) {
	w := newTestWorld(10)
	w.AddPlayer("p1")
	if got := w.UnitCap(); got != 10 {
		t.Fatalf("expected cap 10 with one player, got %d", got)
	}

	w.AddPlayer("p2")
	if got := w.UnitCap(); got != 5 {
		t.Fatalf("expected cap 5 with two players, got %d", got)
	}

	reg := DefaultRegistry()
	for i := 0; i < 5; i++ {
		w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	}
	if w.HasCapacity("p1") {
		t.Fatalf("expected p1 at capacity")
	}
	if !w.HasCapacity("p2") {
		t.Fatalf("expected p2 to retain capacity")
	}
}

func TestRemovePlayerRemovesOwnedEntities(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()
	w.AddPlayer("p1")
	w.AddPlayer("p2")

	w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	w.SpawnBuilding(reg, "p1", "generator", 200, 200, true)
	keeper := w.SpawnUnit(reg, "p2", "hound", 300, 300)

	removed := w.RemovePlayer("p1")
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed entities, got %d", len(removed))
	}
	if w.Len() != 1 {
		t.Fatalf("expected only p2's unit to remain, got %d entities", w.Len())
	}
	if w.Get(keeper.ID) == nil {
		t.Fatalf("expected p2's unit to survive")
	}
	if got := len(w.Players()); got != 1 {
		t.Fatalf("expected 1 remaining player, got %d", got)
	}
}

func TestEnemyTargetsExcludesOwnAndGhosts(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	enemy := w.SpawnUnit(reg, "p2", "hound", 200, 200)
	ghost := w.SpawnBuilding(reg, "p2", "generator", 400, 400, false)
	ghost.Buildable.Ghost = true

	targets := w.EnemyTargets("p1")
	if len(targets) != 1 {
		t.Fatalf("expected 1 enemy target, got %d", len(targets))
	}
	if targets[0].ID != enemy.ID {
		t.Fatalf("expected enemy unit %d, got %d", enemy.ID, targets[0].ID)
	}
}

func TestCommanderLookup(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	commander := w.SpawnUnit(reg, "p1", "commander", 100, 100)
	if got := w.Commander("p1"); got == nil || got.ID != commander.ID {
		t.Fatalf("expected commander lookup to return %d, got %+v", commander.ID, got)
	}

	w.Remove(commander.ID)
	if got := w.Commander("p1"); got != nil {
		t.Fatalf("expected nil commander after death, got %d", got.ID)
	}
}

func TestIncompleteBuildingStartsAtHPSliver(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	site := w.SpawnBuilding(reg, "p1", "factory", 200, 200, false)
	cfg := reg.MustBuilding("factory")
	if site.Building.HP >= cfg.MaxHP {
		t.Fatalf("expected incomplete site below max hp, got %v", site.Building.HP)
	}
	if site.Buildable == nil || site.Buildable.Complete {
		t.Fatalf("expected incomplete buildable component, got %+v", site.Buildable)
	}
}
