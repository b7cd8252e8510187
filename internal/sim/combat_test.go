package sim

import (
	"math"
	"testing"
)

// combatRegistry builds a catalog with snap-aim turrets so firing behavior is
// deterministic without simulating turret swing.
func combatRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	weapons := []WeaponConfig{
		{
			ID: "snapgun", Kind: ProjectileTraveling,
			SeeRange: 300, FireRange: 250, ReleaseRange: 200, LockRange: 150, FightstopRange: 100,
			Damage: 10, CooldownSeconds: 1,
			ProjectileSpeed: 200, Lifespan: 2, MaxHits: 1,
		},
		{
			ID: "snapburst", Kind: ProjectileTraveling,
			SeeRange: 300, FireRange: 250, ReleaseRange: 200, LockRange: 150, FightstopRange: 100,
			Damage: 4, CooldownSeconds: 2,
			BurstCount: 3, BurstInterval: 0.1,
			ProjectileSpeed: 200, Lifespan: 2, MaxHits: 1,
		},
		{
			ID: "snapbeam", Kind: ProjectileBeam,
			SeeRange: 300, FireRange: 250, ReleaseRange: 200, LockRange: 150, FightstopRange: 100,
			DamagePerSecond: 60, MaxHits: InfiniteHits,
			BeamLength: 260,
		},
	}
	for _, w := range weapons {
		if err := reg.RegisterWeapon(w); err != nil {
			t.Fatalf("register weapon %s: %v", w.ID, err)
		}
	}
	units := []UnitConfig{
		{ID: "gunner", MaxHP: 100, Radius: 10, MoveSpeed: 50, Mass: 1, WeaponIDs: []string{"snapgun"}},
		{ID: "burster", MaxHP: 100, Radius: 10, MoveSpeed: 50, Mass: 1, WeaponIDs: []string{"snapburst"}},
		{ID: "lancer", MaxHP: 100, Radius: 10, MoveSpeed: 50, Mass: 1, WeaponIDs: []string{"snapbeam"}},
		{ID: "drone", MaxHP: 100, Radius: 10, MoveSpeed: 50, Mass: 1},
	}
	for _, u := range units {
		if err := reg.RegisterUnit(u); err != nil {
			t.Fatalf("register unit %s: %v", u.ID, err)
		}
	}
	return reg
}

func TestTargetingAcquiresClosestEnemyInFireRange(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	gunner := w.SpawnUnit(reg, "p1", "gunner", 100, 100)
	far := w.SpawnUnit(reg, "p2", "drone", 100+240, 100)
	near := w.SpawnUnit(reg, "p2", "drone", 100+150, 100)
	w.SpawnUnit(reg, "p2", "drone", 100+500, 100) // beyond fire range

	updateTargeting(w)

	weapon := &gunner.Weapons[0]
	if weapon.TargetID != near.ID {
		t.Fatalf("expected closest enemy %d, got %d (far=%d)", near.ID, weapon.TargetID, far.ID)
	}
	if weapon.Phase != WeaponTracking {
		t.Fatalf("expected tracking phase, got %s", weapon.Phase)
	}
}

func TestTargetHeldWhileInFireRange(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	gunner := w.SpawnUnit(reg, "p1", "gunner", 100, 100)
	enemy := w.SpawnUnit(reg, "p2", "drone", 100+200, 100)

	updateTargeting(w)
	if gunner.Weapons[0].TargetID != enemy.ID {
		t.Fatalf("expected lock on enemy %d", enemy.ID)
	}

	// Still inside effective fire range (250 + radius 10): the lock holds.
	enemy.X = 100 + 255
	updateTargeting(w)
	if gunner.Weapons[0].TargetID != enemy.ID {
		t.Fatalf("expected lock retained inside effective fire range")
	}

	enemy.X = 100 + 400
	updateTargeting(w)
	if gunner.Weapons[0].TargetID != 0 {
		t.Fatalf("expected lock released out of fire range, got %d", gunner.Weapons[0].TargetID)
	}
	if gunner.Weapons[0].Phase != WeaponIdle {
		t.Fatalf("expected idle phase after release, got %s", gunner.Weapons[0].Phase)
	}
}

func TestFiringRespectsCooldown(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	w.SpawnUnit(reg, "p1", "gunner", 100, 100)
	w.SpawnUnit(reg, "p2", "drone", 100+150, 100)

	updateTargeting(w)
	updateTurrets(w, 1.0/30)

	effects := updateFiring(w, 1.0/30)
	if len(effects.ProjectileSpawns) != 1 {
		t.Fatalf("expected 1 projectile, got %d", len(effects.ProjectileSpawns))
	}

	effects = updateFiring(w, 1.0/30)
	if len(effects.ProjectileSpawns) != 0 {
		t.Fatalf("expected cooldown to block the second shot, got %d spawns", len(effects.ProjectileSpawns))
	}
}

func TestBurstFirePaysBurstIntervalNotCooldown(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	burster := w.SpawnUnit(reg, "p1", "burster", 100, 100)
	w.SpawnUnit(reg, "p2", "drone", 100+150, 100)

	updateTargeting(w)
	updateTurrets(w, 1.0/30)

	shots := 0
	for i := 0; i < 30; i++ {
		effects := updateFiring(w, 1.0/30)
		shots += len(effects.ProjectileSpawns)
	}
	// One second covers the opening shot plus both burst followups, but not
	// a second cooldown cycle.
	if shots != 3 {
		t.Fatalf("expected 3 shots in the first burst, got %d", shots)
	}
	if burster.Weapons[0].BurstLeft != 0 {
		t.Fatalf("expected burst exhausted, %d left", burster.Weapons[0].BurstLeft)
	}
}

func TestOneBeamPerSourceWeapon(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	w.SpawnUnit(reg, "p1", "lancer", 100, 100)
	w.SpawnUnit(reg, "p2", "drone", 100+150, 100)

	updateTargeting(w)
	updateTurrets(w, 1.0/30)
	updateFiring(w, 1.0/30)
	updateFiring(w, 1.0/30)

	if got := len(w.Projectiles()); got != 1 {
		t.Fatalf("expected a single live beam, got %d projectiles", got)
	}
}

func TestBeamEndsWhenLockDrops(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	lancer := w.SpawnUnit(reg, "p1", "lancer", 100, 100)
	enemy := w.SpawnUnit(reg, "p2", "drone", 100+150, 100)

	updateTargeting(w)
	updateTurrets(w, 1.0/30)
	effects := updateFiring(w, 1.0/30)

	sawBeamOn := false
	for _, ev := range effects.AudioEvents {
		if ev.Cue == AudioBeamOn && ev.Continuous {
			sawBeamOn = true
		}
	}
	if !sawBeamOn {
		t.Fatalf("expected continuous beam-on cue, got %+v", effects.AudioEvents)
	}

	enemy.X = 100 + 400
	updateTargeting(w)
	effects = updateFiring(w, 1.0/30)

	if got := len(w.Projectiles()); got != 0 {
		t.Fatalf("expected beam despawned after release, got %d projectiles", got)
	}
	sawBeamOff := false
	for _, ev := range effects.AudioEvents {
		if ev.Cue == AudioBeamOff && ev.Continuous {
			sawBeamOff = true
		}
	}
	if !sawBeamOff {
		t.Fatalf("expected continuous beam-off cue, got %+v", effects.AudioEvents)
	}
	_ = lancer
}

func TestSnapTurretTracksTarget(t *testing.T) {
	w := newTestWorld(10)
	reg := combatRegistry(t)

	gunner := w.SpawnUnit(reg, "p1", "gunner", 100, 100)
	w.SpawnUnit(reg, "p2", "drone", 100, 100+150)

	updateTargeting(w)
	updateTurrets(w, 1.0/30)

	want := math.Pi / 2
	if got := gunner.Weapons[0].TurretAngle; math.Abs(normalizeAngle(got-want)) > 1e-9 {
		t.Fatalf("expected snap turret at %v, got %v", want, got)
	}
}

func TestAcceleratedTurretConvergesOnAim(t *testing.T) {
	w := newTestWorld(10)
	reg := DefaultRegistry()

	jackal := w.SpawnUnit(reg, "p1", "jackal", 100, 100)
	w.SpawnUnit(reg, "p2", "jackal", 100, 100+150)

	updateTargeting(w)
	for i := 0; i < 300; i++ {
		updateTurrets(w, 1.0/30)
	}

	want := math.Pi / 2
	if got := jackal.Weapons[0].TurretAngle; math.Abs(normalizeAngle(got-want)) > aimTolerance {
		t.Fatalf("expected turret settled near %v, got %v", want, got)
	}
}

func TestNormalizeAngleWraps(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{math.Pi / 2, math.Pi / 2},
	}
	for _, tc := range cases {
		if got := normalizeAngle(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("normalizeAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
