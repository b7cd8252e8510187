package sim

// DefaultRegistry builds the stock catalog used by the host and by tests.
// Registration errors here are programmer errors, so they panic.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	weapons := []WeaponConfig{
		{
			ID: "cannon", Kind: ProjectileTraveling,
			SeeRange: 340, FireRange: 260, ReleaseRange: 220, LockRange: 180, FightstopRange: 140,
			Damage: 24, CooldownSeconds: 1.4,
			Pellets: 1, Spread: 0.05,
			ProjectileSpeed: 420, Lifespan: 1.6, MaxHits: 1,
			TurretAccel: 14, TurretDrag: 6,
		},
		{
			ID: "scattergun", Kind: ProjectileTraveling,
			SeeRange: 260, FireRange: 180, ReleaseRange: 150, LockRange: 120, FightstopRange: 90,
			Damage: 7, CooldownSeconds: 1.8,
			Pellets: 6, Spread: 0.45,
			ProjectileSpeed: 360, Lifespan: 0.7, MaxHits: 1,
			TurretAccel: 22, TurretDrag: 8,
		},
		{
			ID: "pulse", Kind: ProjectileTraveling,
			SeeRange: 300, FireRange: 230, ReleaseRange: 195, LockRange: 160, FightstopRange: 125,
			Damage: 5, CooldownSeconds: 1.2,
			BurstCount: 3, BurstInterval: 0.12,
			Pellets: 1, Spread: 0.03,
			ProjectileSpeed: 520, Lifespan: 0.9, MaxHits: 1,
			TurretAccel: 30, TurretDrag: 10,
		},
		{
			ID: "lance", Kind: ProjectileBeam,
			SeeRange: 280, FireRange: 210, ReleaseRange: 175, LockRange: 140, FightstopRange: 110,
			DamagePerSecond: 30, MaxHits: InfiniteHits,
			BeamLength:  220,
			TurretAccel: 9, TurretDrag: 5,
		},
		{
			ID: "dgun", Kind: ProjectileTraveling,
			SeeRange: 320, FireRange: 240, ReleaseRange: 200, LockRange: 160, FightstopRange: 120,
			Damage: 400, CooldownSeconds: 2.0,
			Pellets:         1,
			ProjectileSpeed: 300, Lifespan: 1.2, MaxHits: InfiniteHits,
			SplashRadius: 40,
			TurretAccel:  40, TurretDrag: 12,
			EnergyCost: 150,
		},
	}
	for _, w := range weapons {
		if err := r.RegisterWeapon(w); err != nil {
			panic(err)
		}
	}

	units := []UnitConfig{
		{
			ID: "commander", MaxHP: 800, Radius: 18, MoveSpeed: 55, Mass: 8,
			WeaponIDs:  []string{"lance", "dgun"},
			EnergyCost: 0, MaxBuildRate: 0,
			Builder: true, BuildRange: 90, BuildRate: 12, Commander: true,
		},
		{
			ID: "jackal", MaxHP: 120, Radius: 10, MoveSpeed: 90, Mass: 2,
			WeaponIDs:  []string{"cannon"},
			EnergyCost: 60, MaxBuildRate: 20,
		},
		{
			ID: "hound", MaxHP: 180, Radius: 12, MoveSpeed: 70, Mass: 3,
			WeaponIDs:  []string{"scattergun"},
			EnergyCost: 90, MaxBuildRate: 20,
		},
		{
			ID: "wasp", MaxHP: 80, Radius: 8, MoveSpeed: 120, Mass: 1,
			WeaponIDs:  []string{"pulse"},
			EnergyCost: 45, MaxBuildRate: 25,
		},
	}
	for _, u := range units {
		if err := r.RegisterUnit(u); err != nil {
			panic(err)
		}
	}

	buildings := []BuildingConfig{
		{
			ID: "factory", MaxHP: 600, Width: 64, Height: 64,
			EnergyCost: 200, MaxBuildRate: 30,
			Factory: true, ProducibleIDs: []string{"jackal", "hound", "wasp"},
		},
		{
			ID: "generator", MaxHP: 250, Width: 48, Height: 48,
			EnergyCost: 120, MaxBuildRate: 30,
			BaseProduction: 8,
		},
	}
	for _, b := range buildings {
		if err := r.RegisterBuilding(b); err != nil {
			panic(err)
		}
	}
	return r
}
