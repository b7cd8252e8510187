package sim

import "fmt"

// WeaponConfig is the immutable description of a weapon class. Registered
// configs are validated once; lookups of unknown ids panic because they can
// only come from a corrupt build-time registry.
type WeaponConfig struct {
	ID   string
	Kind ProjectileKind

	// Range tiers, strictly ordered:
	// SeeRange > FireRange > ReleaseRange > LockRange > FightstopRange.
	SeeRange       float64
	FireRange      float64
	ReleaseRange   float64
	LockRange      float64
	FightstopRange float64

	Damage          float64
	DamagePerSecond float64
	SplashRadius    float64

	CooldownSeconds float64
	BurstCount      int
	BurstInterval   float64

	Pellets float64
	Spread  float64

	ProjectileSpeed float64
	Lifespan        float64
	MaxHits         int
	BeamLength      float64

	TurretAccel float64
	TurretDrag  float64

	// EnergyCost gates commander abilities; zero for ordinary weapons.
	EnergyCost float64
}

// Validate enforces the range hierarchy and basic sanity.
func (c WeaponConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("weapon config missing id")
	}
	if !(c.SeeRange > c.FireRange && c.FireRange > c.ReleaseRange &&
		c.ReleaseRange > c.LockRange && c.LockRange > c.FightstopRange) {
		return fmt.Errorf("weapon %q violates range ordering see=%v fire=%v release=%v lock=%v fightstop=%v",
			c.ID, c.SeeRange, c.FireRange, c.ReleaseRange, c.LockRange, c.FightstopRange)
	}
	if c.FightstopRange < 0 {
		return fmt.Errorf("weapon %q has negative fightstop range", c.ID)
	}
	if c.MaxHits == 0 {
		return fmt.Errorf("weapon %q has zero max hits; use InfiniteHits for piercing", c.ID)
	}
	if c.Kind == ProjectileTraveling && c.ProjectileSpeed <= 0 {
		return fmt.Errorf("weapon %q is traveling but has no projectile speed", c.ID)
	}
	if c.Kind == ProjectileBeam && c.BeamLength <= 0 {
		return fmt.Errorf("weapon %q is beam but has no beam length", c.ID)
	}
	return nil
}

// Piercing reports whether the weapon ignores the hit cap.
func (c WeaponConfig) Piercing() bool { return c.MaxHits == InfiniteHits }

// UnitConfig describes a producible unit class.
type UnitConfig struct {
	ID        string
	MaxHP     float64
	Radius    float64
	MoveSpeed float64
	Mass      float64
	WeaponIDs []string

	EnergyCost   float64
	MaxBuildRate float64

	Builder    bool
	BuildRange float64
	BuildRate  float64
	Commander  bool
}

// BuildingConfig describes a constructible structure class.
type BuildingConfig struct {
	ID     string
	MaxHP  float64
	Width  float64
	Height float64

	EnergyCost   float64
	MaxBuildRate float64

	Factory        bool
	ProducibleIDs  []string
	BaseProduction float64
}

// Registry holds the build-time unit/building/weapon catalogs.
type Registry struct {
	weapons   map[string]*WeaponConfig
	units     map[string]*UnitConfig
	buildings map[string]*BuildingConfig
}

func NewRegistry() *Registry {
	return &Registry{
		weapons:   make(map[string]*WeaponConfig),
		units:     make(map[string]*UnitConfig),
		buildings: make(map[string]*BuildingConfig),
	}
}

// RegisterWeapon validates and stores a weapon config.
func (r *Registry) RegisterWeapon(cfg WeaponConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, exists := r.weapons[cfg.ID]; exists {
		return fmt.Errorf("weapon %q registered twice", cfg.ID)
	}
	stored := cfg
	r.weapons[cfg.ID] = &stored
	return nil
}

func (r *Registry) RegisterUnit(cfg UnitConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("unit config missing id")
	}
	if _, exists := r.units[cfg.ID]; exists {
		return fmt.Errorf("unit %q registered twice", cfg.ID)
	}
	for _, wid := range cfg.WeaponIDs {
		if _, ok := r.weapons[wid]; !ok {
			return fmt.Errorf("unit %q references unknown weapon %q", cfg.ID, wid)
		}
	}
	stored := cfg
	r.units[cfg.ID] = &stored
	return nil
}

func (r *Registry) RegisterBuilding(cfg BuildingConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("building config missing id")
	}
	if _, exists := r.buildings[cfg.ID]; exists {
		return fmt.Errorf("building %q registered twice", cfg.ID)
	}
	for _, uid := range cfg.ProducibleIDs {
		if _, ok := r.units[uid]; !ok {
			return fmt.Errorf("building %q produces unknown unit %q", cfg.ID, uid)
		}
	}
	stored := cfg
	r.buildings[cfg.ID] = &stored
	return nil
}

// MustWeapon returns the weapon config for id, panicking on an unknown id.
func (r *Registry) MustWeapon(id string) *WeaponConfig {
	cfg, ok := r.weapons[id]
	if !ok {
		panic(fmt.Sprintf("unknown weapon config %q", id))
	}
	return cfg
}

// MustUnit returns the unit config for id, panicking on an unknown id.
func (r *Registry) MustUnit(id string) *UnitConfig {
	cfg, ok := r.units[id]
	if !ok {
		panic(fmt.Sprintf("unknown unit config %q", id))
	}
	return cfg
}

// MustBuilding returns the building config for id, panicking on an unknown id.
func (r *Registry) MustBuilding(id string) *BuildingConfig {
	cfg, ok := r.buildings[id]
	if !ok {
		panic(fmt.Sprintf("unknown building config %q", id))
	}
	return cfg
}

// Weapon returns the config and whether it exists, for callers validating
// player-supplied ids.
func (r *Registry) Weapon(id string) (*WeaponConfig, bool) {
	cfg, ok := r.weapons[id]
	return cfg, ok
}

func (r *Registry) Unit(id string) (*UnitConfig, bool) {
	cfg, ok := r.units[id]
	return cfg, ok
}

func (r *Registry) Building(id string) (*BuildingConfig, bool) {
	cfg, ok := r.buildings[id]
	return cfg, ok
}
