package sim

import "strconv"

// EntityID identifies an entity for the lifetime of a world. IDs are issued
// monotonically and never reused.
type EntityID uint64

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// PlayerID identifies a participating player.
type PlayerID string

// EntityKind discriminates the entity union.
type EntityKind string

const (
	KindUnit       EntityKind = "unit"
	KindBuilding   EntityKind = "building"
	KindProjectile EntityKind = "projectile"
)

// Transform is the shared spatial state every entity carries.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

// WaypointType distinguishes how a unit treats a queued destination.
type WaypointType string

const (
	// WaypointMove walks to the target ignoring enemies.
	WaypointMove WaypointType = "move"
	// WaypointFight walks to the target but halts while any weapon holds a
	// target, resuming when combat ends.
	WaypointFight WaypointType = "fight"
	// WaypointPatrol behaves like fight and re-queues itself when the queue
	// drains, looping from the unit's patrol start index.
	WaypointPatrol WaypointType = "patrol"
)

// UnitAction is one entry in a unit's ordered waypoint queue.
type UnitAction struct {
	Type    WaypointType
	TargetX float64
	TargetY float64
}

// UnitComponent holds the mobile-entity state.
type UnitComponent struct {
	TypeID    string
	HP        float64
	MaxHP     float64
	Radius    float64
	MoveSpeed float64
	Mass      float64
	VelX      float64
	VelY      float64

	Actions []UnitAction
	// PatrolStart indexes the first patrol waypoint for loop re-queueing,
	// -1 when the unit is not patrolling.
	PatrolStart int
}

// WeaponPhase tracks the per-weapon combat state machine.
type WeaponPhase string

const (
	WeaponIdle     WeaponPhase = "idle"
	WeaponTracking WeaponPhase = "tracking"
	WeaponFiring   WeaponPhase = "firing"
)

// WeaponState is the mutable half of a weapon; configuration lives in the
// registry and is referenced by ID.
type WeaponState struct {
	ConfigID string
	Config   *WeaponConfig

	Phase    WeaponPhase
	TargetID EntityID

	Cooldown   float64
	BurstLeft  int
	BurstDelay float64

	TurretAngle float64
	TurretVel   float64
}

// BuildingComponent holds the static-structure state.
type BuildingComponent struct {
	TypeID string
	Width  float64
	Height float64
	HP     float64
	MaxHP  float64
}

// BuildableComponent is attached while a structure is under construction.
type BuildableComponent struct {
	Progress     float64
	EnergyCost   float64
	MaxBuildRate float64
	Complete     bool
	Ghost        bool
}

// FactoryComponent holds a production queue processed one head at a time.
type FactoryComponent struct {
	Queue    []string
	Progress float64
	// ReadyHeld marks a finished head waiting for unit-cap headroom.
	ReadyHeld bool
	RallyX    float64
	RallyY    float64
	// WaypointTemplate seeds the action queue of produced units; the rally
	// point is appended after it.
	WaypointTemplate []UnitAction
}

// BuilderComponent marks a unit able to drive construction sites.
type BuilderComponent struct {
	BuildRange  float64
	BuildRate   float64
	BuildTarget EntityID
	// Commander units gate the game-over check and may fire the D-gun.
	Commander bool
}

// ProjectileKind discriminates projectile resolution.
type ProjectileKind string

const (
	ProjectileInstant   ProjectileKind = "instant"
	ProjectileTraveling ProjectileKind = "traveling"
	ProjectileBeam      ProjectileKind = "beam"
)

// InfiniteHits marks piercing projectiles that never exhaust on impact.
const InfiniteHits = -1

// ProjectileComponent holds in-flight weapon fire. Config is snapshotted at
// spawn so a dying source cannot invalidate it.
type ProjectileComponent struct {
	Owner       PlayerID
	SourceID    EntityID
	WeaponIndex int
	Config      WeaponConfig
	Kind        ProjectileKind

	VelX        float64
	VelY        float64
	TimeAlive   float64
	MaxLifespan float64

	HitEntities map[EntityID]struct{}
	MaxHits     int

	SplashApplied bool

	BeamStartX float64
	BeamStartY float64
	BeamEndX   float64
	BeamEndY   float64
}

// Entity is the tagged union stored by the world. Exactly the component
// pointers implied by Kind are non-nil.
type Entity struct {
	ID   EntityID
	Kind EntityKind
	Transform

	Owner      PlayerID
	Selectable bool
	Selected   bool

	Unit       *UnitComponent
	Weapons    []WeaponState
	Building   *BuildingComponent
	Buildable  *BuildableComponent
	Factory    *FactoryComponent
	Builder    *BuilderComponent
	Projectile *ProjectileComponent
}

// Alive reports whether the entity still holds hit points. Projectiles are
// alive until removed.
func (e *Entity) Alive() bool {
	switch e.Kind {
	case KindUnit:
		return e.Unit != nil && e.Unit.HP > 0
	case KindBuilding:
		return e.Building != nil && e.Building.HP > 0
	default:
		return true
	}
}

// Hittable reports whether combat may damage the entity. Ghost previews are
// not yet part of the physical world.
func (e *Entity) Hittable() bool {
	if e.Kind == KindProjectile {
		return false
	}
	if e.Buildable != nil && e.Buildable.Ghost {
		return false
	}
	return e.Alive()
}

// CollisionRadius returns the circle used for hit tests.
func (e *Entity) CollisionRadius() float64 {
	switch e.Kind {
	case KindUnit:
		return e.Unit.Radius
	case KindBuilding:
		// Buildings collide as the circle inscribed in their footprint.
		if e.Building.Width < e.Building.Height {
			return e.Building.Width / 2
		}
		return e.Building.Height / 2
	default:
		return 0
	}
}

// Damage applies hp loss and reports remaining hp.
func (e *Entity) Damage(amount float64) float64 {
	switch e.Kind {
	case KindUnit:
		e.Unit.HP -= amount
		return e.Unit.HP
	case KindBuilding:
		e.Building.HP -= amount
		return e.Building.HP
	default:
		return 0
	}
}
