// Package proto defines the transport-carried wire messages and the
// snapshot serializer that produces them. Every message is JSON with a
// Ver/Type envelope so clients can reject unknown protocol revisions.
package proto

import "github.com/niembro64/rts-prototype-sub002/internal/sim"

// ProtocolVersion guards wire compatibility.
const ProtocolVersion = 1

// Message type discriminants.
const (
	TypeState            = "state"
	TypeCommand          = "command"
	TypePlayerAssignment = "playerAssignment"
	TypeGameStart        = "gameStart"
	TypePlayerJoined     = "playerJoined"
	TypePlayerLeft       = "playerLeft"
)

// Envelope is decoded first to learn a message's type, then the full payload
// is decoded into the matching struct.
type Envelope struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
}

// WaypointSnapshot mirrors one queued unit action.
type WaypointSnapshot struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// WeaponSnapshot mirrors the replicated half of a weapon.
type WeaponSnapshot struct {
	ConfigID    string       `json:"configId"`
	TurretAngle float64      `json:"turretAngle"`
	TargetID    sim.EntityID `json:"targetId,omitempty"`
}

// UnitSnapshot is the continuous replicated state of one unit.
type UnitSnapshot struct {
	ID       sim.EntityID       `json:"id"`
	Owner    sim.PlayerID       `json:"owner"`
	TypeID   string             `json:"typeId"`
	X        float64            `json:"x"`
	Y        float64            `json:"y"`
	Rotation float64            `json:"rotation"`
	VelX     float64            `json:"velX"`
	VelY     float64            `json:"velY"`
	HP       float64            `json:"hp"`
	MaxHP    float64            `json:"maxHp"`
	Radius   float64            `json:"radius"`
	Weapons  []WeaponSnapshot   `json:"weapons,omitempty"`
	Actions  []WaypointSnapshot `json:"actions,omitempty"`
}

// BuildingSnapshot is the continuous replicated state of one structure.
type BuildingSnapshot struct {
	ID       sim.EntityID `json:"id"`
	Owner    sim.PlayerID `json:"owner"`
	TypeID   string       `json:"typeId"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	HP       float64      `json:"hp"`
	MaxHP    float64      `json:"maxHp"`
	Progress float64      `json:"progress"`
	Complete bool         `json:"complete"`
	Ghost    bool         `json:"ghost,omitempty"`

	Factory       bool     `json:"factory,omitempty"`
	Queue         []string `json:"queue,omitempty"`
	QueueProgress float64  `json:"queueProgress,omitempty"`
	RallyX        float64  `json:"rallyX,omitempty"`
	RallyY        float64  `json:"rallyY,omitempty"`
}

// EntitySnapshot is the tagged union carried in state messages. Exactly the
// pointer matching Kind is set; projectiles never appear here, they travel
// as one-shot events.
type EntitySnapshot struct {
	Kind     string            `json:"kind"`
	Unit     *UnitSnapshot     `json:"unit,omitempty"`
	Building *BuildingSnapshot `json:"building,omitempty"`
}

// EntityID returns the id of whichever variant is populated.
func (e EntitySnapshot) EntityID() sim.EntityID {
	switch {
	case e.Unit != nil:
		return e.Unit.ID
	case e.Building != nil:
		return e.Building.ID
	default:
		return 0
	}
}

// EconomySnapshot is the replicated per-player resource state.
type EconomySnapshot struct {
	Stockpile    float64 `json:"stockpile"`
	MaxStockpile float64 `json:"maxStockpile"`
	BaseIncome   float64 `json:"baseIncome"`
	Production   float64 `json:"production"`
	Expenditure  float64 `json:"expenditure"`
}

// AudioEventWire is a replicated one-shot audio cue.
type AudioEventWire struct {
	Cue        string  `json:"cue"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Continuous bool    `json:"continuous,omitempty"`
}

// SprayTargetWire is a replicated one-shot impact effect position.
type SprayTargetWire struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProjectileSpawnWire announces a projectile exactly once.
type ProjectileSpawnWire struct {
	ID       sim.EntityID `json:"id"`
	Owner    sim.PlayerID `json:"owner"`
	SourceID sim.EntityID `json:"sourceId"`
	WeaponID string       `json:"weaponId"`
	Kind     string       `json:"projKind"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	VelX     float64      `json:"velX"`
	VelY     float64      `json:"velY"`
}

// ProjectileDespawnWire retires a projectile exactly once.
type ProjectileDespawnWire struct {
	ID sim.EntityID `json:"id"`
}

// ProjectileVelocityWire corrects a dead-reckoned projectile.
type ProjectileVelocityWire struct {
	ID   sim.EntityID `json:"id"`
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
	VelX float64      `json:"velX"`
	VelY float64      `json:"velY"`
}

// GameOverWire reports the match result.
type GameOverWire struct {
	WinnerID sim.PlayerID `json:"winnerId,omitempty"`
	Reason   string       `json:"reason"`
}

// StateMessage is the wire snapshot. Full snapshots populate Entities; delta
// snapshots populate ChangedEntities plus RemovedIDs and apply on top of the
// client's last-known state. The event streams are one-shot and independent
// of the full/delta mode.
type StateMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Tick     uint64 `json:"t"`
	Sequence uint64 `json:"sequence"`
	Full     bool   `json:"full,omitempty"`

	Entities        []EntitySnapshot `json:"entities,omitempty"`
	ChangedEntities []EntitySnapshot `json:"changedEntities,omitempty"`
	RemovedIDs      []sim.EntityID   `json:"removedIds,omitempty"`

	Economy map[sim.PlayerID]EconomySnapshot `json:"economy,omitempty"`

	SprayTargets              []SprayTargetWire        `json:"sprayTargets,omitempty"`
	AudioEvents               []AudioEventWire         `json:"audioEvents,omitempty"`
	ProjectileSpawns          []ProjectileSpawnWire    `json:"projectileSpawns,omitempty"`
	ProjectileDespawns        []ProjectileDespawnWire  `json:"projectileDespawns,omitempty"`
	ProjectileVelocityUpdates []ProjectileVelocityWire `json:"projectileVelocityUpdates,omitempty"`

	GameOver *GameOverWire `json:"gameOver,omitempty"`
}

// CommandMessage wraps a scheduled command from a client.
type CommandMessage struct {
	Ver     int         `json:"ver"`
	Type    string      `json:"type"`
	Payload sim.Command `json:"payload"`
}

// PlayerAssignmentMessage tells a joining client who it is.
type PlayerAssignmentMessage struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	PlayerID sim.PlayerID `json:"playerId"`
}

// GameStartMessage announces the locked lobby and participant list.
type GameStartMessage struct {
	Ver       int            `json:"ver"`
	Type      string         `json:"type"`
	PlayerIDs []sim.PlayerID `json:"playerIds"`
}

// PlayerJoinedMessage announces a new lobby participant.
type PlayerJoinedMessage struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	PlayerID sim.PlayerID `json:"playerId"`
	Name     string       `json:"name"`
}

// PlayerLeftMessage announces a departed participant.
type PlayerLeftMessage struct {
	Ver      int          `json:"ver"`
	Type     string       `json:"type"`
	PlayerID sim.PlayerID `json:"playerId"`
}
