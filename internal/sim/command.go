package sim

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandSelect         CommandType = "Select"
	CommandMove           CommandType = "Move"
	CommandClearSelection CommandType = "ClearSelection"
	CommandStartBuild     CommandType = "StartBuild"
	CommandQueueUnit      CommandType = "QueueUnit"
	CommandSetRallyPoint  CommandType = "SetRallyPoint"
	CommandFireDGun       CommandType = "FireDGun"
)

// Command represents an intent scheduled for a specific simulation tick.
// Exactly the payload pointer matching Type is non-nil.
type Command struct {
	Tick     uint64
	PlayerID PlayerID
	Type     CommandType

	Select     *SelectCommand
	Move       *MoveCommand
	StartBuild *StartBuildCommand
	QueueUnit  *QueueUnitCommand
	SetRally   *SetRallyPointCommand
	FireDGun   *FireDGunCommand
}

// SelectCommand marks entities selected for the acting player.
type SelectCommand struct {
	EntityIDs []EntityID
	Additive  bool
}

// IndividualTarget pins one unit of a move group to its own destination,
// used for drawn-line formations.
type IndividualTarget struct {
	EntityID EntityID
	X        float64
	Y        float64
}

// MoveCommand orders units toward a shared target (with formation spread) or
// per-unit individual targets. Queue appends instead of replacing.
type MoveCommand struct {
	EntityIDs         []EntityID
	TargetX           float64
	TargetY           float64
	IndividualTargets []IndividualTarget
	WaypointType      WaypointType
	Queue             bool
}

// StartBuildCommand places a construction site on the build grid.
type StartBuildCommand struct {
	BuilderID    EntityID
	BuildingType string
	GridX        int
	GridY        int
}

// QueueUnitCommand appends a unit type to a factory's production queue.
type QueueUnitCommand struct {
	FactoryID  EntityID
	UnitTypeID string
}

// SetRallyPointCommand retargets where produced units walk after spawning.
type SetRallyPointCommand struct {
	FactoryID EntityID
	RallyX    float64
	RallyY    float64
}

// FireDGunCommand aims the commander's disintegrator at a point.
type FireDGunCommand struct {
	CommanderID EntityID
	TargetX     float64
	TargetY     float64
}
