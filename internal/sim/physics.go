package sim

// PhysicsEngine is the external body-stepping collaborator. The simulation
// only writes velocity intents into it and reads corrected positions back
// after each step; collision response between unit bodies happens inside the
// engine.
type PhysicsEngine interface {
	// TrackUnit registers a body for an entity. Re-tracking an id updates
	// its parameters.
	TrackUnit(id EntityID, x, y, radius, mass float64)
	// Untrack drops the body for a removed entity. Unknown ids are a no-op.
	Untrack(id EntityID)
	// SetVelocity records the unit's intent for the next step.
	SetVelocity(id EntityID, vx, vy float64)
	// Step advances the bodies by dt seconds.
	Step(dt float64)
	// Positions invokes fn with the corrected position of every tracked body.
	Positions(fn func(id EntityID, x, y float64))
}

// KinematicPhysics integrates velocity directly with no body collision. It
// stands in for the real engine in tests and headless hosting.
type KinematicPhysics struct {
	bodies map[EntityID]*kinematicBody
	bounds Rect
}

type kinematicBody struct {
	x, y   float64
	vx, vy float64
	radius float64
}

func NewKinematicPhysics(bounds Rect) *KinematicPhysics {
	return &KinematicPhysics{
		bodies: make(map[EntityID]*kinematicBody),
		bounds: bounds,
	}
}

func (p *KinematicPhysics) TrackUnit(id EntityID, x, y, radius, _ float64) {
	if body, ok := p.bodies[id]; ok {
		body.x, body.y, body.radius = x, y, radius
		return
	}
	p.bodies[id] = &kinematicBody{x: x, y: y, radius: radius}
}

func (p *KinematicPhysics) Untrack(id EntityID) {
	delete(p.bodies, id)
}

func (p *KinematicPhysics) SetVelocity(id EntityID, vx, vy float64) {
	if body, ok := p.bodies[id]; ok {
		body.vx, body.vy = vx, vy
	}
}

func (p *KinematicPhysics) Step(dt float64) {
	for _, body := range p.bodies {
		body.x += body.vx * dt
		body.y += body.vy * dt
		body.x = clamp(body.x, p.bounds.MinX+body.radius, p.bounds.MaxX-body.radius)
		body.y = clamp(body.y, p.bounds.MinY+body.radius, p.bounds.MaxY-body.radius)
	}
}

func (p *KinematicPhysics) Positions(fn func(id EntityID, x, y float64)) {
	for id, body := range p.bodies {
		fn(id, body.x, body.y)
	}
}

var _ PhysicsEngine = (*KinematicPhysics)(nil)
