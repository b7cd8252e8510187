package net

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/niembro64/rts-prototype-sub002/internal/proto"
	"github.com/niembro64/rts-prototype-sub002/internal/sim"
	"github.com/niembro64/rts-prototype-sub002/internal/telemetry"
	"github.com/niembro64/rts-prototype-sub002/logging"
	logginglifecycle "github.com/niembro64/rts-prototype-sub002/logging/lifecycle"
	loggingnetwork "github.com/niembro64/rts-prototype-sub002/logging/network"
)

const (
	broadcastBytesMetricKey    = "net_broadcast_bytes_total"
	broadcastEntitiesMetricKey = "net_broadcast_entities"
	broadcastTotalMetricKey    = "net_broadcast_total"
)

// FrameSender delivers framed wire payloads to one peer. Implementations
// must be safe for concurrent SendFrame calls.
type FrameSender interface {
	SendFrame(data []byte) error
	Close()
}

// HubConfig tunes lobby limits and the broadcast schedule. The snapshot rate
// is deliberately independent of the simulation tick rate.
type HubConfig struct {
	MaxPlayers   int
	SnapshotRate int
	Loop         sim.LoopConfig

	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		MaxPlayers:   4,
		SnapshotRate: 10,
		Loop:         sim.DefaultLoopConfig(),
	}
}

// Hub owns the authoritative engine, the lobby, and the broadcast schedule.
// It is the single place where simulation effects become wire traffic.
//
// simMu serializes every engine mutation: loop stepping, player add/remove,
// and snapshot encoding all hold it, so world and economy state is never read
// while a step is in flight. mu guards the lobby bookkeeping and nests inside
// simMu; never the other way around.
type Hub struct {
	simMu sync.Mutex
	mu    sync.Mutex

	engine     *sim.Engine
	loop       *sim.Loop
	serializer *proto.Serializer
	codec      *proto.Codec
	cfg        HubConfig

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics

	sessions   map[sim.PlayerID]*hubSession
	nextPlayer int
	started    bool
	needFull   bool

	pending      sim.TickEffects
	gameOverSent bool
}

type hubSession struct {
	playerID  sim.PlayerID
	name      string
	sessionID string
	sender    FrameSender
}

func NewHub(engine *sim.Engine, cfg HubConfig) *Hub {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 4
	}
	if cfg.SnapshotRate <= 0 {
		cfg.SnapshotRate = 10
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	var metrics telemetry.Metrics = cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	h := &Hub{
		engine:     engine,
		serializer: proto.NewSerializer(proto.DefaultSerializerConfig()),
		codec:      proto.NewCodec(),
		cfg:        cfg,
		publisher:  publisher,
		logger:     cfg.Logger,
		metrics:    metrics,
		sessions:   make(map[sim.PlayerID]*hubSession),
		needFull:   true,
	}
	h.loop = sim.NewLoop(engine, cfg.Loop, sim.LoopHooks{AfterStep: h.afterStep})
	return h
}

// Engine exposes the authoritative engine, mainly for tests and diagnostics.
func (h *Hub) Engine() *sim.Engine { return h.engine }

func (h *Hub) afterStep(result sim.StepResult) {
	h.mu.Lock()
	h.pending.Merge(result.Effects)
	h.mu.Unlock()
}

// Join admits a peer into the lobby. Joins after the match has started or
// beyond the player ceiling fail and the caller must close the transport.
func (h *Hub) Join(name string, sender FrameSender) (sim.PlayerID, error) {
	h.simMu.Lock()
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		h.simMu.Unlock()
		loggingnetwork.JoinRejected(context.Background(), h.publisher, h.engine.Tick(),
			loggingnetwork.JoinRejectedPayload{Reason: "match_started"})
		return "", ErrMatchStarted
	}
	if len(h.sessions) >= h.cfg.MaxPlayers {
		h.mu.Unlock()
		h.simMu.Unlock()
		loggingnetwork.JoinRejected(context.Background(), h.publisher, h.engine.Tick(),
			loggingnetwork.JoinRejectedPayload{Reason: "lobby_full"})
		return "", ErrLobbyFull
	}

	h.nextPlayer++
	playerID := sim.PlayerID(fmt.Sprintf("player-%d", h.nextPlayer))
	session := &hubSession{
		playerID:  playerID,
		name:      name,
		sessionID: uuid.NewString(),
		sender:    sender,
	}
	h.sessions[playerID] = session

	spawnX, spawnY := h.spawnPoint(h.nextPlayer - 1)
	h.engine.AddPlayer(playerID, spawnX, spawnY, startingEnergy)
	h.needFull = true
	h.mu.Unlock()
	h.simMu.Unlock()

	loggingnetwork.PlayerJoined(context.Background(), h.publisher, h.engine.Tick(),
		logging.EntityRef{ID: string(playerID), Kind: logging.EntityKindPlayer},
		loggingnetwork.JoinPayload{Name: name, SessionID: session.sessionID})

	assignment := proto.PlayerAssignmentMessage{
		Ver: proto.ProtocolVersion, Type: proto.TypePlayerAssignment, PlayerID: playerID,
	}
	if data, err := h.codec.Encode(assignment); err == nil {
		if err := sender.SendFrame(data); err != nil {
			h.Leave(playerID)
			return "", err
		}
	}

	h.broadcastExcept(playerID, proto.PlayerJoinedMessage{
		Ver: proto.ProtocolVersion, Type: proto.TypePlayerJoined, PlayerID: playerID, Name: name,
	})
	return playerID, nil
}

const startingEnergy = 400

func (h *Hub) spawnPoint(index int) (float64, float64) {
	bounds := h.engine.World().Bounds()
	margin := 200.0
	corners := [][2]float64{
		{bounds.MinX + margin, bounds.MinY + margin},
		{bounds.MaxX - margin, bounds.MaxY - margin},
		{bounds.MinX + margin, bounds.MaxY - margin},
		{bounds.MaxX - margin, bounds.MinY + margin},
	}
	return corners[index%len(corners)][0], corners[index%len(corners)][1]
}

// Start locks the lobby and announces the participant list.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	ids := make([]sim.PlayerID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	logginglifecycle.MatchStarted(context.Background(), h.publisher, h.engine.Tick(),
		logginglifecycle.MatchStartedPayload{Players: names})

	h.broadcastExcept("", proto.GameStartMessage{
		Ver: proto.ProtocolVersion, Type: proto.TypeGameStart, PlayerIDs: ids,
	})
}

// Leave removes a peer, their units, and announces the departure. Idempotent.
func (h *Hub) Leave(playerID sim.PlayerID) {
	h.mu.Lock()
	session, ok := h.sessions[playerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, playerID)
	h.mu.Unlock()

	session.sender.Close()
	h.simMu.Lock()
	h.engine.RemovePlayer(playerID)
	h.simMu.Unlock()

	loggingnetwork.PlayerLeft(context.Background(), h.publisher, h.engine.Tick(),
		logging.EntityRef{ID: string(playerID), Kind: logging.EntityKindPlayer})

	h.broadcastExcept(playerID, proto.PlayerLeftMessage{
		Ver: proto.ProtocolVersion, Type: proto.TypePlayerLeft, PlayerID: playerID,
	})
}

// EnqueueCommand stamps the acting player onto the command and stages it.
// The player id on the wire is ignored; sessions cannot act for each other.
func (h *Hub) EnqueueCommand(playerID sim.PlayerID, cmd sim.Command) {
	cmd.PlayerID = playerID
	if cmd.Tick <= h.engine.Tick() {
		// Late commands execute on the next tick rather than being dropped.
		cmd.Tick = h.engine.Tick() + 1
	}
	h.engine.Enqueue(cmd)
}

// AttachLocal wires the host's own view through the same Connection contract
// remote clients use.
func (h *Hub) AttachLocal(name string) (*Loopback, sim.PlayerID, error) {
	bridge := &loopbackSender{codec: h.codec}
	playerID, err := h.Join(name, bridge)
	if err != nil {
		return nil, "", err
	}
	loopback := NewLoopback(func(cmd sim.Command) {
		h.EnqueueCommand(playerID, cmd)
	})
	bridge.loopback = loopback
	return loopback, playerID, nil
}

// Run drives the simulation loop and the decoupled broadcast ticker until
// stop closes. Both cadences run on this goroutine, and stepping holds simMu,
// so a broadcast never reads the world mid-step.
func (h *Hub) Run(stop <-chan struct{}) {
	tickRate := h.cfg.Loop.TickRate
	if tickRate <= 0 {
		tickRate = 30
	}
	simTicker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer simTicker.Stop()
	broadcastTicker := time.NewTicker(time.Second / time.Duration(h.cfg.SnapshotRate))
	defer broadcastTicker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-simTicker.C:
			now := time.Now()
			elapsed := now.Sub(last).Seconds()
			last = now
			if elapsed <= 0 {
				elapsed = 1.0 / float64(tickRate)
			}
			h.simMu.Lock()
			h.loop.Advance(elapsed)
			h.simMu.Unlock()
		case <-broadcastTicker.C:
			h.Broadcast()
		}
	}
}

// Broadcast drains accumulated tick effects and ships one snapshot to every
// session. Full snapshots go out after lobby changes; deltas otherwise.
func (h *Hub) Broadcast() {
	h.simMu.Lock()
	h.mu.Lock()
	effects := h.pending
	h.pending = sim.TickEffects{}
	if h.gameOverSent {
		effects.GameOver = nil
	} else if effects.GameOver != nil {
		h.gameOverSent = true
	}
	full := h.needFull
	h.needFull = false

	world := h.engine.World()
	economy := h.engine.Economy().Snapshot()
	tick := h.engine.Tick()

	var msg *proto.StateMessage
	if full {
		msg = h.serializer.EncodeFull(world, tick, economy, effects)
	} else {
		msg = h.serializer.EncodeDelta(world, tick, economy, effects)
	}

	data, err := h.codec.Encode(msg)
	if err != nil {
		h.mu.Unlock()
		h.simMu.Unlock()
		if h.logger != nil {
			h.logger.Printf("failed to encode snapshot: %v", err)
		}
		return
	}
	entities := len(msg.Entities) + len(msg.ChangedEntities)
	sessions := make([]*hubSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	h.simMu.Unlock()

	h.metrics.Add(broadcastTotalMetricKey, 1)
	h.metrics.Add(broadcastBytesMetricKey, uint64(len(data))*uint64(len(sessions)))
	h.metrics.Store(broadcastEntitiesMetricKey, uint64(entities))

	for _, session := range sessions {
		if err := session.sender.SendFrame(data); err != nil {
			if h.logger != nil {
				h.logger.Printf("dropping session %s: %v", session.playerID, err)
			}
			h.Leave(session.playerID)
		}
	}
}

func (h *Hub) broadcastExcept(skip sim.PlayerID, msg any) {
	data, err := h.codec.Encode(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("failed to encode lobby message: %v", err)
		}
		return
	}
	h.mu.Lock()
	sessions := make([]*hubSession, 0, len(h.sessions))
	for id, s := range h.sessions {
		if id == skip {
			continue
		}
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, session := range sessions {
		if err := session.sender.SendFrame(data); err != nil {
			h.Leave(session.playerID)
		}
	}
}

// loopbackSender adapts the hub's framed broadcast path back into Loopback
// delivery. Decoding the frame gives the local view its own StateMessage
// copy, isolated from the serializer's pools.
type loopbackSender struct {
	codec    *proto.Codec
	loopback *Loopback
}

func (s *loopbackSender) SendFrame(data []byte) error {
	if s.loopback == nil {
		return nil
	}
	env, raw, err := s.codec.PeekType(data)
	if err != nil {
		return err
	}
	if env.Type != proto.TypeState {
		return nil
	}
	var msg proto.StateMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}
	s.loopback.Deliver(&msg)
	return nil
}

func (s *loopbackSender) Close() {
	if s.loopback != nil {
		s.loopback.Disconnect()
	}
}
