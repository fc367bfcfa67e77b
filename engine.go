package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrArenaFull is returned when max_players is reached.
	ErrArenaFull = errors.New("arena full")
	// ErrShuttingDown rejects agents that arrive after Shutdown.
	ErrShuttingDown = errors.New("engine shutting down")
)

// SpawnError reports why a player could not be added. The simulation is
// unaffected by it.
type SpawnError struct {
	Agent string
	Err   error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %q: %v", e.Agent, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// Sink receives the public snapshot once per tick
type Sink interface {
	Broadcast(states []PlayerState)
	ClientCount() int
}

// agentConn closes its stream at most once.
type agentConn struct {
	Stream
	once sync.Once
	err  error
}

func (c *agentConn) Close() error {
	c.once.Do(func() { c.err = c.Stream.Close() })
	return c.err
}

// Engine owns the arena: the player list, the projectiles, and the tick loop.
type Engine struct {
	cfg      SimConfig
	log      *zap.SugaredLogger
	sink     Sink
	launcher Launcher
	Metrics  *Metrics

	telemetry      *Telemetry
	telemetryEvery int

	// mu guards the player list and agent streams. The spawn path appends
	// under the write lock; each tick works on a copy taken under the read
	// lock, so a player added mid-tick joins on the next tick.
	mu      sync.RWMutex
	players []*Player
	conns   map[PlayerID]*agentConn
	nextID  PlayerID

	// Everything below is owned by the tick; tickMu serializes Step.
	tickMu      sync.Mutex
	projectiles []*Projectile
	grid        *SpatialGrid
	candidates  []int
	tick        atomic.Uint64

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// NewEngine creates an engine. sink and launcher may be nil.
func NewEngine(cfg SimConfig, launcher Launcher, sink Sink, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		sink:     sink,
		launcher: launcher,
		Metrics:  &Metrics{},
		conns:    make(map[PlayerID]*agentConn),
		nextID:   1,
		grid:     NewSpatialGrid(cfg.ArenaExtent),
		stop:     make(chan struct{}),
	}
}

// SetTelemetry enables CSV telemetry every n ticks.
func (e *Engine) SetTelemetry(t *Telemetry, every int) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	if every <= 0 {
		every = 1
	}
	e.telemetry = t
	e.telemetryEvery = every
}

// SpawnPlayer launches an agent and adds it as a player.
func (e *Engine) SpawnPlayer(ctx context.Context, agent string) (PlayerID, error) {
	if e.launcher == nil {
		return 0, &SpawnError{Agent: agent, Err: fmt.Errorf("%w: no launcher configured", ErrLaunch)}
	}
	if e.PlayerCount() >= e.cfg.MaxPlayers {
		e.Metrics.IncSpawnFailures()
		return 0, &SpawnError{Agent: agent, Err: ErrArenaFull}
	}
	stream, err := e.launcher.Launch(ctx, agent)
	if err != nil {
		e.Metrics.IncSpawnFailures()
		e.log.Warnw("agent launch failed", "agent", agent, "err", err)
		return 0, &SpawnError{Agent: agent, Err: err}
	}
	id, err := e.AddAgent(agent, stream)
	if err != nil {
		_ = stream.Close()
		return 0, err
	}
	return id, nil
}

// AddAgent creates a player driven by stream and starts its ingestion and
// feedback goroutines.
func (e *Engine) AddAgent(name string, stream Stream) (PlayerID, error) {
	conn := &agentConn{Stream: stream}

	e.mu.Lock()
	if e.stopped() {
		e.mu.Unlock()
		return 0, &SpawnError{Agent: name, Err: ErrShuttingDown}
	}
	if len(e.players) >= e.cfg.MaxPlayers {
		e.mu.Unlock()
		e.Metrics.IncSpawnFailures()
		return 0, &SpawnError{Agent: name, Err: ErrArenaFull}
	}
	p := NewPlayer(e.nextID, name, e.cfg.SpawnRadius)
	e.nextID++
	e.players = append(e.players, p)
	e.conns[p.ID] = conn
	// Added under mu: Shutdown waits for mu after closing stop, so it either
	// sees this conn or we saw stop closed.
	e.wg.Add(2)
	e.mu.Unlock()

	go e.ingest(p, conn)
	go e.writeFeedback(p, conn)

	k := p.Kinematics()
	e.log.Infow("player joined", "player", p.ID, "name", name, "x", k.Location.X, "y", k.Location.Y)
	return p.ID, nil
}

// addPlayer appends a player with no agent attached.
func (e *Engine) addPlayer(p *Player) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.ID == 0 {
		p.ID = e.nextID
	}
	if p.ID >= e.nextID {
		e.nextID = p.ID + 1
	}
	e.players = append(e.players, p)
}

// Players returns the players in join order.
func (e *Engine) Players() []*Player {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Player(nil), e.players...)
}

// Player returns the player with the given ID, or nil.
func (e *Engine) Player(id PlayerID) *Player {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerCount returns the number of players, defeated ones included.
func (e *Engine) PlayerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.players)
}

// ProjectileCount returns the number of live projectiles after the last tick.
func (e *Engine) ProjectileCount() int {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return len(e.projectiles)
}

// Tick returns the number of completed ticks.
func (e *Engine) Tick() uint64 {
	return e.tick.Load()
}

// Snapshot returns the public state of every player in join order.
func (e *Engine) Snapshot() []PlayerState {
	players := e.Players()
	states := make([]PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, p.ToState())
	}
	return states
}

// Run steps the simulation until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	period := e.cfg.TickDuration()
	e.log.Infow("tick loop started", "dt", e.cfg.DT, "pacing", e.cfg.Pacing)
	defer e.log.Info("tick loop stopped")

	if e.cfg.Pacing == PacingFixedRate {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.safeStep()
			}
		}
	}

	timer := time.NewTimer(period)
	defer timer.Stop()
	for {
		e.safeStep()
		timer.Reset(period)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// safeStep keeps the loop alive if a tick panics.
func (e *Engine) safeStep() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("tick panicked", "tick", e.Tick(), "panic", r)
		}
	}()
	e.Step(e.cfg.DT)
}

// Step runs one tick of dt seconds: projectiles, players, feedback, broadcast.
func (e *Engine) Step(dt float64) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	start := time.Now()
	players := e.Players()

	e.projectilePhase(players, dt)
	e.playerPhase(players, dt)
	e.feedbackPhase(players)
	e.broadcastPhase(players)

	tick := e.tick.Add(1)
	elapsed := time.Since(start)
	e.Metrics.AddTick(elapsed.Nanoseconds())
	if e.telemetry != nil && tick%uint64(e.telemetryEvery) == 0 {
		e.writeTelemetry(tick, players, elapsed)
	}
}

func (e *Engine) projectilePhase(players []*Player, dt float64) {
	e.grid.Clear()
	for i, p := range players {
		if p.Defeated() {
			continue
		}
		k := p.Kinematics()
		e.grid.InsertCircle(k.Location.X, k.Location.Y, PlayerRadius, i)
	}

	for _, proj := range e.projectiles {
		if !proj.Live() {
			continue
		}
		proj.Update(dt)
		if e.cfg.ProjectileTTL > 0 && proj.Age > e.cfg.ProjectileTTL {
			proj.Deactivate()
			continue
		}

		loc := proj.Kin.Location
		e.candidates = e.grid.QueryBuf(loc.X, loc.Y, proj.CollisionRadius(), e.candidates[:0])
		sort.Ints(e.candidates)

		hitAny := false
		for j, idx := range e.candidates {
			if j > 0 && e.candidates[j-1] == idx {
				continue
			}
			victim := players[idx]
			hit, defeated := victim.hitBy(proj, e.cfg.SelfDamage)
			if !hit {
				continue
			}
			hitAny = true
			e.Metrics.IncHits()
			if defeated {
				e.onDefeat(victim, players, proj.Origin, "hit by "+proj.Kind.String())
			}
		}
		// A projectile can hit every ship it overlaps this tick, then it is spent.
		if hitAny {
			proj.Deactivate()
		}
	}

	live := e.projectiles[:0]
	for _, proj := range e.projectiles {
		if proj.Live() {
			live = append(live, proj)
		}
	}
	for i := len(live); i < len(e.projectiles); i++ {
		e.projectiles[i] = nil
	}
	e.projectiles = live
}

func (e *Engine) playerPhase(players []*Player, dt float64) {
	for _, p := range players {
		wasDefeated := p.Defeated()
		for _, proj := range p.step(dt) {
			if e.cfg.MaxProjectiles > 0 && len(e.projectiles) >= e.cfg.MaxProjectiles {
				e.Metrics.IncProjectilesDropped()
				continue
			}
			e.projectiles = append(e.projectiles, proj)
			e.Metrics.IncProjectilesFired()
		}
		if !wasDefeated && p.Defeated() {
			e.onDefeat(p, players, 0, "out of energy")
		}
	}
}

func (e *Engine) onDefeat(victim *Player, players []*Player, origin PlayerID, cause string) {
	e.Metrics.IncDefeats()
	by := ""
	if origin != 0 && origin != victim.ID {
		for _, p := range players {
			if p.ID == origin {
				p.addKill()
				by = p.Name()
				break
			}
		}
	}
	e.log.Infow("player defeated", "player", victim.ID, "name", victim.Name(), "cause", cause, "by", by,
		"health", victim.Health(), "energy", victim.Energy())
}

func (e *Engine) feedbackPhase(players []*Player) {
	alive := make([]*Player, 0, len(players))
	kins := make([]KinematicData, 0, len(players))
	for _, p := range players {
		if p.Defeated() {
			continue
		}
		alive = append(alive, p)
		kins = append(kins, p.Kinematics())
	}

	for i, p := range alive {
		e.safely(p.ID, "feedback", func() {
			frame, err := EncodeFrame(FeedbackView(i, kins))
			if err != nil {
				e.Metrics.IncEncodeErrors()
				e.log.Errorw("encoding feedback", "player", p.ID, "err", err)
				return
			}
			if !p.enqueueFeedback(frame) {
				e.Metrics.IncFeedbackDropped()
			}
		})
	}
}

// FeedbackView orders kins for the player at index self: its own kinematics
// first, then every other entry by ascending distance, ties in input order.
func FeedbackView(self int, kins []KinematicData) []KinematicsRecord {
	order := make([]int, 0, len(kins))
	for i := range kins {
		if i != self {
			order = append(order, i)
		}
	}
	origin := kins[self]
	dist := make([]float64, len(kins))
	for _, i := range order {
		dist[i] = origin.DistanceTo(kins[i])
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dist[order[a]] < dist[order[b]]
	})

	view := make([]KinematicsRecord, 0, len(kins))
	view = append(view, origin.ToRecord())
	for _, i := range order {
		view = append(view, kins[i].ToRecord())
	}
	return view
}

func (e *Engine) broadcastPhase(players []*Player) {
	if e.sink == nil {
		return
	}
	states := make([]PlayerState, 0, len(players))
	for _, p := range players {
		states = append(states, p.ToState())
	}
	e.safely(0, "broadcast", func() { e.sink.Broadcast(states) })
}

// safely runs one per-entity delivery, containing any panic to that entity.
func (e *Engine) safely(id PlayerID, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("delivery panicked", "what", what, "player", id, "panic", r)
		}
	}()
	fn()
}

func (e *Engine) writeTelemetry(tick uint64, players []*Player, elapsed time.Duration) {
	alive := 0
	for _, p := range players {
		if !p.Defeated() {
			alive++
		}
	}
	observers := 0
	if e.sink != nil {
		observers = e.sink.ClientCount()
	}
	err := e.telemetry.Write(TickRecord{
		Tick:        tick,
		Players:     len(players),
		Alive:       alive,
		Projectiles: len(e.projectiles),
		Observers:   observers,
		TickMs:      float64(elapsed.Microseconds()) / 1000,
	})
	if err != nil {
		e.log.Warnw("telemetry write failed", "err", err)
	}
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// Shutdown stops the agent goroutines and closes every agent stream. Agents
// added afterwards are rejected with ErrShuttingDown.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.mu.RLock()
	conns := make([]*agentConn, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	e.mu.RUnlock()
	for _, c := range conns {
		_ = c.Close()
	}
	e.wg.Wait()
}
