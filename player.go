package main

import (
	"math"
	"math/rand/v2"
	"sync"
)

const (
	PlayerRadius    = 16.0
	PlayerMaxHealth = 100.0
	PlayerMaxEnergy = 100.0
	IdleEnergyCost  = 0.01 // spent every tick on top of |thrust| + |torque|
	maxNameLen      = 16
	MaxControl      = 1e6 // |thrust| and |torque| are clamped to this
	feedbackBufSize = 4
)

// PlayerID is the join sequence number of a player
type PlayerID uint32

// Player is one agent-controlled ship. The tick loop and the player's own
// ingestion goroutine both mutate it, so every field below mu is guarded by it.
type Player struct {
	ID PlayerID

	mu        sync.RWMutex
	kin       KinematicData
	name      string
	energy    float64
	health    float64
	fireMetal bool
	fireLaser bool
	kills     int

	feedback chan []byte   // encoded frames waiting for the agent
	done     chan struct{} // closed once the player is defeated
	doneOnce sync.Once
}

// NewPlayer creates a player at a random point on the spawn circle
func NewPlayer(id PlayerID, name string, spawnRadius float64) *Player {
	spawn := Heading(rand.Float64()*2*math.Pi, spawnRadius)
	return &Player{
		ID:       id,
		kin:      KinematicData{Location: spawn},
		name:     truncateName(name),
		energy:   PlayerMaxEnergy,
		health:   PlayerMaxHealth,
		feedback: make(chan []byte, feedbackBufSize),
		done:     make(chan struct{}),
	}
}

// controlValue clamps a present, finite control value to ±MaxControl.
func controlValue(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return math.Max(-MaxControl, math.Min(MaxControl, *v)), true
}

func truncateName(name string) string {
	if len(name) > maxNameLen {
		return name[:maxNameLen]
	}
	return name
}

func (p *Player) Kinematics() KinematicData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.kin
}

func (p *Player) CollisionRadius() float64 { return PlayerRadius }

func (p *Player) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Player) Health() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

func (p *Player) Energy() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.energy
}

func (p *Player) Kills() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.kills
}

// Defeated reports whether health or energy is exhausted. Both are read under
// one lock so the answer reflects a single committed state.
func (p *Player) Defeated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defeatedLocked()
}

func (p *Player) defeatedLocked() bool {
	return p.health <= 0 || p.energy <= 0
}

// Done is closed when the player is defeated.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

func (p *Player) markDoneLocked() {
	if p.defeatedLocked() {
		p.doneOnce.Do(func() { close(p.done) })
	}
}

// ApplyControl applies every present field of in. Absent fields keep their
// current value, and so do non-finite thrust or torque values.
func (p *Player) ApplyControl(in ControlInput) {
	if in.Empty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := controlValue(in.Thrust); ok {
		p.kin.Acceleration = v
	}
	if v, ok := controlValue(in.Torque); ok {
		p.kin.Alpha = v
	}
	if in.Name != nil {
		p.name = truncateName(*in.Name)
	}
	if in.MetalBullet != nil {
		p.fireMetal = *in.MetalBullet
	}
	if in.LaserBullet != nil {
		p.fireLaser = *in.LaserBullet
	}
}

// step runs the player phase for one tick: integrate, fire, and pay energy.
// It returns the projectiles fired this tick.
func (p *Player) step(dt float64) []*Projectile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.defeatedLocked() {
		return nil
	}

	p.kin = Integrate(p.kin, dt)

	var fired []*Projectile
	if p.fireMetal {
		fired = append(fired, NewProjectile(Metal, p.kin, p.ID))
	}
	if p.fireLaser {
		fired = append(fired, NewProjectile(Laser, p.kin, p.ID))
	}

	p.energy = math.Max(0, p.energy-(math.Abs(p.kin.Acceleration)+math.Abs(p.kin.Alpha)+IdleEnergyCost))
	p.markDoneLocked()
	return fired
}

// hitBy tests the projectile against the player and applies its damage, all
// under one write lock. It returns whether the projectile hit and whether the
// hit defeated the player.
func (p *Player) hitBy(proj *Projectile, selfDamage bool) (hit, defeated bool) {
	if !proj.Live() || (!selfDamage && proj.Origin == p.ID) {
		return false, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.defeatedLocked() {
		return false, false
	}
	if !Collides(bodyAt{p.kin, PlayerRadius}, proj) {
		return false, false
	}
	p.health = math.Max(0, p.health-proj.Damage())
	p.markDoneLocked()
	return true, p.defeatedLocked()
}

func (p *Player) addKill() {
	p.mu.Lock()
	p.kills++
	p.mu.Unlock()
}

// ToState converts to protocol state
func (p *Player) ToState() PlayerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PlayerState{
		Name:       p.name,
		Health:     p.health,
		Energy:     p.energy,
		Kinematics: p.kin.ToRecord(),
	}
}

// enqueueFeedback hands a frame to the feedback writer without blocking.
// It returns false when the agent is not keeping up.
func (p *Player) enqueueFeedback(frame []byte) bool {
	select {
	case p.feedback <- frame:
		return true
	default:
		return false
	}
}

// bodyAt is a fixed snapshot usable as a Body while a lock is held.
type bodyAt struct {
	k KinematicData
	r float64
}

func (b bodyAt) Kinematics() KinematicData { return b.k }
func (b bodyAt) CollisionRadius() float64  { return b.r }
