package main

import "gonum.org/v1/gonum/spatial/r2"

const (
	MetalMuzzle = 4.0  // spawn distance ahead of the ship, added to its speed
	LaserMuzzle = 16.0
	MetalRadius = 2.0
	LaserRadius = 1.0
	MetalDamage = 8.0
	LaserDamage = 1.0
)

// ProjectileKind distinguishes live rounds from resolved ones
type ProjectileKind int

const (
	Metal ProjectileKind = iota
	Laser
	// Deactivated projectiles already hit something; they never collide again
	// and are pruned at the end of the projectile phase.
	Deactivated
)

func (k ProjectileKind) String() string {
	switch k {
	case Metal:
		return "metal"
	case Laser:
		return "laser"
	default:
		return "deactivated"
	}
}

// Projectile is owned by the tick loop. Origin names the firing player for
// attribution only.
type Projectile struct {
	Kin    KinematicData
	Kind   ProjectileKind
	Origin PlayerID
	Age    float64 // seconds since launch
}

// NewProjectile launches a round from a ship. The muzzle vector points along
// the ship's heading with length speed+offset; it is added to both the
// position and the inherited velocity.
func NewProjectile(kind ProjectileKind, owner KinematicData, origin PlayerID) *Projectile {
	offset := MetalMuzzle
	if kind == Laser {
		offset = LaserMuzzle
	}
	muzzle := Heading(owner.Theta, owner.Speed()+offset)
	return &Projectile{
		Kin: KinematicData{
			Location: r2.Add(owner.Location, muzzle),
			Velocity: r2.Add(owner.Velocity, muzzle),
			Theta:    owner.Theta,
			Omega:    owner.Omega,
		},
		Kind:   kind,
		Origin: origin,
	}
}

func (p *Projectile) Kinematics() KinematicData { return p.Kin }

func (p *Projectile) CollisionRadius() float64 {
	switch p.Kind {
	case Metal:
		return MetalRadius
	case Laser:
		return LaserRadius
	default:
		return 0
	}
}

// Damage is the health removed from every player the projectile hits.
func (p *Projectile) Damage() float64 {
	switch p.Kind {
	case Metal:
		return MetalDamage
	case Laser:
		return LaserDamage
	default:
		return 0
	}
}

// Live reports whether the projectile can still collide.
func (p *Projectile) Live() bool {
	return p.Kind != Deactivated
}

// Update moves the projectile one tick
func (p *Projectile) Update(dt float64) {
	if !p.Live() {
		return
	}
	p.Kin = Integrate(p.Kin, dt)
	p.Age += dt
}

// Deactivate marks the projectile as resolved.
func (p *Projectile) Deactivate() {
	p.Kind = Deactivated
}
