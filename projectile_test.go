package main

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewProjectileMuzzle(t *testing.T) {
	owner := KinematicData{Location: r2.Vec{X: 10, Y: 10}}

	metal := NewProjectile(Metal, owner, 7)
	if metal.Kin.Location != (r2.Vec{X: 14, Y: 10}) {
		t.Errorf("metal location = %v, want (14, 10)", metal.Kin.Location)
	}
	if metal.Kin.Velocity != (r2.Vec{X: 4, Y: 0}) {
		t.Errorf("metal velocity = %v, want (4, 0)", metal.Kin.Velocity)
	}
	if metal.Origin != 7 {
		t.Errorf("origin = %d, want 7", metal.Origin)
	}

	laser := NewProjectile(Laser, owner, 7)
	if laser.Kind != Laser {
		t.Errorf("laser kind = %v", laser.Kind)
	}
	if laser.Kin.Location != (r2.Vec{X: 26, Y: 10}) {
		t.Errorf("laser location = %v, want (26, 10)", laser.Kin.Location)
	}
}

func TestNewProjectileInheritsMotion(t *testing.T) {
	owner := KinematicData{
		Velocity: r2.Vec{X: 0, Y: 3},
		Theta:    math.Pi / 2,
		Omega:    0.25,
	}
	p := NewProjectile(Metal, owner, 1)

	// muzzle length is speed + offset = 7, pointing along +Y
	if !near(p.Kin.Location.X, 0) || !near(p.Kin.Location.Y, 7) {
		t.Errorf("location = %v, want (0, 7)", p.Kin.Location)
	}
	if !near(p.Kin.Velocity.X, 0) || !near(p.Kin.Velocity.Y, 10) {
		t.Errorf("velocity = %v, want (0, 10)", p.Kin.Velocity)
	}
	if p.Kin.Theta != owner.Theta || p.Kin.Omega != owner.Omega {
		t.Error("projectile should inherit heading and spin")
	}
	if p.Kin.Acceleration != 0 || p.Kin.Alpha != 0 {
		t.Error("projectile should not be driven")
	}
}

func TestProjectileRadiusAndDamage(t *testing.T) {
	cases := []struct {
		kind           ProjectileKind
		radius, damage float64
	}{
		{Metal, 2, 8},
		{Laser, 1, 1},
		{Deactivated, 0, 0},
	}
	for _, c := range cases {
		p := &Projectile{Kind: c.kind}
		if p.CollisionRadius() != c.radius {
			t.Errorf("%v radius = %v, want %v", c.kind, p.CollisionRadius(), c.radius)
		}
		if p.Damage() != c.damage {
			t.Errorf("%v damage = %v, want %v", c.kind, p.Damage(), c.damage)
		}
	}
}

func TestProjectileUpdate(t *testing.T) {
	p := NewProjectile(Metal, KinematicData{}, 1)
	p.Update(1)
	if p.Kin.Location != (r2.Vec{X: 8, Y: 0}) {
		t.Errorf("location after one tick = %v, want (8, 0)", p.Kin.Location)
	}
	if p.Age != 1 {
		t.Errorf("age = %v, want 1", p.Age)
	}

	p.Deactivate()
	if p.Live() {
		t.Error("deactivated projectile should not be live")
	}
	p.Update(1)
	if p.Kin.Location != (r2.Vec{X: 8, Y: 0}) {
		t.Error("deactivated projectile should not move")
	}
}
