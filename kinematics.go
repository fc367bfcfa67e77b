package main

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// KinematicData is the physical state shared by every body in the arena.
// Acceleration is a magnitude along Theta; a ship cannot accelerate sideways.
type KinematicData struct {
	Location     r2.Vec
	Velocity     r2.Vec
	Acceleration float64
	Theta        float64 // heading, radians
	Omega        float64 // angular velocity, rad/s
	Alpha        float64 // angular acceleration, also drives energy cost
}

// Body is anything that has kinematics and a collision radius.
type Body interface {
	Kinematics() KinematicData
	CollisionRadius() float64
}

// Heading returns the unit vector for angle theta scaled to length.
func Heading(theta, length float64) r2.Vec {
	return r2.Vec{X: math.Cos(theta) * length, Y: math.Sin(theta) * length}
}

// Integrate advances k by dt seconds. Each step consumes the value produced by
// the step before it: omega, then theta, then velocity, then location.
func Integrate(k KinematicData, dt float64) KinematicData {
	k.Omega += k.Alpha * dt
	k.Theta += k.Omega * dt
	k.Velocity = r2.Add(k.Velocity, r2.Scale(dt, Heading(k.Theta, k.Acceleration)))
	k.Location = r2.Add(k.Location, r2.Scale(dt, k.Velocity))
	return k
}

// Speed returns the magnitude of the velocity.
func (k KinematicData) Speed() float64 {
	return r2.Norm(k.Velocity)
}

// DistanceTo returns the distance between the two locations.
func (k KinematicData) DistanceTo(o KinematicData) float64 {
	return r2.Norm(r2.Sub(k.Location, o.Location))
}

// ToRecord converts to the wire representation.
func (k KinematicData) ToRecord() KinematicsRecord {
	return KinematicsRecord{
		Location:     Point{X: k.Location.X, Y: k.Location.Y},
		Velocity:     Point{X: k.Velocity.X, Y: k.Velocity.Y},
		Acceleration: k.Acceleration,
		Theta:        k.Theta,
		Omega:        k.Omega,
		Alpha:        k.Alpha,
	}
}
