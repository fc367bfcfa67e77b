package main

// Observer encodings
const (
	EncJSON    = "json"    // text frames
	EncMsgpack = "msgpack" // binary frames
)

// ControlInput is one decoded frame from an agent. Every field is optional;
// a nil field leaves the current control value in effect.
type ControlInput struct {
	Name        *string  `json:"name,omitempty"`
	Thrust      *float64 `json:"thrust,omitempty"`
	Torque      *float64 `json:"torque,omitempty"`
	MetalBullet *bool    `json:"metal_bullet,omitempty"`
	LaserBullet *bool    `json:"laser_bullet,omitempty"`
}

// Empty reports whether no field is set.
func (c ControlInput) Empty() bool {
	return c.Name == nil && c.Thrust == nil && c.Torque == nil &&
		c.MetalBullet == nil && c.LaserBullet == nil
}

// Point is a 2D point or vector on the wire
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// KinematicsRecord is KinematicData on the wire
type KinematicsRecord struct {
	Location     Point   `json:"location" msgpack:"location"`
	Velocity     Point   `json:"velocity" msgpack:"velocity"`
	Acceleration float64 `json:"acceleration" msgpack:"acceleration"`
	Theta        float64 `json:"theta" msgpack:"theta"`
	Omega        float64 `json:"omega" msgpack:"omega"`
	Alpha        float64 `json:"alpha" msgpack:"alpha"`
}

// PlayerState is one entry of the public snapshot pushed to observers
type PlayerState struct {
	Name       string           `json:"name" msgpack:"name"`
	Health     float64          `json:"health" msgpack:"health"`
	Energy     float64          `json:"energy" msgpack:"energy"`
	Kinematics KinematicsRecord `json:"kinematics" msgpack:"kinematics"`
}

// SpawnRequest asks the control plane to start an agent
type SpawnRequest struct {
	Agent string `json:"agent"`
}

// SpawnResponse carries the new player's ID
type SpawnResponse struct {
	ID PlayerID `json:"id"`
}

// AuthRequest exchanges the operator password for a token
type AuthRequest struct {
	Password string `json:"password"`
}

// AuthResponse carries a signed control-plane token
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorMsg is the body of a failed control-plane request
type ErrorMsg struct {
	Msg string `json:"msg"`
}
