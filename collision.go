package main

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// Collides reports whether two bodies touch or overlap. It is symmetric.
func Collides(a, b Body) bool {
	ka, kb := a.Kinematics(), b.Kinematics()
	return CheckCollision(ka.Location.X, ka.Location.Y, a.CollisionRadius(),
		kb.Location.X, kb.Location.Y, b.CollisionRadius())
}
