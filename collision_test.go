package main

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestCheckCollision(t *testing.T) {
	// Overlapping circles
	if !CheckCollision(0, 0, 10, 15, 0, 10) {
		t.Error("circles should collide (overlapping)")
	}

	// Touching circles
	if !CheckCollision(0, 0, 10, 20, 0, 10) {
		t.Error("circles should collide (touching)")
	}

	// Non-overlapping circles
	if CheckCollision(0, 0, 10, 25, 0, 10) {
		t.Error("circles should not collide")
	}

	// Same position
	if !CheckCollision(5, 5, 1, 5, 5, 1) {
		t.Error("same position should collide")
	}
}

func TestCollidesSymmetric(t *testing.T) {
	cases := []struct {
		a, b bodyAt
		want bool
	}{
		{bodyAt{KinematicData{Location: r2.Vec{X: 0, Y: 0}}, PlayerRadius}, bodyAt{KinematicData{Location: r2.Vec{X: 18, Y: 0}}, MetalRadius}, true},
		{bodyAt{KinematicData{Location: r2.Vec{X: 0, Y: 0}}, PlayerRadius}, bodyAt{KinematicData{Location: r2.Vec{X: 18.5, Y: 0}}, MetalRadius}, false},
		{bodyAt{KinematicData{Location: r2.Vec{X: -3, Y: 4}}, LaserRadius}, bodyAt{KinematicData{Location: r2.Vec{X: 0, Y: 0}}, 4}, true},
	}
	for i, c := range cases {
		if got := Collides(c.a, c.b); got != c.want {
			t.Errorf("case %d: Collides(a, b) = %v, want %v", i, got, c.want)
		}
		if Collides(c.a, c.b) != Collides(c.b, c.a) {
			t.Errorf("case %d: not symmetric", i)
		}
	}
}

func TestCollidesWithSelf(t *testing.T) {
	p := newTestPlayer(1, "solo", 123, -45)
	if !Collides(p, p) {
		t.Error("a body should always collide with itself")
	}
}
