package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

func TestDistance(t *testing.T) {
	got := Distance(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 3, Y: 4, Z: 12})
	if got != 13 {
		t.Errorf("Distance: want 13, got %v", got)
	}
	if d := Distance2D(r2.Point{X: 1, Y: 1}, r2.Point{X: 4, Y: 5}); d != 5 {
		t.Errorf("Distance2D: want 5, got %v", d)
	}
}

func TestSpeed(t *testing.T) {
	if s := Speed(r3.Vector{X: 0, Y: 250, Z: 0}); s != 250 {
		t.Errorf("Speed: want 250, got %v", s)
	}
}

func TestInBoxIncludesEdges(t *testing.T) {
	box := r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 10})
	cases := []struct {
		p    r2.Point
		want bool
	}{
		{r2.Point{X: 5, Y: 5}, true},
		{r2.Point{X: 0, Y: 10}, true},
		{r2.Point{X: 10.01, Y: 5}, false},
		{r2.Point{X: -1, Y: -1}, false},
	}
	for _, c := range cases {
		if got := InBox(box, c.p); got != c.want {
			t.Errorf("InBox(%v): want %v, got %v", c.p, c.want, got)
		}
	}
}

func TestStdDev(t *testing.T) {
	if sd := StdDev([]r2.Point{{X: 7, Y: 7}}); sd != 0 {
		t.Errorf("single point: want 0, got %v", sd)
	}
	pts := []r2.Point{{X: -1, Y: 0}, {X: 1, Y: 0}}
	if sd := StdDev(pts); math.Abs(sd-1) > 1e-9 {
		t.Errorf("symmetric pair: want 1, got %v", sd)
	}
}

func TestBoundsEmpty(t *testing.T) {
	if !Bounds(nil).IsEmpty() {
		t.Error("expected empty rect for no points")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(2, 0, 1) != 1 || Clamp(-2, 0, 1) != 0 || Clamp(0.3, 0, 1) != 0.3 {
		t.Error("Clamp out of range")
	}
}
