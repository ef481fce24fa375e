package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestRectCenter(t *testing.T) {
	c := RectCenter(NewRect(100, 100, 200, 50))
	if c.X != 200 || c.Y != 125 {
		t.Errorf("expected (200,125), got (%v,%v)", c.X, c.Y)
	}
}

func TestBorderAnchor_RightEdgeMidpoint(t *testing.T) {
	first := NewRect(100, 100, 200, 200)
	second := NewRect(500, 100, 200, 200)

	p, ok := BorderAnchor(first, RectCenter(second))
	if !ok {
		t.Fatal("expected a valid anchor")
	}
	if !scalar.EqualWithinAbs(p.X, 300, 1e-9) || !scalar.EqualWithinAbs(p.Y, 200, 1e-9) {
		t.Errorf("expected (300,200), got (%v,%v)", p.X, p.Y)
	}
}

func TestBorderAnchor_Sides(t *testing.T) {
	r := NewRect(0, 0, 100, 100)
	tests := []struct {
		name    string
		towards Point2D
		want    Point2D
	}{
		{"left", NewPoint2D(-500, 50), NewPoint2D(0, 50)},
		{"top", NewPoint2D(50, -10), NewPoint2D(50, 0)},
		{"bottom", NewPoint2D(50, 900), NewPoint2D(50, 100)},
		{"corner", NewPoint2D(200, 200), NewPoint2D(100, 100)},
		{"inside", NewPoint2D(75, 50), NewPoint2D(100, 50)},
		{"shallow", NewPoint2D(1000, 145), NewPoint2D(100, 55)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BorderAnchor(r, tt.towards)
			if !ok {
				t.Fatal("expected a valid anchor")
			}
			if !scalar.EqualWithinAbs(got.X, tt.want.X, 1e-9) || !scalar.EqualWithinAbs(got.Y, tt.want.Y, 1e-9) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBorderAnchor_DegenerateFallsBackToTopCenter(t *testing.T) {
	r := NewRect(10, 20, 100, 60)
	got, ok := BorderAnchor(r, r.Center())
	if ok {
		t.Error("expected fallback for coincident centers")
	}
	if got != NewPoint2D(60, 20) {
		t.Errorf("expected top-center (60,20), got %+v", got)
	}

	got, ok = BorderAnchor(r, NewPoint2D(math.NaN(), 5))
	if ok || got != r.TopCenter() {
		t.Errorf("expected top-center fallback for NaN target, got %+v ok=%v", got, ok)
	}
}

func TestBorderAnchor_AlwaysOnPerimeter(t *testing.T) {
	rects := []Rect{
		NewRect(0, 0, 100, 100),
		NewRect(-250, 40, 30, 400),
		NewRect(1000, 1000, 500, 1),
	}
	for _, r := range rects {
		c := r.Center()
		for deg := 0; deg < 360; deg += 7 {
			a := float64(deg) * math.Pi / 180
			towards := NewPoint2D(c.X+1000*math.Cos(a), c.Y+1000*math.Sin(a))
			p, ok := BorderAnchor(r, towards)
			if !ok {
				t.Fatalf("rect %+v angle %d: unexpected fallback", r, deg)
			}
			if !OnPerimeter(r, p, 1e-6) {
				t.Errorf("rect %+v angle %d: anchor %+v not on perimeter", r, deg, p)
			}
			// The anchor must lie forward along the ray.
			d := towards.Sub(c)
			v := p.Sub(c)
			if d.X*v.X+d.Y*v.Y <= 0 {
				t.Errorf("rect %+v angle %d: anchor %+v behind the center", r, deg, p)
			}
		}
	}
}

func TestConnector(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(0, 300, 100, 100)
	from, to := Connector(a, b)
	if from.Distance(NewPoint2D(50, 100)) > 1e-9 {
		t.Errorf("expected from (50,100), got %+v", from)
	}
	if to.Distance(NewPoint2D(50, 300)) > 1e-9 {
		t.Errorf("expected to (50,300), got %+v", to)
	}
}

func TestArrowhead(t *testing.T) {
	l, r := Arrowhead(NewPoint2D(0, 0), NewPoint2D(100, 0), 10)
	if l.X >= 100 || r.X >= 100 {
		t.Errorf("barbs should trail the tip, got %+v %+v", l, r)
	}
	if !scalar.EqualWithinAbs(l.Y, -r.Y, 1e-9) {
		t.Errorf("barbs should be symmetric, got %+v %+v", l, r)
	}

	l, r = Arrowhead(NewPoint2D(5, 5), NewPoint2D(5, 5), 10)
	if l != NewPoint2D(5, 5) || r != NewPoint2D(5, 5) {
		t.Errorf("degenerate arrow should collapse to the tip, got %+v %+v", l, r)
	}
}
