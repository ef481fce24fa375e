package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// RectCenter returns the center of rect.
func RectCenter(rect Rect) Point2D {
	return rect.Center()
}

// BorderAnchor returns the point where the ray from the center of rect towards
// the given point leaves the rectangle's perimeter.
//
// When towards coincides with the center, or no side yields an exit point, the
// top-center of rect is returned and ok is false.
func BorderAnchor(rect Rect, towards Point2D) (anchor Point2D, ok bool) {
	c := rect.Center().vec()
	d := r2.Sub(towards.vec(), c)
	if math.Abs(d.X) < Epsilon && math.Abs(d.Y) < Epsilon {
		return rect.TopCenter(), false
	}
	if !towards.IsFinite() {
		return rect.TopCenter(), false
	}

	best := math.Inf(1)
	consider := func(t, along, lo, hi float64) {
		if t <= 0 || t >= best {
			return
		}
		if along < lo-Epsilon || along > hi+Epsilon {
			return
		}
		best = t
	}

	left, right := rect.X, rect.X+rect.Width
	top, bottom := rect.Y, rect.Y+rect.Height

	if math.Abs(d.X) >= Epsilon {
		for _, x := range [2]float64{left, right} {
			t := (x - c.X) / d.X
			consider(t, c.Y+t*d.Y, top, bottom)
		}
	}
	if math.Abs(d.Y) >= Epsilon {
		for _, y := range [2]float64{top, bottom} {
			t := (y - c.Y) / d.Y
			consider(t, c.X+t*d.X, left, right)
		}
	}

	if math.IsInf(best, 1) {
		return rect.TopCenter(), false
	}
	return fromVec(r2.Add(c, r2.Scale(best, d))), true
}

// OnPerimeter reports whether p lies on one of the four edges of rect.
func OnPerimeter(rect Rect, p Point2D, tol float64) bool {
	left, right := rect.X, rect.X+rect.Width
	top, bottom := rect.Y, rect.Y+rect.Height
	withinX := p.X >= left-tol && p.X <= right+tol
	withinY := p.Y >= top-tol && p.Y <= bottom+tol
	onVertical := (scalar.EqualWithinAbs(p.X, left, tol) || scalar.EqualWithinAbs(p.X, right, tol)) && withinY
	onHorizontal := (scalar.EqualWithinAbs(p.Y, top, tol) || scalar.EqualWithinAbs(p.Y, bottom, tol)) && withinX
	return onVertical || onHorizontal
}

// Arrowhead returns the two barb points of an arrow pointing from "from" to
// "to", each size units long and spread 30 degrees off the shaft.
func Arrowhead(from, to Point2D, size float64) (left, right Point2D) {
	d := r2.Sub(to.vec(), from.vec())
	n := r2.Norm(d)
	if n < Epsilon {
		return to, to
	}
	angle := math.Atan2(d.Y, d.X)
	const spread = math.Pi / 6
	left = Point2D{
		X: to.X - size*math.Cos(angle-spread),
		Y: to.Y - size*math.Sin(angle-spread),
	}
	right = Point2D{
		X: to.X - size*math.Cos(angle+spread),
		Y: to.Y - size*math.Sin(angle+spread),
	}
	return left, right
}

// Connector returns the anchors for an arrow drawn from rect a to rect b, each
// anchor on the border of its rectangle facing the other rectangle's center.
func Connector(a, b Rect) (from, to Point2D) {
	from, _ = BorderAnchor(a, b.Center())
	to, _ = BorderAnchor(b, a.Center())
	return from, to
}
