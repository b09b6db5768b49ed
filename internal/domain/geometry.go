package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// CircleRing approximates a circular obstacle as a closed regular polygon so
// that a single ring representation covers every mission shape.
func CircleRing(center orb.Point, radius float64, segments int) orb.Ring {
	if segments < 3 {
		segments = 16
	}
	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, orb.Point{
			center.X() + radius*math.Cos(theta),
			center.Y() + radius*math.Sin(theta),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// RectRing builds a closed ring for an axis-aligned rectangle.
func RectRing(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
		{minX, minY},
	}
}

// segmentDistance is the planar distance from point p to segment ab.
func segmentDistance(a, b, p orb.Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X()-a.X(), p.Y()-a.Y())
	}
	t := ((p.X()-a.X())*dx + (p.Y()-a.Y())*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	cx := a.X() + t*dx
	cy := a.Y() + t*dy
	return math.Hypot(p.X()-cx, p.Y()-cy)
}

// segmentsIntersect reports whether segments p1p2 and p3p4 cross, including
// collinear overlap.
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

// cross is the orientation cross product of (b-a) and (c-a).
func cross(a, b, c orb.Point) float64 {
	return (c.X()-a.X())*(b.Y()-a.Y()) - (b.X()-a.X())*(c.Y()-a.Y())
}

// onSegment checks whether collinear point q lies within the box of pr.
func onSegment(p, r, q orb.Point) bool {
	return q.X() <= math.Max(p.X(), r.X()) && q.X() >= math.Min(p.X(), r.X()) &&
		q.Y() <= math.Max(p.Y(), r.Y()) && q.Y() >= math.Min(p.Y(), r.Y())
}
