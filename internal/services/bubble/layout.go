// Package bubble arranges score scatter points so that close bubbles stay readable.
//
// Points never merge and X never changes. When two bubbles collide the upper one,
// together with every point at or above it, is pushed up, so the absolute Y values
// lose their meaning but the vertical order of the points is kept.
package bubble

import (
	"math"
	"slices"

	"github.com/vshulcz/enginestats/internal/domain"
)

// Collision band and shift size are expressed in steps.
const (
	nearX      = 4
	bandSteps  = 2
	shiftSteps = 3
)

// Step returns the vertical unit of the layout: max(Y)/400*20, or 1 when no point is positive.
func Step(points []domain.BubblePoint) float64 {
	var top float64
	for _, p := range points {
		top = max(top, p.Y)
	}
	if top > 0 {
		return top / 400 * 20
	}
	return 1
}

// Collides reports whether s sits on or just above stat and close to it on X.
func Collides(s, stat domain.BubblePoint, step float64) bool {
	dy := s.Y - stat.Y
	return math.Abs(s.X-stat.X) < nearX && dy >= 0 && dy < step*bandSteps
}

// Layout returns a copy of points with colliding bubbles moved apart.
func Layout(points []domain.BubblePoint) []domain.BubblePoint {
	out, _ := layout(points)
	return out
}

// layout also reports how many shifts were applied.
func layout(points []domain.BubblePoint) ([]domain.BubblePoint, int) {
	out := slices.Clone(points)
	step := Step(out)
	shifts := 0
	for i := range out {
		// at most len(out) rounds per point, so dense clusters cannot loop forever
		for range len(out) {
			j := firstCollision(out, i, step)
			if j < 0 {
				break
			}
			moved := above(out, out[j].Y, i)
			for _, k := range moved {
				out[k].Y += step * shiftSteps
			}
			shifts++
		}
	}
	return out, shifts
}

func firstCollision(points []domain.BubblePoint, stat int, step float64) int {
	for j := range points {
		if j != stat && Collides(points[j], points[stat], step) {
			return j
		}
	}
	return -1
}

// above lists the indexes of every point except skip with Y >= threshold.
func above(points []domain.BubblePoint, threshold float64, skip int) []int {
	var idx []int
	for k := range points {
		if k != skip && points[k].Y >= threshold {
			idx = append(idx, k)
		}
	}
	return idx
}
