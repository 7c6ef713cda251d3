package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cross builds a root at the origin with two mirrored two-segment branches:
// (10,0)->(10,10) and (-10,0)->(-10,10). With leftFirst the left branch is
// declared first.
func cross(t *testing.T, leftFirst bool) (s *Skeleton, right, left *Joint) {
	t.Helper()

	s, err := New(Point{})
	require.NoError(t, err)

	branch := func(angle float64) *Joint {
		upper, err := s.Attach(10, angle, Line)
		require.NoError(t, err)
		lower, err := upper.Attach(10, 0, Line)
		require.NoError(t, err)
		return lower
	}

	if leftFirst {
		left = branch(-math.Pi / 2)
		right = branch(math.Pi / 2)
	} else {
		right = branch(math.Pi / 2)
		left = branch(-math.Pi / 2)
	}

	return s, right, left
}

func TestNearestPicksClosestNode(t *testing.T) {
	s, right, left := cross(t, false)
	upperRight := right.Parent()

	cases := []struct {
		name  string
		point Point
		want  Node
	}{
		{name: "root", point: Point{X: 1, Y: -1}, want: s},
		{name: "upper right", point: Point{X: 11, Y: 1}, want: upperRight},
		{name: "lower right", point: Point{X: 9, Y: 12}, want: right},
		{name: "lower left", point: Point{X: -30, Y: 30}, want: left},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Nearest(s, tc.point)
			require.NoError(t, err)
			assert.Same(t, tc.want, got)
		})
	}
}

func TestNearestTieGoesToFirstVisited(t *testing.T) {
	// (0,20) is exactly 200 away from both lower joints.
	target := Point{X: 0, Y: 20}

	s, right, left := cross(t, false)
	require.Equal(t, right.SquaredDistanceTo(target), left.SquaredDistanceTo(target))
	got, err := Nearest(s, target)
	require.NoError(t, err)
	assert.Same(t, right, got)

	s, right, left = cross(t, true)
	got, err = Nearest(s, target)
	require.NoError(t, err)
	assert.Same(t, left, got)
	assert.NotSame(t, right, got)
}

func TestNearestTieWithRootGoesToRoot(t *testing.T) {
	// (0,10) is 100 away from the root and from both lower joints.
	s, _, _ := cross(t, false)

	got, err := Nearest(s, Point{X: 0, Y: 10})
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestNearestOnBareRoot(t *testing.T) {
	s, err := New(Point{X: 5, Y: 5})
	require.NoError(t, err)

	got, err := Nearest(s, Point{X: 500, Y: -500})
	require.NoError(t, err)
	assert.Same(t, s, got)
}
