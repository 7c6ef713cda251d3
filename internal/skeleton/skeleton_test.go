package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func mustGenerate(t *testing.T, center Point, length float64) *Skeleton {
	t.Helper()
	s, err := Generate(center, length)
	require.NoError(t, err)
	return s
}

func joints(s *Skeleton) []*Joint {
	var out []*Joint
	for n := range s.Nodes() {
		if j, ok := n.(*Joint); ok {
			out = append(out, j)
		}
	}
	return out
}

func requirePositionInvariant(t *testing.T, s *Skeleton) {
	t.Helper()
	for i, j := range joints(s) {
		p := j.Parent()
		assert.InDelta(t, p.X()+j.Length()*math.Sin(j.Angle()), j.X(), tolerance, "joint %d x", i+1)
		assert.InDelta(t, p.Y()+j.Length()*math.Cos(j.Angle()), j.Y(), tolerance, "joint %d y", i+1)
		assert.Equal(t, Point{X: j.X(), Y: j.Y()}, j.Position(), "joint %d position", i+1)
	}
}

func TestAttachRejectsInvalidGeometry(t *testing.T) {
	cases := []struct {
		name   string
		length float64
		angle  float64
		shape  Shape
	}{
		{name: "zero length", length: 0},
		{name: "negative length", length: -3},
		{name: "NaN length", length: math.NaN()},
		{name: "infinite length", length: math.Inf(1)},
		{name: "infinite angle", length: 1, angle: math.Inf(-1)},
		{name: "unknown shape", length: 1, shape: Shape(7)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(Point{})
			require.NoError(t, err)

			j, err := s.Attach(tc.length, tc.angle, tc.shape)
			require.ErrorIs(t, err, ErrInvalidGeometry)
			assert.Nil(t, j)
			assert.Empty(t, s.Limbs(), "failed attach must not leave a limb behind")
		})
	}
}

func TestNewRejectsNonFiniteOrigin(t *testing.T) {
	_, err := New(Point{X: math.NaN()})
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestPositionInvariantHoldsAfterMutation(t *testing.T) {
	s := mustGenerate(t, Point{X: 100, Y: 100}, 60)
	requirePositionInvariant(t, s)

	torso, ok := s.Joint(JointTorso)
	require.True(t, ok)
	torso.SetAngle(2.5)
	requirePositionInvariant(t, s)

	s.MoveTo(Point{X: -40, Y: 12.5})
	requirePositionInvariant(t, s)
}

func TestSetAngleMovesDescendantsWithoutTouchingThem(t *testing.T) {
	s := mustGenerate(t, Point{X: 0, Y: 0}, 10)

	upper, _ := s.Joint(JointLeftUpperArm)
	hand, _ := s.Joint(JointLeftHand)
	before := hand.Position()
	handAngle := hand.Angle()

	upper.SetAngle(upper.Angle() + math.Pi/2)

	assert.Equal(t, handAngle, hand.Angle())
	assert.NotEqual(t, before, hand.Position())
	requirePositionInvariant(t, s)
}

func TestTranslationInvariance(t *testing.T) {
	s := mustGenerate(t, Point{X: 100, Y: 100}, 60)

	type state struct {
		pos           Point
		angle, length float64
	}
	before := make([]state, 0, StickmanJoints)
	for _, j := range joints(s) {
		before = append(before, state{j.Position(), j.Angle(), j.Length()})
	}

	const dx, dy = 17.25, -42.5
	s.MoveTo(s.Origin().Add(dx, dy))

	for i, j := range joints(s) {
		assert.InDelta(t, before[i].pos.X+dx, j.X(), tolerance)
		assert.InDelta(t, before[i].pos.Y+dy, j.Y(), tolerance)
		assert.Equal(t, before[i].angle, j.Angle())
		assert.Equal(t, before[i].length, j.Length())
	}
}

func TestNodeLookup(t *testing.T) {
	s := mustGenerate(t, Point{}, 10)

	root, ok := s.Node(JointRoot)
	require.True(t, ok)
	assert.Same(t, s, root)

	_, ok = s.Joint(JointRoot)
	assert.False(t, ok, "root is not a joint")

	_, ok = s.Node(StickmanJoints)
	assert.False(t, ok)
	_, ok = s.Node(-1)
	assert.False(t, ok)

	assert.Equal(t, StickmanJoints, s.Len())
}

func TestEqual(t *testing.T) {
	a := mustGenerate(t, Point{X: 1, Y: 2}, 30)
	b := mustGenerate(t, Point{X: 1, Y: 2}, 30)
	assert.True(t, Equal(a, b, 0))

	hand, _ := b.Joint(JointRightHand)
	hand.SetAngle(hand.Angle() + 1e-12)
	assert.True(t, Equal(a, b, tolerance))
	assert.False(t, Equal(a, b, 0))

	b.MoveTo(Point{X: 1, Y: 2.0000001})
	assert.False(t, Equal(a, b, tolerance))

	assert.True(t, Equal(nil, nil, 0))
	assert.False(t, Equal(a, nil, 0))
}
