package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/charades/internal/codec"
	"github.com/Seednode/charades/internal/skeleton"
	"github.com/Seednode/charades/internal/transport"
)

type emitted struct {
	event string
	seq   uint64
	data  json.RawMessage
}

type recorder struct {
	sent []emitted
}

func (r *recorder) Emit(event string, seq uint64, data any) error {
	raw, err := transport.Raw(data)
	if err != nil {
		return err
	}
	r.sent = append(r.sent, emitted{event: event, seq: seq, data: raw})
	return nil
}

var testConfig = Config{
	PlayerID:   "alice",
	Center:     skeleton.Point{X: 100, Y: 100},
	LimbLength: 60,
}

func newSession(t *testing.T, dragger bool) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := New(testConfig, rec, nil)
	require.NoError(t, err)
	s.SetDragger(dragger)
	return s, rec
}

func position(t *testing.T, s *Session, id int) skeleton.Point {
	t.Helper()
	n, ok := s.Skeleton().Node(id)
	require.True(t, ok)
	return n.Position()
}

func TestNewRejectsBadLimbLength(t *testing.T) {
	cfg := testConfig
	cfg.LimbLength = 0
	_, err := New(cfg, nil, nil)
	assert.ErrorIs(t, err, skeleton.ErrInvalidGeometry)
}

func TestGuesserCannotEdit(t *testing.T) {
	s, rec := newSession(t, false)
	before := s.Skeleton()

	_, ok := s.OnPointerDown(position(t, s, skeleton.JointLeftHand))
	assert.False(t, ok)
	require.NoError(t, s.OnPointerDrag(skeleton.Point{X: 0, Y: 0}))

	got, err := s.ResetSkeleton()
	require.NoError(t, err)
	assert.Same(t, before, got)
	assert.Empty(t, rec.sent)
}

func TestDragBroadcastsPose(t *testing.T) {
	s, rec := newSession(t, true)

	n, ok := s.OnPointerDown(position(t, s, skeleton.JointLeftHand).Add(1, 1))
	require.True(t, ok)
	hand, _ := s.Skeleton().Joint(skeleton.JointLeftHand)
	assert.Same(t, hand, n)

	require.NoError(t, s.OnPointerDrag(skeleton.Point{X: 40, Y: 40}))
	require.NoError(t, s.OnPointerDrag(skeleton.Point{X: 45, Y: 40}))

	require.Len(t, rec.sent, 2)
	assert.Equal(t, transport.EventMoveEmit, rec.sent[0].event)
	assert.Equal(t, []uint64{1, 2}, []uint64{rec.sent[0].seq, rec.sent[1].seq})

	got, err := codec.Decode(rec.sent[1].data)
	require.NoError(t, err)
	assert.True(t, skeleton.Equal(s.Skeleton(), got, 0))

	s.OnPointerUp()
	assert.Nil(t, s.Selected())
	require.NoError(t, s.OnPointerDrag(skeleton.Point{}))
	assert.Len(t, rec.sent, 2, "no selection, no move")
}

func TestDragRootMovesWholeFigure(t *testing.T) {
	s, _ := newSession(t, true)

	n, ok := s.OnPointerDown(skeleton.Point{X: 101, Y: 99})
	require.True(t, ok)
	assert.Same(t, s.Skeleton(), n)

	require.NoError(t, s.OnPointerDrag(skeleton.Point{X: 200, Y: 150}))
	assert.Equal(t, skeleton.Point{X: 200, Y: 150}, s.Skeleton().Origin())
}

func TestResetIsIdempotent(t *testing.T) {
	s, rec := newSession(t, true)

	first, err := s.ResetSkeleton()
	require.NoError(t, err)
	second, err := s.ResetSkeleton()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Len(), second.Len())
	assert.True(t, skeleton.Equal(first, second, 0))
	assert.Len(t, rec.sent, 2)
}

func TestStartRoundSetsDrawer(t *testing.T) {
	s, rec := newSession(t, false)
	old := s.Skeleton()

	require.NoError(t, s.StartRound(transport.Round{Round: 2, Drawer: "alice"}))
	assert.True(t, s.Dragger())
	assert.Equal(t, 2, s.Round())
	assert.NotSame(t, old, s.Skeleton())
	assert.Empty(t, rec.sent, "round start is not broadcast")

	require.NoError(t, s.StartRound(transport.Round{Round: 3, Drawer: "bob"}))
	assert.False(t, s.Dragger())
}

func remoteMove(t *testing.T, from string, seq uint64, mutate func(*skeleton.Skeleton)) transport.Envelope {
	t.Helper()
	skel, err := skeleton.Generate(skeleton.Point{X: 100, Y: 100}, 60)
	require.NoError(t, err)
	if mutate != nil {
		mutate(skel)
	}
	data, err := codec.Encode(skel)
	require.NoError(t, err)
	return transport.Envelope{Event: transport.EventMoveReceive, From: from, Seq: seq, Data: data}
}

func TestApplyRemoteReplacesWholesale(t *testing.T) {
	s, _ := newSession(t, true)
	_, ok := s.OnPointerDown(skeleton.Point{X: 100, Y: 100})
	require.True(t, ok)
	old := s.Skeleton()

	env := remoteMove(t, "bob", 1, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{X: 7, Y: 8}) })
	require.NoError(t, s.ApplyRemote(env))

	assert.NotSame(t, old, s.Skeleton())
	assert.Equal(t, skeleton.Point{X: 7, Y: 8}, s.Skeleton().Origin())
	assert.Equal(t, skeleton.Point{X: 100, Y: 100}, old.Origin(), "old tree is not touched")
	assert.Nil(t, s.Selected(), "selection belonged to the replaced tree")
}

func TestApplyRemoteMalformedKeepsFigure(t *testing.T) {
	s, _ := newSession(t, false)
	held := s.Skeleton()
	before, err := codec.Encode(held)
	require.NoError(t, err)

	env := transport.Envelope{
		Event: transport.EventMoveReceive,
		From:  "bob",
		Seq:   1,
		Data:  json.RawMessage(`{"origin":{"x":1,"y":1},"nodes":[{"id":0,"parentId":null},{"id":1,"parentId":5,"length":1,"angle":0,"shape":"line"}]}`),
	}
	err = s.ApplyRemote(env)
	require.ErrorIs(t, err, codec.ErrMalformedPayload)

	assert.Same(t, held, s.Skeleton())
	after, err := codec.Encode(s.Skeleton())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, s.ApplyRemote(remoteMove(t, "bob", 1, nil)), "a failed seq is not recorded")
}

func TestApplyRemoteOrdering(t *testing.T) {
	s, _ := newSession(t, false)

	newer := remoteMove(t, "bob", 5, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{X: 5}) })
	older := remoteMove(t, "bob", 4, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{X: 4}) })
	other := remoteMove(t, "carol", 1, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{X: 1}) })
	unsequenced := remoteMove(t, "dave", 0, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{X: 0.5}) })

	require.NoError(t, s.ApplyRemote(newer))
	assert.ErrorIs(t, s.ApplyRemote(older), ErrStaleUpdate)
	assert.ErrorIs(t, s.ApplyRemote(newer), ErrStaleUpdate, "duplicate delivery")
	assert.Equal(t, 5.0, s.Skeleton().Origin().X)

	require.NoError(t, s.ApplyRemote(other), "senders are tracked separately")
	require.NoError(t, s.ApplyRemote(unsequenced))
	assert.Equal(t, 0.5, s.Skeleton().Origin().X)

	require.NoError(t, s.StartRound(transport.Round{Round: 2, Drawer: "bob"}))
	require.NoError(t, s.ApplyRemote(older), "a new round forgets old sequences")
}

func TestApplyRemoteIgnoresOwnEcho(t *testing.T) {
	s, _ := newSession(t, true)
	held := s.Skeleton()

	require.NoError(t, s.ApplyRemote(remoteMove(t, "alice", 1, func(k *skeleton.Skeleton) { k.MoveTo(skeleton.Point{}) })))
	assert.Same(t, held, s.Skeleton())
}
