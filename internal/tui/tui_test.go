package tui

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/charades/internal/codec"
	"github.com/Seednode/charades/internal/session"
	"github.com/Seednode/charades/internal/skeleton"
	"github.com/Seednode/charades/internal/transport"
)

var center = skeleton.Point{X: 100, Y: 100}

func simScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(cols, rows)
	return screen
}

func runeAt(screen tcell.Screen, col, row int) rune {
	r, _, _, _ := screen.GetContent(col, row)
	return r
}

func newLoop(t *testing.T, dragger bool) (*session.Loop, *session.Session) {
	t.Helper()
	s, err := session.New(session.Config{PlayerID: "alice", Center: center, LimbLength: 60}, nil, nil)
	require.NoError(t, err)
	s.SetDragger(dragger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return session.NewLoop(ctx, s, nil, session.Hooks{}), s
}

func view(t *testing.T, l *session.Loop) session.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, ok := l.View(ctx)
	require.True(t, ok)
	return v
}

func TestViewportRoundTrip(t *testing.T) {
	v := Fit(80, 23, center, 300)

	col, row := v.ToCell(center.Add(1, 1))
	assert.Equal(t, 40, col)
	assert.Equal(t, 11, row)

	for _, cell := range [][2]int{{0, 0}, {79, 22}, {13, 7}} {
		c, r := v.ToCell(v.ToCanvas(cell[0], cell[1]))
		assert.Equal(t, cell, [2]int{c, r})
	}

	assert.True(t, v.Contains(0, 0))
	assert.False(t, v.Contains(80, 0))
	assert.False(t, v.Contains(0, -1))
}

func TestViewportKeepsAspect(t *testing.T) {
	wide := Fit(200, 20, center, 300)
	assert.InDelta(t, 300.0/40, wide.Scale, 1e-9, "limited by height")

	tall := Fit(20, 200, center, 300)
	assert.InDelta(t, 300.0/20, tall.Scale, 1e-9, "limited by width")
}

func TestSlopeRune(t *testing.T) {
	cases := []struct {
		dc, dr int
		want   rune
	}{
		{10, 0, '-'},
		{0, 10, '|'},
		{5, 5, '\\'},
		{-5, -5, '\\'},
		{5, -5, '/'},
		{-5, 5, '/'},
		{0, 0, '+'},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, slopeRune(tc.dc, tc.dr), "dc=%d dr=%d", tc.dc, tc.dr)
	}
}

func TestRasterizeFigure(t *testing.T) {
	screen := simScreen(t, 80, 24)
	skel, err := skeleton.Generate(center, 60)
	require.NoError(t, err)

	vp := Fit(80, 23, center, 300)
	var ins []skeleton.Instruction
	for in := range skeleton.Render(skel) {
		ins = append(ins, in)
	}
	Rasterize(screen, vp, DefaultTheme, ins)

	col, row := vp.ToCell(center)
	assert.Equal(t, runeRoot, runeAt(screen, col, row))

	hand, _ := skel.Node(skeleton.JointLeftHand)
	col, row = vp.ToCell(hand.Position())
	assert.Equal(t, runeJoint, runeAt(screen, col, row))

	neck, _ := skel.Node(skeleton.JointTorso)
	nc, nr := vp.ToCell(neck.Position())
	rc, rr := vp.ToCell(center)
	require.Equal(t, rc, nc)
	assert.Equal(t, '|', runeAt(screen, rc, (nr+rr)/2), "torso is vertical")
}

func TestRasterizeClips(t *testing.T) {
	screen := simScreen(t, 10, 5)
	vp := Fit(10, 5, center, 10)

	Rasterize(screen, vp, DefaultTheme, []skeleton.Instruction{
		{Op: skeleton.OpLine, From: skeleton.Point{X: -1000, Y: -1000}, To: skeleton.Point{X: 1000, Y: 1000}},
		{Op: skeleton.OpCircle, Center: center, Diameter: 1000},
	})
}

func TestRasterizeFarRemotePose(t *testing.T) {
	for name, payload := range map[string]string{
		"long limb": `{"origin":{"x":100,"y":100},"nodes":[
			{"id":0,"parentId":null},
			{"id":1,"parentId":0,"length":1e12,"angle":1.5707963267948966,"shape":"line"},
			{"id":2,"parentId":1,"length":1e12,"angle":0,"shape":"circle"}
		]}`,
		"far origin": `{"origin":{"x":1e300,"y":-1e300},"nodes":[
			{"id":0,"parentId":null},
			{"id":1,"parentId":0,"length":1e300,"angle":2,"shape":"line"},
			{"id":2,"parentId":0,"length":1e12,"angle":0,"shape":"circle"}
		]}`,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := codec.Decode([]byte(payload))
			require.NoError(t, err)

			screen := simScreen(t, 80, 24)
			vp := Fit(80, 24, center, 300)

			done := make(chan struct{})
			go func() {
				defer close(done)
				Rasterize(screen, vp, DefaultTheme, slices.Collect(skeleton.Render(s)))
			}()

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("Rasterize did not return")
			}
		})
	}
}

func TestRasterizeClipsLongLimb(t *testing.T) {
	screen := simScreen(t, 80, 24)
	vp := Fit(80, 24, center, 300)

	Rasterize(screen, vp, DefaultTheme, []skeleton.Instruction{
		{Op: skeleton.OpLine, From: center, To: center.Add(1e12, 0)},
	})

	col, row := vp.ToCell(center.Add(1, 1))
	assert.Equal(t, '-', runeAt(screen, col+5, row))
	assert.Equal(t, '-', runeAt(screen, 79, row))
}

func TestViewerMouseDrag(t *testing.T) {
	screen := simScreen(t, 80, 24)
	loop, _ := newLoop(t, true)
	v := New(screen, loop, Options{Center: center, LimbLength: 60}, nil)

	hand := view(t, loop).Instructions[2*skeleton.JointLeftHand].At
	col, row := v.Viewport().ToCell(hand)

	require.True(t, v.Handle(tcell.NewEventMouse(col, row, tcell.Button1, tcell.ModNone)))
	assert.True(t, view(t, loop).Grabbing)

	require.True(t, v.Handle(tcell.NewEventMouse(col-5, row-3, tcell.Button1, tcell.ModNone)))
	moved := view(t, loop).Instructions[2*skeleton.JointLeftHand].At
	assert.NotEqual(t, hand, moved)

	require.True(t, v.Handle(tcell.NewEventMouse(col-5, row-3, tcell.ButtonNone, tcell.ModNone)))
	assert.False(t, view(t, loop).Grabbing)
}

func TestViewerKeys(t *testing.T) {
	screen := simScreen(t, 80, 24)
	loop, _ := newLoop(t, true)

	starts := 0
	v := New(screen, loop, Options{
		Center:     center,
		LimbLength: 60,
		StartRound: func() error { starts++; return nil },
	}, nil)

	v.Handle(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	assert.Zero(t, starts, "not the moderator yet")

	loop.Post(session.Welcomed{Welcome: transport.Welcome{PlayerID: "alice", IsModerator: true}})
	v.Draw(view(t, loop))
	v.Handle(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	assert.Equal(t, 1, starts)

	assert.True(t, v.Handle(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)))
	assert.False(t, v.Handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, v.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestViewerDrawStatus(t *testing.T) {
	screen := simScreen(t, 80, 24)
	loop, _ := newLoop(t, false)
	v := New(screen, loop, Options{Center: center, LimbLength: 60}, nil)

	view := view(t, loop)
	view.Round = 3
	view.Users = []transport.User{{PlayerID: "bob", Username: "Bob", IsDrawer: true}}
	view.Notice = "name taken"
	v.Draw(view)

	status := Status(view)
	assert.Equal(t, "round 3 | Bob is drawing | 1 players | q quit", status)
	for i, r := range status {
		require.Equal(t, r, runeAt(screen, i, 23))
	}
	assert.Equal(t, 'n', runeAt(screen, 0, 0))
}

func TestStatusRoles(t *testing.T) {
	assert.Equal(t, "waiting for the first round | q quit", Status(session.View{}))
	assert.Equal(t, "round 1 | you are drawing | r reset  s start round  q quit",
		Status(session.View{Round: 1, Dragger: true, Moderator: true}))
}

func TestSilentSound(t *testing.T) {
	var nilSound *Sound
	nilSound.Grab()
	nilSound.Close()

	s := NewSound(false, nil)
	s.Grab()
	s.Round()
	s.Close()
}
