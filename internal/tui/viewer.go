/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tui draws the stickman in a terminal and turns mouse and key input
// into session messages.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Seednode/charades/internal/session"
	"github.com/Seednode/charades/internal/skeleton"
)

const frameInterval = time.Second / 30

type Options struct {
	Center     skeleton.Point
	LimbLength float64
	Theme      Theme

	// StartRound asks the server for a new round. Only offered to the
	// moderator.
	StartRound func() error
}

// Viewer owns the terminal. The bottom row is the status line; the rest is
// canvas.
type Viewer struct {
	screen tcell.Screen
	loop   *session.Loop
	opts   Options
	logger *zap.SugaredLogger

	viewport Viewport
	last     session.View
	pressed  bool
}

func New(screen tcell.Screen, loop *session.Loop, opts Options, logger *zap.SugaredLogger) *Viewer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Theme == (Theme{}) {
		opts.Theme = DefaultTheme
	}

	v := &Viewer{
		screen: screen,
		loop:   loop,
		opts:   opts,
		logger: logger,
	}
	v.resize()

	return v
}

func (v *Viewer) Viewport() Viewport { return v.viewport }

func (v *Viewer) resize() {
	cols, rows := v.screen.Size()
	v.viewport = Fit(cols, rows-1, v.opts.Center, 5*v.opts.LimbLength)
}

// Run draws frames and handles input until the user quits, ctx is done or
// the session loop stops. The caller owns screen initialization and Fini.
func (v *Viewer) Run(ctx context.Context) error {
	v.screen.EnableMouse()
	defer v.screen.DisableMouse()

	events := make(chan tcell.Event, 100)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-v.loop.Done():
			return nil

		case ev := <-events:
			if !v.Handle(ev) {
				return nil
			}

		case <-ticker.C:
			view, ok := v.loop.View(ctx)
			if !ok {
				return nil
			}
			v.Draw(view)
			v.screen.Show()
		}
	}
}

// Handle applies one terminal event. It returns false when the user quits.
func (v *Viewer) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.resize()
		v.screen.Sync()

	case *tcell.EventMouse:
		col, row := ev.Position()
		at := v.viewport.ToCanvas(col, row)

		switch {
		case ev.Buttons()&tcell.Button1 != 0 && !v.pressed:
			v.pressed = true
			v.loop.Post(session.PointerDown{At: at})
		case ev.Buttons()&tcell.Button1 != 0:
			v.loop.Post(session.PointerDrag{At: at})
		case v.pressed:
			v.pressed = false
			v.loop.Post(session.PointerUp{})
		}

	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() != tcell.KeyRune:
		case ev.Rune() == 'q':
			return false
		case ev.Rune() == 'r':
			v.loop.Post(session.Reset{})
		case ev.Rune() == 's':
			v.startRound()
		}
	}

	return true
}

func (v *Viewer) startRound() {
	if !v.last.Moderator || v.opts.StartRound == nil {
		return
	}
	if err := v.opts.StartRound(); err != nil {
		v.logger.Warnw("requesting a new round", "error", err)
	}
}

// Draw paints one frame into the screen buffer without showing it.
func (v *Viewer) Draw(view session.View) {
	v.last = view

	v.screen.Clear()
	Rasterize(v.screen, v.viewport, v.opts.Theme, view.Instructions)

	cols, rows := v.screen.Size()
	if view.Notice != "" {
		drawText(v.screen, 0, 0, cols, view.Notice, v.opts.Theme.Notice)
	}
	drawText(v.screen, 0, rows-1, cols, Status(view), v.opts.Theme.Status)
}

// Status is the text of the bottom line.
func Status(view session.View) string {
	var b strings.Builder

	if view.Round == 0 {
		b.WriteString("waiting for the first round")
	} else {
		fmt.Fprintf(&b, "round %d", view.Round)
	}

	switch {
	case view.Dragger:
		b.WriteString(" | you are drawing")
	default:
		for _, u := range view.Users {
			if u.IsDrawer {
				fmt.Fprintf(&b, " | %s is drawing", u.Username)
				break
			}
		}
	}

	if len(view.Users) > 0 {
		fmt.Fprintf(&b, " | %d players", len(view.Users))
	}

	b.WriteString(" | ")
	if view.Dragger {
		b.WriteString("r reset  ")
	}
	if view.Moderator {
		b.WriteString("s start round  ")
	}
	b.WriteString("q quit")

	return b.String()
}

func drawText(screen tcell.Screen, col, row, width int, text string, style tcell.Style) {
	x := col
	for _, r := range text {
		if x >= col+width {
			return
		}
		screen.SetContent(x, row, r, nil, style)
		x++
	}
	for ; x < col+width; x++ {
		screen.SetContent(x, row, ' ', nil, style)
	}
}
