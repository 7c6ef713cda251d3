/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/Seednode/charades/internal/skeleton"
	"github.com/Seednode/charades/internal/transport"
)

type Msg interface{ isLoopMsg() }

type PointerDown struct{ At skeleton.Point }

type PointerDrag struct{ At skeleton.Point }

type PointerUp struct{}

type Reset struct{}

// Remote carries a relayed move.
type Remote struct{ Env transport.Envelope }

type RoundStarted struct{ Round transport.Round }

type Roster struct{ Users []transport.User }

type Welcomed struct{ Welcome transport.Welcome }

type Noticed struct{ Notice transport.Notice }

// Frame asks for a render of the current state.
type Frame struct{ Reply chan<- View }

type Shutdown struct{}

func (PointerDown) isLoopMsg()  {}
func (PointerDrag) isLoopMsg()  {}
func (PointerUp) isLoopMsg()    {}
func (Reset) isLoopMsg()        {}
func (Remote) isLoopMsg()       {}
func (RoundStarted) isLoopMsg() {}
func (Roster) isLoopMsg()       {}
func (Welcomed) isLoopMsg()     {}
func (Noticed) isLoopMsg()      {}
func (Frame) isLoopMsg()        {}
func (Shutdown) isLoopMsg()     {}

// View is a snapshot taken inside the loop, so it never mixes two trees.
type View struct {
	Instructions []skeleton.Instruction
	Round        int
	Dragger      bool
	Moderator    bool
	Grabbing     bool
	Users        []transport.User
	Notice       string
}

// Hooks are called from the loop goroutine and must not block.
type Hooks struct {
	OnGrab  func()
	OnRound func(transport.Round)
}

// Loop owns a Session. Every input is a message on its inbox, handled one at
// a time, so a frame sees a figure either entirely before or entirely after
// a remote update.
type Loop struct {
	inbox   chan Msg
	session *Session
	logger  *zap.SugaredLogger
	hooks   Hooks

	users     []transport.User
	moderator bool
	notice    string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLoop(parent context.Context, s *Session, logger *zap.SugaredLogger, hooks Hooks) *Loop {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(parent)

	l := &Loop{
		inbox:   make(chan Msg, 64),
		session: s,
		logger:  logger,
		hooks:   hooks,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

// Post queues m unless the loop has stopped.
func (l *Loop) Post(m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Done is closed once the loop has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }

// View requests a frame and waits for it.
func (l *Loop) View(ctx context.Context) (View, bool) {
	reply := make(chan View, 1)
	if !l.Post(Frame{Reply: reply}) {
		return View{}, false
	}

	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return View{}, false
	case <-l.done:
		return View{}, false
	}
}

// Attach routes the channel's incoming events into the inbox.
func (l *Loop) Attach(ch transport.Channel) {
	ch.Subscribe(transport.EventMoveReceive, func(env transport.Envelope) {
		l.Post(Remote{Env: env})
	})
	ch.Subscribe(transport.EventStartRound, func(env transport.Envelope) {
		r, err := transport.DecodeData[transport.Round](env)
		if err != nil {
			l.logger.Warnw("discarding round signal", "error", err)
			return
		}
		l.Post(RoundStarted{Round: r})
	})
	ch.Subscribe(transport.EventSetUsers, func(env transport.Envelope) {
		users, err := transport.DecodeData[[]transport.User](env)
		if err != nil {
			l.logger.Warnw("discarding roster", "error", err)
			return
		}
		l.Post(Roster{Users: users})
	})
	ch.Subscribe(transport.EventWelcome, func(env transport.Envelope) {
		w, err := transport.DecodeData[transport.Welcome](env)
		if err != nil {
			l.logger.Warnw("discarding welcome", "error", err)
			return
		}
		l.Post(Welcomed{Welcome: w})
	})
	ch.Subscribe(transport.EventNotice, func(env transport.Envelope) {
		n, err := transport.DecodeData[transport.Notice](env)
		if err != nil {
			l.logger.Warnw("discarding notice", "error", err)
			return
		}
		l.Post(Noticed{Notice: n})
	})
}

func (l *Loop) loop() {
	defer close(l.done)

	for {
		select {
		case <-l.ctx.Done():
			return

		case m := <-l.inbox:
			if !l.handle(m) {
				l.cancel()
				return
			}
		}
	}
}

func (l *Loop) handle(m Msg) bool {
	s := l.session

	switch msg := m.(type) {
	case PointerDown:
		if _, ok := s.OnPointerDown(msg.At); ok && l.hooks.OnGrab != nil {
			l.hooks.OnGrab()
		}

	case PointerDrag:
		if err := s.OnPointerDrag(msg.At); err != nil {
			l.logger.Warnw("broadcasting move", "error", err)
		}

	case PointerUp:
		s.OnPointerUp()

	case Reset:
		if _, err := s.ResetSkeleton(); err != nil {
			l.logger.Warnw("broadcasting reset", "error", err)
		}

	case Remote:
		if err := s.ApplyRemote(msg.Env); err != nil {
			if errors.Is(err, ErrStaleUpdate) {
				l.logger.Debugw("dropping remote update", "from", msg.Env.From, "error", err)
			} else {
				l.logger.Warnw("discarding remote update", "from", msg.Env.From, "error", err)
			}
		}

	case RoundStarted:
		if err := s.StartRound(msg.Round); err != nil {
			l.logger.Errorw("starting round", "round", msg.Round.Round, "error", err)
			break
		}
		if l.hooks.OnRound != nil {
			l.hooks.OnRound(msg.Round)
		}

	case Roster:
		l.users = msg.Users
		for _, u := range msg.Users {
			if u.PlayerID == s.PlayerID() {
				s.SetDragger(u.IsDrawer)
				break
			}
		}

	case Welcomed:
		l.moderator = msg.Welcome.IsModerator

	case Noticed:
		l.notice = msg.Notice.Message

	case Frame:
		msg.Reply <- View{
			Instructions: slices.Collect(s.Frame()),
			Round:        s.Round(),
			Dragger:      s.Dragger(),
			Moderator:    l.moderator,
			Grabbing:     s.Selected() != nil,
			Users:        slices.Clone(l.users),
			Notice:       l.notice,
		}

	case Shutdown:
		return false
	}

	return true
}
