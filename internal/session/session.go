/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session holds one player's view of the stickman and turns pointer
// input and remote updates into skeleton changes. A Session is not safe for
// concurrent use; Loop owns one and serialises everything that touches it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/Seednode/charades/internal/codec"
	"github.com/Seednode/charades/internal/skeleton"
	"github.com/Seednode/charades/internal/transport"
)

var ErrStaleUpdate = errors.New("stale update")

// Emitter is the sending half of transport.Channel.
type Emitter interface {
	Emit(event string, seq uint64, data any) error
}

type Config struct {
	PlayerID   string
	Center     skeleton.Point
	LimbLength float64
}

type Session struct {
	cfg    Config
	out    Emitter
	logger *zap.SugaredLogger

	skel     *skeleton.Skeleton
	selected skeleton.Node
	dragger  bool
	round    int

	// seq numbers this player's outgoing moves; applied holds the newest
	// seq taken from each remote sender this round.
	seq     uint64
	applied map[string]uint64
}

// New starts with the canonical figure. out may be nil for a local-only
// session.
func New(cfg Config, out Emitter, logger *zap.SugaredLogger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	skel, err := skeleton.Generate(cfg.Center, cfg.LimbLength)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:     cfg,
		out:     out,
		logger:  logger,
		skel:    skel,
		applied: make(map[string]uint64),
	}, nil
}

func (s *Session) Skeleton() *skeleton.Skeleton { return s.skel }
func (s *Session) Selected() skeleton.Node      { return s.selected }
func (s *Session) Dragger() bool                { return s.dragger }
func (s *Session) Round() int                   { return s.round }
func (s *Session) PlayerID() string             { return s.cfg.PlayerID }

// SetDragger gates local edits. Losing the flag drops any selection.
func (s *Session) SetDragger(active bool) {
	s.dragger = active
	if !active {
		s.selected = nil
	}
}

// OnPointerDown selects the node nearest to p.
func (s *Session) OnPointerDown(p skeleton.Point) (skeleton.Node, bool) {
	if !s.dragger {
		return nil, false
	}

	n, err := skeleton.Nearest(s.skel, p)
	if err != nil {
		s.logger.Errorw("hit-test without a skeleton", "error", err)
		return nil, false
	}
	s.selected = n

	return n, true
}

// OnPointerDrag moves the selected node toward p and broadcasts the pose.
func (s *Session) OnPointerDrag(p skeleton.Point) error {
	if !s.dragger || s.selected == nil {
		return nil
	}

	skeleton.Drag(s.selected, p)

	return s.broadcast()
}

func (s *Session) OnPointerUp() {
	s.selected = nil
}

// ResetSkeleton replaces the figure with a fresh one and broadcasts it.
func (s *Session) ResetSkeleton() (*skeleton.Skeleton, error) {
	if !s.dragger {
		return s.skel, nil
	}

	skel, err := skeleton.Generate(s.cfg.Center, s.cfg.LimbLength)
	if err != nil {
		return nil, err
	}
	s.skel = skel
	s.selected = nil

	return skel, s.broadcast()
}

// StartRound replaces the figure without broadcasting; every peer does the
// same on the round signal. Only the round's drawer may drag.
func (s *Session) StartRound(r transport.Round) error {
	skel, err := skeleton.Generate(s.cfg.Center, s.cfg.LimbLength)
	if err != nil {
		return err
	}

	s.round = r.Round
	s.skel = skel
	s.applied = make(map[string]uint64)
	s.SetDragger(r.Drawer != "" && r.Drawer == s.cfg.PlayerID)

	return nil
}

// ApplyRemote replaces the figure with the one carried by env. The new tree
// is fully decoded before it is assigned; on any error the current figure is
// kept. Sequenced updates older than the last one applied from the same
// sender are dropped with ErrStaleUpdate.
func (s *Session) ApplyRemote(env transport.Envelope) error {
	if env.From != "" && env.From == s.cfg.PlayerID {
		return nil
	}
	if env.Seq != 0 && env.Seq <= s.applied[env.From] {
		return fmt.Errorf("%w: seq %d from %s, have %d", ErrStaleUpdate, env.Seq, env.From, s.applied[env.From])
	}

	skel, err := codec.Decode(env.Data)
	if err != nil {
		return err
	}

	s.skel = skel
	s.selected = nil
	if env.Seq != 0 {
		s.applied[env.From] = env.Seq
	}

	return nil
}

// Frame is the draw sequence for the current figure.
func (s *Session) Frame() iter.Seq[skeleton.Instruction] {
	return skeleton.Render(s.skel)
}

func (s *Session) broadcast() error {
	if s.out == nil {
		return nil
	}

	data, err := codec.Encode(s.skel)
	if err != nil {
		return err
	}
	s.seq++

	return s.out.Emit(transport.EventMoveEmit, s.seq, json.RawMessage(data))
}
