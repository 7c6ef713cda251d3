/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

// Sound plays short tones for game cues. The zero value and nil are silent.
type Sound struct {
	ready bool
}

// NewSound opens the speaker. Failing to do so leaves a silent Sound; the
// game runs fine without audio.
func NewSound(enabled bool, logger *zap.SugaredLogger) *Sound {
	if !enabled {
		return &Sound{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		logger.Warnw("audio initialization failed", "error", err)
		return &Sound{}
	}

	return &Sound{ready: true}
}

// Grab is played when the drawer picks up a joint.
func (s *Sound) Grab() {
	s.tone(880, 50*time.Millisecond)
}

// Round is played when a new round starts.
func (s *Sound) Round() {
	s.tone(523, 150*time.Millisecond)
}

func (s *Sound) tone(freq int, d time.Duration) {
	if s == nil || !s.ready {
		return
	}

	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}

	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (s *Sound) Close() {
	if s == nil || !s.ready {
		return
	}

	speaker.Close()
	s.ready = false
}
