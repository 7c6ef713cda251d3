/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Seednode/charades/internal/client"
	"github.com/Seednode/charades/internal/session"
	"github.com/Seednode/charades/internal/transport"
	"github.com/Seednode/charades/internal/tui"
)

type playConfig struct {
	url     string
	name    string
	sound   bool
	logFile string
}

func (p *playConfig) validate() error {
	if p.url == "" {
		return errors.New("--url is required")
	}
	if strings.TrimSpace(p.name) == "" {
		return errors.New("--name is required")
	}
	return nil
}

func newPlayCmd(cfg *Config) *cobra.Command {
	pc := &playConfig{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a game from the terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pc.validate(); err != nil {
				return err
			}
			if err := validLimbLength(cfg.limbLength); err != nil {
				return err
			}
			return play(cmd.Context(), cfg, pc)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.StringVarP(&pc.url, "url", "u", "", "game URL, as shown on the game page (env: CHARADES_URL)")
	fs.StringVarP(&pc.name, "name", "n", "", "username shown to other players (env: CHARADES_NAME)")
	fs.BoolVar(&pc.sound, "sound", true, "play a tone on joint grab and round start (env: CHARADES_SOUND)")
	fs.StringVar(&pc.logFile, "log-file", "", "write logs to this file instead of discarding them (env: CHARADES_LOG_FILE)")

	return cmd
}

// playLogger never writes to the terminal, which belongs to the viewer.
func playLogger(cfg *Config, pc *playConfig) (*zap.SugaredLogger, error) {
	if pc.logFile == "" {
		return zap.NewNop().Sugar(), nil
	}
	return newLogger(cfg.verbose, pc.logFile)
}

func play(ctx context.Context, cfg *Config, pc *playConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger, err := playLogger(cfg, pc)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	playerID, err := newPlayerID()
	if err != nil {
		return fmt.Errorf("generate player id: %w", err)
	}

	conn, err := client.Dial(ctx, pc.url, playerID, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	s, err := session.New(session.Config{
		PlayerID:   playerID,
		Center:     canvasCenter,
		LimbLength: cfg.limbLength,
	}, conn, logger)
	if err != nil {
		return err
	}

	sound := tui.NewSound(pc.sound, logger)
	defer sound.Close()

	loop := session.NewLoop(ctx, s, logger, session.Hooks{
		OnGrab:  sound.Grab,
		OnRound: func(transport.Round) { sound.Round() },
	})
	loop.Attach(conn)

	connErr := make(chan error, 1)
	go func() {
		connErr <- conn.Run(ctx)
		cancel()
	}()

	if err := conn.Emit(transport.EventJoin, 0, transport.Join{Username: strings.TrimSpace(pc.name)}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	viewer := tui.New(screen, loop, tui.Options{
		Center:     canvasCenter,
		LimbLength: cfg.limbLength,
		StartRound: func() error {
			return conn.Emit(transport.EventStartRound, 0, nil)
		},
	}, logger)

	err = viewer.Run(ctx)

	loop.Post(session.Shutdown{})
	cancel()

	if runErr := <-connErr; runErr != nil && err == nil {
		err = runErr
	}

	return err
}
