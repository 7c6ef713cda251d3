/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Seednode/charades/internal/skeleton"
)

const (
	defaultEnvFile = ".env"

	// canvasSize is the side of the square canvas every client draws on.
	canvasSize = 400
)

var canvasCenter = skeleton.Point{X: canvasSize / 2, Y: canvasSize / 2}

type Config struct {
	bind           string
	envFile        string
	limbLength     float64
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	logger *zap.SugaredLogger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if err := validLimbLength(c.limbLength); err != nil {
		return err
	}
	return nil
}

func validLimbLength(l float64) error {
	if math.IsNaN(l) || l <= 0 || l > canvasSize/5 {
		return fmt.Errorf("invalid limb length (must be greater than 0 and at most %d): %v", canvasSize/5, l)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) log() *zap.SugaredLogger {
	if c.logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.logger
}

func newLogger(verbose bool, outputs ...string) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logDate)
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	zc.Sampling = nil

	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if len(outputs) > 0 {
		zc.OutputPaths = outputs
		zc.ErrorOutputPaths = outputs
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// loadEnv reads the env file into the process environment and then fills
// every flag the user did not set from CHARADES_* variables. Variables
// already present in the environment win over the file.
func loadEnv(v *viper.Viper, flags *pflag.FlagSet, envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !(envFile == defaultEnvFile && errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", envName(f.Name), err))
			}
		}
	})

	return errors.Join(errs...)
}

func envName(flag string) string {
	return "CHARADES_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CHARADES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "charades",
		Short:         "Stickman charades: pose a figure, let everyone else guess.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(v, cmd.Flags(), cfg.envFile); err != nil {
				return err
			}

			if cfg.logger == nil {
				logger, err := newLogger(cfg.verbose)
				if err != nil {
					return err
				}
				cfg.logger = logger
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(normalize)
	pfs.StringVar(&cfg.envFile, "env-file", defaultEnvFile, "file of KEY=value lines loaded into the environment before flags are resolved")
	pfs.Float64Var(&cfg.limbLength, "limb-length", 60, "length of the stickman's torso in canvas units (env: CHARADES_LIMB_LENGTH)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CHARADES_VERBOSE)")

	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalize)
	flags.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CHARADES_BIND)")
	flags.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players are removed (env: CHARADES_PLAYER_TIMEOUT)")
	flags.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CHARADES_PORT)")
	flags.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CHARADES_PREFIX)")
	flags.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CHARADES_PROFILE)")
	flags.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: CHARADES_SESSION_TIMEOUT)")
	flags.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CHARADES_TLS_CERT)")
	flags.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CHARADES_TLS_KEY)")
	flags.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CHARADES_VERSION)")

	cmd.AddCommand(newPlayCmd(cfg), newSchemaCmd())

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("charades v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
