package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/scriptbridge"
	"github.com/aretw0/scriptbridge/internal/config"
	"github.com/aretw0/scriptbridge/internal/logging"
	"github.com/aretw0/scriptbridge/pkg/workplace"
	"github.com/prometheus/client_golang/prometheus"
)

// Options holds the flags shared by every command.
type Options struct {
	Dir        string // Directory searched for scriptbridge.yaml
	ConfigFile string // Explicit config file; must exist when set
	Debug      bool
}

// RunOptions configures the run command.
type RunOptions struct {
	Options
	DocumentID string
	UserID     string
	EventID    string
	JSON       bool
}

// Env is a configured host ready to process events.
type Env struct {
	Host     *scriptbridge.Host
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// Setup loads configuration, builds the host and loads every script.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(config.New(), opts.Dir, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	logger := createLogger(opts.Debug, cfg.LogLevel)
	reg := prometheus.NewRegistry()

	host, err := NewHost(ctx, cfg, logger, reg)
	if err != nil {
		return nil, fmt.Errorf("error initializing host: %w", err)
	}

	err = host.LoadScripts(ctx, scriptbridge.Scripts{
		Locations:   cfg.ScriptsLocation,
		ModulesDir:  cfg.ModulesDir,
		HandlersDir: cfg.HandlersDir,
	})
	if err != nil {
		host.Close()
		return nil, err
	}

	return &Env{Host: host, Config: cfg, Logger: logger, Registry: reg}, nil
}

// createLogger honours --debug over the configured level.
func createLogger(debug bool, level string) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(level))
}

// Execute runs one event and prints its result to out.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) error {
	env, err := Setup(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer env.Host.Close()

	res, runErr := env.Host.Run(ctx, workplace.Event{
		DocumentID: opts.DocumentID,
		UserID:     opts.UserID,
		EventID:    opts.EventID,
	})

	if opts.JSON {
		if err := json.NewEncoder(out).Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "session:  %s\n", res.SessionID)
		fmt.Fprintf(out, "executed: %s\n", strings.Join(res.Executed, ", "))
		fmt.Fprintf(out, "queued:   %d\n", res.Queued)
		fmt.Fprintf(out, "status:   %d %s\n", int(res.Status), res.Status)
	}

	if runErr != nil {
		return runErr
	}
	if !res.Status.IsOk() {
		return fmt.Errorf("commit failed: %w", res.Status.Err())
	}
	return nil
}

// PrintOrder writes the handler execution order, one id per line.
func PrintOrder(ctx context.Context, opts Options, out io.Writer) error {
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Host.Close()

	for _, id := range env.Host.Order() {
		fmt.Fprintln(out, id)
	}
	return nil
}
