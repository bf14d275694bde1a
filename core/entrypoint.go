package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/encodeous/lsdb/perf"
	"github.com/encodeous/lsdb/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/vimeo/go-clocks"
)

// LoadConfig reads, expands and validates the node config
func LoadConfig(configPath string) (*state.LocalCfg, error) {
	cfg, err := state.ReadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}
	state.ExpandLocalConfig(cfg)
	err = state.LocalConfigValidator(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads the config at configPath and runs until a shutdown signal is received
func Bootstrap(configPath, logPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}
	return Start(*cfg, level, configPath, clocks.DefaultClock(), nil)
}

func NewLogger(cfg state.LocalCfg, logLevel slog.Level) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: string(cfg.Id),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if cfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(cfg.LogPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

func NewState(cfg state.LocalCfg, logger *slog.Logger, configPath string, clock clocks.Clock) *state.State {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &state.State{
		Modules: make(map[string]state.Module),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: make(chan func(env *state.State) error, state.DispatchBufferSize),
			LocalCfg:        cfg,
			Log:             logger,
			Clock:           clock,
			ConfigPath:      configPath,
		},
	}
}

func Start(cfg state.LocalCfg, logLevel slog.Level, configPath string, clock clocks.Clock, initState **state.State) error {
	logger, err := NewLogger(cfg, logLevel)
	if err != nil {
		return err
	}
	s := NewState(cfg, logger, configPath, clock)
	if initState != nil {
		*initState = s
	}

	s.Log.Info("init modules")
	err = initModules(s)
	if err != nil {
		return err
	}
	s.Log.Info("init modules complete")

	s.Log.Info("lsdb has been initialized. To gracefully exit, send SIGINT or Ctrl+C.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			s.Cancel(errors.New("received shutdown signal"))
		case <-s.Context.Done():
			return
		}
	}()

	return MainLoop(s, s.DispatchChannel)
}

func initModules(s *state.State) error {
	var modules []state.Module
	// Decision must come first, the feed publishes into it
	modules = append(modules, &Decision{})
	modules = append(modules, &Feed{})

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return fmt.Errorf("init %T: %w", module, err)
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.DispatchWarnThreshold {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
