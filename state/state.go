package state

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/vimeo/go-clocks"
)

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	*LinkState
	Modules map[string]Module
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan func(s *State) error
	LocalCfg
	Context    context.Context
	Cancel     context.CancelCauseFunc
	Log        *slog.Logger
	Clock      clocks.Clock
	ConfigPath string
	Started    atomic.Bool
	Stopping   atomic.Bool
}
