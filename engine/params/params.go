// Package params holds the runtime-selectable benchmark parameters. Input handlers and the config
// watcher write them; the frame driver polls them once per frame.
package params

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-drawbench/common"
	"github.com/Carmen-Shannon/oxy-drawbench/engine/bench"
	"github.com/charmbracelet/log"
)

// Store is a bench.ParamSource safe for concurrent writers.
type Store struct {
	mode        atomic.Int32
	modelInView atomic.Bool
	allowed     atomic.Uint32 // bit per bench.Mode

	logger *log.Logger
}

var _ bench.ParamSource = &Store{}

// NewStore creates a Store with every mode allowed.
//
// Parameters:
//   - mode: the initial mode
//   - modelInView: the initial camera aim
//
// Returns:
//   - *Store: the store
func NewStore(mode bench.Mode, modelInView bool) *Store {
	s := &Store{logger: common.Logger().WithPrefix("params")}
	s.mode.Store(int32(mode))
	s.modelInView.Store(modelInView)
	s.allowed.Store(maskOf(bench.Modes()))
	return s
}

func (s *Store) Mode() bench.Mode {
	return bench.Mode(s.mode.Load())
}

func (s *Store) ModelInView() bool {
	return s.modelInView.Load()
}

// Restrict limits SetMode to the given modes, typically bench.Resources.EnabledModes.
// The current mode is left as is.
func (s *Store) Restrict(modes []bench.Mode) {
	s.allowed.Store(maskOf(modes))
}

// Allowed reports whether SetMode would accept m.
func (s *Store) Allowed(m bench.Mode) bool {
	return m.Valid() && s.allowed.Load()&(1<<uint(m)) != 0
}

// SetMode switches the active mode. Invalid or disallowed modes are refused and the current mode
// is kept.
//
// Parameters:
//   - m: the requested mode
//
// Returns:
//   - error: ErrUnknownMode for an invalid mode, a bench.CapabilityError for a disallowed one
func (s *Store) SetMode(m bench.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %s", bench.ErrUnknownMode, m)
	}
	if !s.Allowed(m) {
		s.logger.Warn("mode switch refused", "mode", m, "current", s.Mode())
		return &bench.CapabilityError{Mode: m, Feature: m.Feature()}
	}
	if prev := bench.Mode(s.mode.Swap(int32(m))); prev != m {
		s.logger.Info("mode selected", "mode", m)
	}
	return nil
}

// SetModelInView aims the camera at the model or away from it.
func (s *Store) SetModelInView(inView bool) {
	s.modelInView.Store(inView)
}

// ToggleModelInView flips the camera aim and returns the new value.
func (s *Store) ToggleModelInView() bool {
	for {
		old := s.modelInView.Load()
		if s.modelInView.CompareAndSwap(old, !old) {
			s.logger.Info("model in view", "in_view", !old)
			return !old
		}
	}
}

func maskOf(modes []bench.Mode) uint32 {
	var mask uint32
	for _, m := range modes {
		if m.Valid() {
			mask |= 1 << uint(m)
		}
	}
	return mask
}
