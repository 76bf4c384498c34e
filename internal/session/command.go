package session

import (
	"errors"
	"fmt"

	"github.com/carnagereport/theater/internal/clock"
	"github.com/carnagereport/theater/pkg/core"
)

// ErrQueueFull is returned by Enqueue when commands arrive faster than
// ticks drain them.
var ErrQueueFull = errors.New("session command queue full")

// CommandKind identifies a queued session command.
type CommandKind int

const (
	CmdPlay CommandKind = iota
	CmdPause
	CmdToggle
	CmdSeek
	CmdSkip
	CmdSpeed
	CmdMode
	CmdFollow
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdPause:
		return "pause"
	case CmdToggle:
		return "toggle"
	case CmdSeek:
		return "seek"
	case CmdSkip:
		return "skip"
	case CmdSpeed:
		return "speed"
	case CmdMode:
		return "mode"
	case CmdFollow:
		return "follow"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a request from outside the tick loop. It takes effect at the
// start of the next tick.
type Command struct {
	Kind CommandKind
	// Value is the time in ms for CmdSeek, seconds for CmdSkip and the
	// multiplier for CmdSpeed.
	Value float64
	// Name is the camera mode for CmdMode and the subject for CmdFollow.
	Name string
}

func Play() Command                  { return Command{Kind: CmdPlay} }
func Pause() Command                 { return Command{Kind: CmdPause} }
func Toggle() Command                { return Command{Kind: CmdToggle} }
func Seek(timeMs float64) Command    { return Command{Kind: CmdSeek, Value: timeMs} }
func Skip(seconds float64) Command   { return Command{Kind: CmdSkip, Value: seconds} }
func Speed(m float64) Command        { return Command{Kind: CmdSpeed, Value: m} }
func Mode(m core.CameraMode) Command { return Command{Kind: CmdMode, Name: string(m)} }
func Follow(id string) Command       { return Command{Kind: CmdFollow, Name: id} }

// validate rejects commands that would fail when applied, so callers get
// the error synchronously and the session never changes state for them.
func (s *Session) validate(cmd Command) error {
	switch cmd.Kind {
	case CmdPlay, CmdPause, CmdToggle, CmdSeek, CmdSkip:
		return nil
	case CmdSpeed:
		if !clock.IsAllowedSpeed(cmd.Value) {
			return fmt.Errorf("%w: %v (allowed %v)", clock.ErrInvalidSpeed, cmd.Value, clock.AllowedSpeeds)
		}
	case CmdMode:
		for _, m := range core.CameraModes {
			if string(m) == cmd.Name {
				return nil
			}
		}
		return fmt.Errorf("unknown camera mode %q", cmd.Name)
	case CmdFollow:
		if !s.store.Has(cmd.Name) {
			return fmt.Errorf("unknown subject %q", cmd.Name)
		}
	default:
		return fmt.Errorf("unknown command %v", cmd.Kind)
	}
	return nil
}

func (s *Session) apply(cmd Command) {
	switch cmd.Kind {
	case CmdPlay:
		s.clock.Play()
	case CmdPause:
		s.clock.Pause()
	case CmdToggle:
		s.clock.Toggle()
	case CmdSeek:
		s.clock.Seek(cmd.Value)
		s.discontinuity = true
	case CmdSkip:
		s.clock.Skip(cmd.Value)
		s.discontinuity = true
	case CmdSpeed:
		if err := s.clock.SetBaseSpeed(cmd.Value); err != nil {
			s.logger.Warn("speed rejected", "error", err)
		}
	case CmdMode:
		if err := s.camera.SetMode(core.CameraMode(cmd.Name)); err != nil {
			s.logger.Warn("mode rejected", "error", err)
		}
	case CmdFollow:
		if err := s.camera.Follow(cmd.Name); err != nil {
			s.logger.Warn("follow rejected", "error", err)
		}
	}
}
