package dispatcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carnagereport/theater/internal/monitor"
	"github.com/carnagereport/theater/internal/session"
	"github.com/carnagereport/theater/pkg/core"
)

// Enqueuer accepts session commands. *session.Session satisfies it.
type Enqueuer interface {
	Enqueue(cmd session.Command) error
}

// StatusFunc returns the latest playback summary.
type StatusFunc func() monitor.Status

// RegisterConsole wires the playback console commands to a session.
func RegisterConsole(d *Dispatcher, target Enqueuer, status StatusFunc) {
	enqueue := func(cmd session.Command) (any, error) {
		if err := target.Enqueue(cmd); err != nil {
			return nil, err
		}
		return "ok", nil
	}

	d.Register(":PLAY:", func(e Event) (any, error) {
		return enqueue(session.Play())
	}, Logged())

	d.Register(":PAUSE:", func(e Event) (any, error) {
		return enqueue(session.Pause())
	}, Logged())

	d.Register(":TOGGLE:", func(e Event) (any, error) {
		return enqueue(session.Toggle())
	}, Logged())

	d.Register(":SEEK:", func(e Event) (any, error) {
		ms, err := floatArg(e)
		if err != nil {
			return nil, err
		}
		return enqueue(session.Seek(ms))
	}, Logged())

	d.Register(":SKIP:", func(e Event) (any, error) {
		s, err := floatArg(e)
		if err != nil {
			return nil, err
		}
		return enqueue(session.Skip(s))
	}, Logged())

	d.Register(":SPEED:", func(e Event) (any, error) {
		m, err := floatArg(e)
		if err != nil {
			return nil, err
		}
		return enqueue(session.Speed(m))
	}, Logged())

	d.Register(":MODE:", func(e Event) (any, error) {
		name, err := stringArg(e)
		if err != nil {
			return nil, err
		}
		return enqueue(session.Mode(core.CameraMode(strings.ToLower(name))))
	}, Logged())

	d.Register(":FOLLOW:", func(e Event) (any, error) {
		id, err := stringArg(e)
		if err != nil {
			return nil, err
		}
		return enqueue(session.Follow(id))
	}, Logged())

	d.Register(":STATUS:", func(e Event) (any, error) {
		if status == nil {
			return nil, fmt.Errorf("status not available")
		}
		return status(), nil
	})

	d.Register(":HELP:", func(e Event) (any, error) {
		return d.Commands(), nil
	})
}

func stringArg(e Event) (string, error) {
	if len(e.Args) < 1 {
		return "", fmt.Errorf("%s: missing argument", e.Command)
	}
	return strings.Trim(e.Args[0], `"`), nil
}

func floatArg(e Event) (float64, error) {
	s, err := stringArg(e)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(s), "x"), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", e.Command, s, err)
	}
	return v, nil
}
