package input

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnagereport/theater/pkg/core"
)

const dt = 1.0 / 60

func padWith(buttons map[int]float64, axes map[int]float64) GamepadState {
	s := GamepadState{Connected: true}
	for b, v := range buttons {
		s.Buttons[b] = v
	}
	for a, v := range axes {
		s.Axes[a] = v
	}
	return s
}

func TestPoll_Idle(t *testing.T) {
	r := NewRouter(DefaultConfig())

	in := r.Poll(dt)
	assert.Equal(t, Intents{Sprint: 1, FastForward: 1}, in)
}

func TestPoll_KeyboardMoveNormalized(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyW)
	r.KeyDown(KeyD)

	in := r.Poll(dt)
	assert.InDelta(t, 1, in.Move.Len(), 1e-12)
	assert.Greater(t, in.Move.X(), 0.0)
	assert.Greater(t, in.Move.Z(), 0.0)

	r.KeyUp(KeyW)
	r.KeyUp(KeyD)
	r.KeyDown(KeyQ)
	in = r.Poll(dt)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, in.Move)
}

func TestPoll_OpposingKeysCancel(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyW)
	r.KeyDown(KeyS)

	assert.Equal(t, mgl64.Vec3{}, r.Poll(dt).Move)
}

func TestPoll_TappedKeyCountsForOneTick(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyW)
	r.KeyUp(KeyW)

	assert.Equal(t, mgl64.Vec3{0, 0, 1}, r.Poll(dt).Move)
	assert.Equal(t, mgl64.Vec3{}, r.Poll(dt).Move)
}

func TestPoll_Sprint(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyLeftShift)

	assert.Equal(t, 3.0, r.Poll(dt).Sprint)
}

func TestPoll_HeldKeyFiresOnce(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeySpace)

	fired := 0
	for i := 0; i < 10; i++ {
		r.KeyDown(KeySpace) // auto-repeat
		if r.Poll(dt).TogglePlay {
			fired++
		}
	}
	assert.Equal(t, 1, fired)

	r.KeyUp(KeySpace)
	r.KeyDown(KeySpace)
	assert.True(t, r.Poll(dt).TogglePlay)
}

func TestPoll_DiscreteKeys(t *testing.T) {
	r := NewRouter(DefaultConfig())
	for _, k := range []Key{KeyRight, KeyRight, KeyTab, KeyEqual, KeyO, Key3} {
		r.KeyDown(k)
		r.KeyUp(k)
	}

	in := r.Poll(dt)
	assert.Equal(t, 10.0, in.SkipSeconds)
	assert.Equal(t, 1, in.CycleSubject)
	assert.Equal(t, 1, in.SpeedStep)
	assert.True(t, in.ToggleOverlays)
	require.NotNil(t, in.SetMode)
	assert.Equal(t, core.CameraOrbit, *in.SetMode)
}

func TestPoll_ShiftTabCyclesBack(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyLeftShift)
	r.KeyDown(KeyTab)

	assert.Equal(t, -1, r.Poll(dt).CycleSubject)
}

func TestPoll_FastForwardLatch(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyF)
	r.KeyUp(KeyF)
	assert.Equal(t, 8.0, r.Poll(dt).FastForward)
	assert.Equal(t, 8.0, r.Poll(dt).FastForward)

	r.KeyDown(KeyF)
	r.KeyUp(KeyF)
	assert.Equal(t, 1.0, r.Poll(dt).FastForward)
}

func TestPoll_MouseLookOnlyWhenEnabled(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.MouseMove(100, 0)
	assert.Equal(t, 0.0, r.Poll(dt).LookYaw)

	r.SetLookEnabled(true)
	r.MouseMove(100, -50)
	in := r.Poll(dt)
	assert.InDelta(t, -0.3, in.LookYaw, 1e-12)
	assert.InDelta(t, 0.15, in.LookPitch, 1e-12)

	assert.Equal(t, 0.0, r.Poll(dt).LookYaw, "deltas reset after poll")
}

func TestPoll_Wheel(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.Wheel(2)

	assert.Equal(t, 2.0, r.Poll(dt).Zoom)
}

func TestPoll_GamepadSticks(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.SetGamepad(padWith(nil, map[int]float64{
		AxisLeftY:  -1,
		AxisRightX: 1,
	}))

	in := r.Poll(dt)
	assert.InDelta(t, 1, in.Move.Z(), 1e-12)
	assert.InDelta(t, -2.5*dt, in.LookYaw, 1e-12)

	r.SetGamepad(padWith(nil, map[int]float64{AxisRightY: 0.1}))
	assert.Equal(t, 0.0, r.Poll(dt).LookPitch, "inside deadzone")
}

func TestPoll_GamepadAndKeyboardMoveCombined(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.KeyDown(KeyW)
	r.SetGamepad(padWith(nil, map[int]float64{AxisLeftY: -1}))

	assert.InDelta(t, 1, r.Poll(dt).Move.Len(), 1e-12)
}

func TestPoll_Triggers(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.SetGamepad(padWith(map[int]float64{ButtonLT: 0.5, ButtonRT: 1}, nil))

	in := r.Poll(dt)
	assert.InDelta(t, 2, in.Sprint, 1e-12)
	assert.InDelta(t, 8, in.FastForward, 1e-12)

	r.SetGamepad(padWith(map[int]float64{ButtonRT: 0.25}, nil))
	assert.InDelta(t, 2.75, r.Poll(dt).FastForward, 1e-12)
}

func TestPoll_GamepadButtonHeldFiresOnce(t *testing.T) {
	r := NewRouter(DefaultConfig())
	held := padWith(map[int]float64{ButtonA: 1, ButtonRB: 1, ButtonDpadUp: 1}, nil)

	toggles, cycles, steps := 0, 0, 0
	for i := 0; i < 10; i++ {
		r.SetGamepad(held)
		in := r.Poll(dt)
		if in.TogglePlay {
			toggles++
		}
		cycles += in.CycleSubject
		steps += in.SpeedStep
	}
	assert.Equal(t, 1, toggles)
	assert.Equal(t, 1, cycles)
	assert.Equal(t, 1, steps)
}

func TestPoll_GamepadDiscreteButtons(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.SetGamepad(padWith(map[int]float64{
		ButtonLB:       1,
		ButtonDpadDown: 1,
		ButtonDpadLeft: 1,
		ButtonY:        1,
		ButtonBack:     1,
	}, nil))

	in := r.Poll(dt)
	assert.Equal(t, -1, in.CycleSubject)
	assert.Equal(t, -1, in.SpeedStep)
	assert.Equal(t, -5.0, in.SkipSeconds)
	assert.True(t, in.CycleMode)
	assert.True(t, in.ToggleOverlays)
}

func TestPoll_GamepadDisconnectIsSilent(t *testing.T) {
	r := NewRouter(DefaultConfig())
	r.SetGamepad(padWith(map[int]float64{ButtonA: 1}, map[int]float64{AxisLeftY: -1}))
	require.True(t, r.Poll(dt).TogglePlay)

	r.SetGamepad(GamepadState{Connected: false})
	r.KeyDown(KeyW)
	in := r.Poll(dt)
	assert.False(t, in.TogglePlay)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, in.Move)
}
