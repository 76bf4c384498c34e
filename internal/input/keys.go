package input

// Key is a keyboard key code. Values follow GLFW: printable keys use their
// ASCII upper-case code, everything else the GLFW constant.
type Key int

const (
	KeySpace Key = 32
	KeyMinus Key = 45
	Key1     Key = 49
	Key2     Key = 50
	Key3     Key = 51
	Key4     Key = 52
	KeyEqual Key = 61 // '=' shares the '+' key
	KeyA     Key = 65
	KeyD     Key = 68
	KeyE     Key = 69
	KeyF     Key = 70
	KeyO     Key = 79
	KeyQ     Key = 81
	KeyS     Key = 83
	KeyW     Key = 87

	KeyEscape     Key = 256
	KeyTab        Key = 258
	KeyRight      Key = 262
	KeyLeft       Key = 263
	KeyDown       Key = 264
	KeyUp         Key = 265
	KeyKPSubtract Key = 333
	KeyKPAdd      Key = 334
	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)

// Gamepad button indices in the standard mapping.
const (
	ButtonA = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonLT
	ButtonRT
	ButtonBack
	ButtonStart
	ButtonLeftStick
	ButtonRightStick
	ButtonDpadUp
	ButtonDpadDown
	ButtonDpadLeft
	ButtonDpadRight

	ButtonCount
)

// Gamepad axis indices in the standard mapping. Stick Y axes read -1 when
// pushed up.
const (
	AxisLeftX = iota
	AxisLeftY
	AxisRightX
	AxisRightY

	AxisCount
)

// GamepadState is one poll of a gamepad. Buttons hold analog values in
// [0,1]; digital buttons read 0 or 1.
type GamepadState struct {
	Connected bool
	Axes      [AxisCount]float64
	Buttons   [ButtonCount]float64
}
