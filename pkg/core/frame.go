// pkg/core/frame.go
package core

import "github.com/go-gl/mathgl/mgl64"

// CameraMode selects the camera update rule
type CameraMode string

const (
	CameraFree   CameraMode = "free"
	CameraFollow CameraMode = "follow"
	CameraOrbit  CameraMode = "orbit"
	CameraTop    CameraMode = "top"
)

// CameraModes lists the modes in cycling order.
var CameraModes = []CameraMode{CameraFree, CameraFollow, CameraOrbit, CameraTop}

// ClockStatus is the playback clock as seen by a scrub bar
type ClockStatus struct {
	CurrentTimeMs  float64 `json:"currentTimeMs"`
	StartTimeMs    int64   `json:"startTimeMs"`
	DurationMs     int64   `json:"durationMs"`
	Playing        bool    `json:"playing"`
	BaseSpeed      float64 `json:"baseSpeed"`
	EffectiveSpeed float64 `json:"effectiveSpeed"`
}

// CameraView is the camera in render space (Y-up)
type CameraView struct {
	Mode     CameraMode `json:"mode"`
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
	FollowID string     `json:"followId,omitempty"`
}

// SubjectFrame is one subject's resolved state for a frame.
// Pose is nil when the subject has no data at all.
type SubjectFrame struct {
	Subject        Subject      `json:"subject"`
	Pose           *Pose        `json:"pose,omitempty"`
	HasData        bool         `json:"hasData"`
	Dead           bool         `json:"dead"`
	HasPosition    bool         `json:"hasPosition"`
	RenderPosition mgl64.Vec3   `json:"renderPosition"`
	Trail          []mgl64.Vec3 `json:"trail,omitempty"`
}

// Frame is everything a render adapter needs to draw one tick
type Frame struct {
	Seq      uint64         `json:"seq"`
	Clock    ClockStatus    `json:"clock"`
	Camera   CameraView     `json:"camera"`
	Subjects []SubjectFrame `json:"subjects"`
	Overlays bool           `json:"overlays"`
}
