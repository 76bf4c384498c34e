// pkg/core/telemetry.go
package core

// Sample is one recorded observation of one subject
type Sample struct {
	SubjectID   string
	Team        Team
	TimeMs      int64
	Position    Position3D
	FacingYaw   float64 // radians
	FacingPitch float64 // radians
	Crouching   bool
	Airborne    bool
	Weapon      string
}

// Pose is the resolved state of a subject at an instant.
// It is either a copy of a recorded sample or an interpolation of two.
type Pose struct {
	SubjectID   string     `json:"subjectId"`
	TimeMs      float64    `json:"timeMs"`
	Position    Position3D `json:"position"`
	FacingYaw   float64    `json:"facingYaw"`
	FacingPitch float64    `json:"facingPitch"`
	Crouching   bool       `json:"crouching"`
	Airborne    bool       `json:"airborne"`
	Weapon      string     `json:"weapon,omitempty"`
}

// PoseFromSample copies a sample into a pose unchanged.
func PoseFromSample(s Sample) Pose {
	return Pose{
		SubjectID:   s.SubjectID,
		TimeMs:      float64(s.TimeMs),
		Position:    s.Position,
		FacingYaw:   s.FacingYaw,
		FacingPitch: s.FacingPitch,
		Crouching:   s.Crouching,
		Airborne:    s.Airborne,
		Weapon:      s.Weapon,
	}
}
