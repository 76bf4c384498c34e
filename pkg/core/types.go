// pkg/core/types.go
package core

import "strings"

// Position3D represents a 3D coordinate in telemetry space (Z-up)
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"` // up
}

// Team identifies which side a subject played on
type Team string

const (
	TeamNone Team = ""
	TeamRed  Team = "Red"
	TeamBlue Team = "Blue"
)

// ParseTeam normalizes a team cell from a feed. Anything that is not red or
// blue is a free-for-all subject.
func ParseTeam(s string) Team {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "east", "opfor":
		return TeamRed
	case "blue", "west", "blufor":
		return TeamBlue
	default:
		return TeamNone
	}
}

// Color is an sRGB colour
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Subject is a tracked player
type Subject struct {
	ID    string `json:"id"`
	Team  Team   `json:"team,omitempty"`
	Color Color  `json:"color"`
}
