// internal/storage/ocap/types.go
package ocap

// Export is the root of an OCAP2 v1 recording as written by the recorder
// extension and served to ocap2-web. Only the fields needed for replay are
// decoded.
type Export struct {
	MissionName  string   `json:"missionName"`
	WorldName    string   `json:"worldName"`
	EndFrame     int      `json:"endFrame"`
	CaptureDelay float64  `json:"captureDelay"`
	Entities     []Entity `json:"entities"`
}

// Entity is a soldier or vehicle. Positions[i] is the state at frame
// StartFrameNum+i.
type Entity struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Side          string  `json:"side"`
	IsPlayer      int     `json:"isPlayer"`
	Type          string  `json:"type"`
	StartFrameNum int     `json:"startFrameNum"`
	Positions     [][]any `json:"positions"`
}

// Unit position layout:
// [[x, y, z], bearing, lifestate, inVehicleID, name, isPlayer, role, group, side]
const (
	posCoords = iota
	posBearing
	posLifestate
)

// LifestateDead marks a dead unit in the position array.
const LifestateDead = 2
