package streaming

import (
	"encoding/json"

	"github.com/carnagereport/theater/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartReplay = "start_replay"
	TypeEndReplay   = "end_replay"
	TypeFrame       = "frame"
	// TypeCommand flows from the render adapter back to the engine.
	TypeCommand = "command"
	TypeAck     = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartReplayPayload describes the replay about to be streamed.
type StartReplayPayload struct {
	SessionID   string         `json:"sessionId"`
	ReplayID    string         `json:"replayId"`
	StartTimeMs int64          `json:"startTimeMs"`
	DurationMs  int64          `json:"durationMs"`
	Subjects    []core.Subject `json:"subjects"`
}

// CommandPayload is a console line sent by the render adapter, e.g.
// ":SEEK: 1000".
type CommandPayload struct {
	Line string `json:"line"`
}
