package models

import "encoding/json"

// WSMessage is the envelope for every client → server frame. Payloads are
// kept raw and decoded per-type at the boundary so malformed commands never
// reach the coordinator.
type WSMessage struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutboundMessage is the envelope for server → client frames. The payload is
// a concrete struct (StateSnapshot, MembershipStatus, ...) marshaled in one
// pass with the envelope.
type OutboundMessage struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"roomId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client → Server message types
const (
	MsgTypeJoin          = "join"
	MsgTypeReplaceAgenda = "replaceAgenda"
	MsgTypeSelectItem    = "selectItem"
	MsgTypeStart         = "start"
	MsgTypePause         = "pause"
	MsgTypeReset         = "reset"
	MsgTypeAdjustTime    = "adjustTime"
	MsgTypeSetMessage    = "setMessage"
	MsgTypeClearMessage  = "clearMessage"
)

// Server → Client message types
const (
	MsgTypeStateSnapshot     = "stateSnapshot"     // full state, on every mutation and tick
	MsgTypeMembershipStatus  = "membershipStatus"  // viewer count + controller flag, on join/leave
	MsgTypeControllerEvicted = "controllerEvicted" // sent to a displaced controller
	MsgTypeError             = "error"             // rate-limit notice, never a command failure
)

// JoinPayload declares the role a connection claims for a room.
type JoinPayload struct {
	Role Role `json:"role"`
}

// ReplaceAgendaPayload carries a wholesale agenda replacement. There are no
// partial edits on the wire.
type ReplaceAgendaPayload struct {
	Agenda []TimerItem `json:"agenda"`
}

// SelectItemPayload points the room cursor at an agenda item.
type SelectItemPayload struct {
	ItemID string `json:"itemId"`
}

// AdjustTimePayload shifts the remaining time by whole minutes, which may be
// negative. The result is floored at zero but has no upper cap.
type AdjustTimePayload struct {
	DeltaMinutes int `json:"deltaMinutes"`
}

// SetMessagePayload sets the free-text overlay shown to viewers.
type SetMessagePayload struct {
	Text string `json:"text"`
}
