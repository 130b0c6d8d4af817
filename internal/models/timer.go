package models

// TimerItem is a single agenda entry. The agenda slice position is the
// authoritative presentation order; Order is a display rank carried for the
// UI and never used by the coordinator to re-sort.
type TimerItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // nominal length in seconds, always > 0
	Order    int    `json:"order"`
	IsPause  bool   `json:"isPause"`
}

// StateSnapshot is the full room state pushed to every member on each
// mutation and on each clock tick. Snapshots are always complete, never
// deltas, so late joiners and slow clients can't drift.
type StateSnapshot struct {
	Agenda          []TimerItem `json:"agenda"`
	CurrentItemID   *string     `json:"currentItemId"`
	CurrentTimeLeft int         `json:"currentTimeLeft"`
	IsRunning       bool        `json:"isRunning"`
	Message         *string     `json:"message"`
}

// MembershipStatus is broadcast to a room whenever a connection joins or
// leaves it.
type MembershipStatus struct {
	ViewerCount   int  `json:"viewerCount"`
	HasController bool `json:"hasController"`
}

// Role is the capability a connection claims when joining a room.
type Role string

const (
	RoleController Role = "controller"
	RoleViewer     Role = "viewer"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleController || r == RoleViewer
}
