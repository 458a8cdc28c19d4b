package domain

// PresenceStatus is the online state the relay reports for a user.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// PresenceEntry is one row of the roster pushed in a user_list frame.
type PresenceEntry struct {
	Nickname string         `json:"nickname"`
	Status   PresenceStatus `json:"status"`
}
