package service

// Push message types sent to session subscribers
const (
	MsgState        = "state"
	MsgAchievements = "achievements"
	MsgError        = "error"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
