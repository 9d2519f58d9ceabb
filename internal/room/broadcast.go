package room

// Event names on the room's wire surface.
const (
	EventRoomCreated        = "roomCreated"
	EventJoinedRoom         = "joinedRoom"
	EventPlayerJoined       = "playerJoined"
	EventJoinError          = "joinError"
	EventError              = "error"
	EventGameStarted        = "gameStarted"
	EventGameCountdown      = "gameCountdown"
	EventInitialCandles     = "initialCandles"
	EventPriceTick          = "priceTick"
	EventTradeExecuted      = "tradeExecuted"
	EventTradeError         = "tradeError"
	EventUpdateLeaderboard  = "updateLeaderboard"
	EventEndGame            = "endGame"
	EventAdminControlUpdate = "adminControlUpdate"
	EventRoomLocked         = "roomLocked"
	EventPlayerDisconnected = "playerDisconnected"
)

// Broadcaster delivers named events to one player's connection or to every
// connection joined to a room. Delivery is reliable and ordered per
// recipient; nothing is guaranteed about relative timing across recipients.
type Broadcaster interface {
	ToRoom(roomID, event string, payload any)
	ToPlayer(playerID, event string, payload any)
}

// NopBroadcaster discards every event. Useful as a default and in tests
// that only exercise state transitions.
type NopBroadcaster struct{}

func (NopBroadcaster) ToRoom(string, string, any)   {}
func (NopBroadcaster) ToPlayer(string, string, any) {}
