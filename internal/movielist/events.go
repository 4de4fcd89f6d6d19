package movielist

// Event types published on every state transition.
const (
	EventLoading = "movies:loading"
	EventUpdated = "movies:updated"
	EventError   = "movies:error"
)

// Broadcaster receives state events. The websocket hub satisfies it.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, interface{}) {}
