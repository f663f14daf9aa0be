package service

// Publisher pushes realtime events to a user's open connections.
type Publisher interface {
	PublishToUser(userID, event string, payload interface{})
}

// Realtime event names.
const (
	EventChatMessage = "chat.message"
	EventBalance     = "points.balance"
)

type nopPublisher struct{}

func (nopPublisher) PublishToUser(string, string, interface{}) {}

func orNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
