package realtime

import "context"

// Event names pushed to clients.
const (
	EventNewOrder          = "newOrder"
	EventOrderCreated      = "order-created"
	EventNewNotification   = "newNotification"
	EventOrderApproved     = "orderApproved"
	EventOrderApprovedSelf = "order-approved"
	EventTableStatusUpdate = "tableStatusUpdate"
)

type AudienceKind string

const (
	AudienceBroadcast AudienceKind = "broadcast"
	AudienceStaff     AudienceKind = "staff"
	AudienceSession   AudienceKind = "session"
)

// Audience selects the room an event is delivered to.
type Audience struct {
	Kind      AudienceKind
	SessionID string
}

func Broadcast() Audience { return Audience{Kind: AudienceBroadcast} }

func Staff() Audience { return Audience{Kind: AudienceStaff} }

func Session(id string) Audience { return Audience{Kind: AudienceSession, SessionID: id} }

// Key is the room name, also used as the broker routing key.
func (a Audience) Key() string {
	if a.Kind == AudienceSession {
		return "session:" + a.SessionID
	}
	return string(a.Kind)
}

type Message struct {
	Event    string
	Audience Audience
	Payload  any
}

// envelope is the wire shape of a pushed event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Publisher delivers messages at most once; there is no acknowledgment or retry.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}
