package entity

const (
	EventPlayerAssignment   = "player_assignment"
	EventWaitingForOpponent = "waiting_for_opponent"
	EventStartGame          = "start_game"
	EventGameState          = "game_state"
	EventPlayerLeft         = "player_left"
	EventError              = "error"
)

const (
	MessageWaitingForOpponent = "Waiting for your opponent..."
	MessageGameStarts         = "The game starts!"
)

// Event is an outbound message addressed to one connection.
type Event struct {
	Name    string
	Payload any
}

type AssignmentPayload struct {
	Role Role `json:"role"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type PlayerLeftPayload struct {
	Role Role `json:"role"`
}

func NewAssignmentEvent(role Role) Event {
	return Event{Name: EventPlayerAssignment, Payload: AssignmentPayload{Role: role}}
}

func NewMessageEvent(name, message string) Event {
	return Event{Name: name, Payload: MessagePayload{Message: message}}
}

func NewErrorEvent(message string) Event {
	return NewMessageEvent(EventError, message)
}

func NewGameStateEvent(snapshot Snapshot) Event {
	return Event{Name: EventGameState, Payload: snapshot}
}

func NewPlayerLeftEvent(role Role) Event {
	return Event{Name: EventPlayerLeft, Payload: PlayerLeftPayload{Role: role}}
}
