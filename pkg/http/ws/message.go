package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeFindMatch          = "find_match"
	TypeCancelSearch       = "cancel_search"
	TypeCreatePrivateLobby = "create_private_lobby"
	TypeJoinPrivateLobby   = "join_private_lobby"
	TypeSendMessage        = "send_message"
	TypePlayerWon          = "player_won"

	// Server -> Client
	TypeWaiting           = "waiting"
	TypeMatchFound        = "match_found"
	TypeLobbyCreated      = "lobby_created"
	TypeReceiveMessage    = "receive_message"
	TypeMatchOver         = "match_over"
	TypeUserDisconnected  = "user-disconnected"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		msg.Payload = json.RawMessage("{}")
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type FindMatchPayload struct {
	UserAuthID string `json:"userAuthId"`
	Mode       string `json:"mode"`
}

type CreatePrivateLobbyPayload struct {
	UserAuthID string `json:"userAuthId"`
}

type JoinPrivateLobbyPayload struct {
	RoomID     string `json:"roomId"`
	UserAuthID string `json:"userAuthId"`
}

type SendMessagePayload struct {
	RoomID   string `json:"roomId"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type PlayerWonPayload struct {
	RoomID     string `json:"roomId"`
	ProblemID  string `json:"problemId"`
	UserAuthID string `json:"userAuthId"`
}

// Server Messages (outgoing)

type WaitingPayload struct {
	Message string `json:"message"`
	Tier    string `json:"tier,omitempty"`
}

type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Rank     string `json:"rank"`
	Points   int    `json:"points"`
}

type MatchFoundPayload struct {
	RoomID    string   `json:"roomId"`
	ProblemID string   `json:"problemId"`
	IsRanked  bool     `json:"isRanked"`
	Players   []Player `json:"players"`
}

type LobbyCreatedPayload struct {
	RoomID string `json:"roomId"`
}

type ReceiveMessagePayload struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

type ResultDetails struct {
	UserID       string `json:"userId"`
	PointsChange int    `json:"pointsChange"`
	NewPoints    int    `json:"newPoints"`
	NewRank      string `json:"newRank"`
}

type MatchOverPayload struct {
	WinnerID    string         `json:"winnerId"`
	IsRanked    bool           `json:"isRanked"`
	WinDetails  *ResultDetails `json:"winDetails"`
	LoseDetails *ResultDetails `json:"loseDetails"`
	ProblemID   string         `json:"problemId"`
}

type UserDisconnectedPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
