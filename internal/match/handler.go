package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth/jwt"
	ws "github.com/codeduel/platform/pkg/http/ws"
	httperrors "github.com/codeduel/platform/pkg/http/errors"
)

// TokenValidator authenticates the token presented on the upgrade request.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Handler manages WebSocket connections and routes match-related messages.
type Handler struct {
	engine  *Engine
	hub     *ws.Hub
	authSvc TokenValidator
	logger  zerolog.Logger
}

// NewHandler creates a match WebSocket handler.
func NewHandler(engine *Engine, hub *ws.Hub, authSvc TokenValidator, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		hub:     hub,
		authSvc: authSvc,
		logger:  logger,
	}
}

// HandleConnection serves an authenticated connection until it closes.
func (h *Handler) HandleConnection(conn *websocket.Conn, claims *jwt.Claims) {
	s := Session{ConnID: uuid.NewString(), UserID: claims.UserID, Username: claims.Name}
	logger := h.logger.With().Str("conn_id", s.ConnID).Str("user_id", s.UserID.String()).Logger()

	wsConn := ws.NewConnection(conn, logger)
	h.hub.Register(s.ConnID, wsConn)
	logger.Info().Msg("client connected")

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), s, msg)
	})

	h.engine.Disconnect(s.ConnID)
	h.hub.Unregister(s.ConnID)
	logger.Info().Msg("client disconnected")
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, s Session, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeFindMatch:
		return h.handleFindMatch(ctx, s, msg.Payload)
	case ws.TypeCancelSearch:
		h.engine.CancelSearch(s.ConnID)
		return nil
	case ws.TypeCreatePrivateLobby:
		return h.handleCreateLobby(ctx, s, msg.Payload)
	case ws.TypeJoinPrivateLobby:
		return h.handleJoinLobby(ctx, s, msg.Payload)
	case ws.TypeSendMessage:
		return h.handleSendMessage(s, msg.Payload)
	case ws.TypePlayerWon:
		return h.handlePlayerWon(ctx, s, msg.Payload)
	default:
		return h.sendError(s, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleFindMatch(ctx context.Context, s Session, payload json.RawMessage) error {
	var req ws.FindMatchPayload
	if err := decode(payload, &req); err != nil {
		return h.sendError(s, httperrors.ErrCodeInvalidPayload, "Invalid find_match payload")
	}
	if err := checkIdentity(s, req.UserAuthID); err != nil {
		return h.sendError(s, httperrors.ErrCodeIdentityMismatch, err.Error())
	}

	err := h.engine.FindMatch(ctx, s, req.Mode)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidMode):
		return h.sendError(s, httperrors.ErrCodeInvalidMode, "Mode must be ranked or casual")
	default:
		h.logger.Error().Err(err).Str("user_id", s.UserID.String()).Msg("find match failed")
		return h.sendError(s, httperrors.ErrCodeEnqueueFailed, "Could not start the search")
	}
}

func (h *Handler) handleCreateLobby(ctx context.Context, s Session, payload json.RawMessage) error {
	var req ws.CreatePrivateLobbyPayload
	if err := decode(payload, &req); err != nil {
		return h.sendError(s, httperrors.ErrCodeInvalidPayload, "Invalid create_private_lobby payload")
	}
	if err := checkIdentity(s, req.UserAuthID); err != nil {
		return h.sendError(s, httperrors.ErrCodeIdentityMismatch, err.Error())
	}

	if _, err := h.engine.CreateLobby(ctx, s); err != nil {
		h.logger.Error().Err(err).Str("user_id", s.UserID.String()).Msg("create lobby failed")
		return h.sendError(s, httperrors.ErrCodeLobbyCreationFailed, "Could not create the lobby")
	}
	return nil
}

func (h *Handler) handleJoinLobby(ctx context.Context, s Session, payload json.RawMessage) error {
	var req ws.JoinPrivateLobbyPayload
	if err := decode(payload, &req); err != nil || req.RoomID == "" {
		return h.sendError(s, httperrors.ErrCodeInvalidPayload, "Invalid join_private_lobby payload")
	}
	if err := checkIdentity(s, req.UserAuthID); err != nil {
		return h.sendError(s, httperrors.ErrCodeIdentityMismatch, err.Error())
	}

	err := h.engine.JoinLobby(ctx, s, req.RoomID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRoomNotFound):
		return h.sendError(s, httperrors.ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, ErrRoomNotWaiting):
		return h.sendError(s, httperrors.ErrCodeRoomNotWaiting, "Room is full or already started")
	default:
		h.logger.Error().Err(err).Str("room_id", req.RoomID).Msg("join lobby failed")
		return h.sendError(s, httperrors.ErrCodeJoinFailed, "Could not join the room")
	}
}

func (h *Handler) handleSendMessage(s Session, payload json.RawMessage) error {
	var req ws.SendMessagePayload
	if err := decode(payload, &req); err != nil || req.RoomID == "" {
		return h.sendError(s, httperrors.ErrCodeInvalidPayload, "Invalid send_message payload")
	}
	h.engine.RelayMessage(s, req.RoomID, req.Message, req.Username)
	return nil
}

func (h *Handler) handlePlayerWon(ctx context.Context, s Session, payload json.RawMessage) error {
	var req ws.PlayerWonPayload
	if err := decode(payload, &req); err != nil || req.RoomID == "" {
		return h.sendError(s, httperrors.ErrCodeInvalidPayload, "Invalid player_won payload")
	}
	if err := checkIdentity(s, req.UserAuthID); err != nil {
		return h.sendError(s, httperrors.ErrCodeIdentityMismatch, err.Error())
	}
	return h.engine.ReportWin(ctx, req.RoomID, s.UserID)
}

func (h *Handler) sendError(s Session, code, message string) error {
	return h.hub.Send(s.ConnID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}

// checkIdentity rejects payloads that name a user other than the authenticated one.
// An omitted id defaults to the connection's user.
func checkIdentity(s Session, userAuthID string) error {
	if userAuthID == "" || userAuthID == s.UserID.String() {
		return nil
	}
	return ErrIdentityMismatch
}

func decode(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}
