package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/auth"
	"lounge/backend/internal/hub"
	"lounge/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Frame types exchanged over the chat socket.
const (
	FrameJoin        = "join"
	FrameSendMessage = "sendMessage"
	FrameJoined      = "joined"
	FrameMessageSent = "messageSent"
	FrameError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	UserID uint `json:"userId"`
}

type SendMessagePayload struct {
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId"`
	Text       string `json:"text"`
}

type MessageSentPayload struct {
	Message *models.Message `json:"message"`
}

type ErrorPayload struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// wsSession is a middleman between one websocket connection and the hub.
type wsSession struct {
	h       *Handler
	conn    *websocket.Conn
	client  *hub.Client
	userID  uint
	limiter *rate.Limiter
}

// ServeChatWS godoc
// @Summary      Open the live chat socket
// @Description  Upgrades to a websocket. Frames are {"type","payload"}. Send join with your own userId to receive messageReceived events; send sendMessage to deliver a message. Browsers pass the token as a query parameter.
// @Tags         chat
// @Security     BearerAuth
// @Param        token query string false "Bearer token when headers cannot be set"
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Router       /chat/ws [get]
func (h *Handler) ServeChatWS(c *gin.Context) {
	userID, _ := auth.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	s := &wsSession{
		h:       h,
		conn:    conn,
		client:  hub.NewClient(sendBufferSize),
		userID:  userID,
		limiter: rate.NewLimiter(h.wsRate, h.wsBurst),
	}
	h.rooms.Connect(s.client)
	slog.Debug("websocket connected", "client", s.client.ID, "user", userID)

	go s.writePump()
	s.readPump(c.Request.Context())
}

func (s *wsSession) readPump(ctx context.Context) {
	defer func() {
		s.h.rooms.Disconnect(s.client)
		s.conn.Close()
		slog.Debug("websocket disconnected", "client", s.client.ID, "user", s.userID)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "client", s.client.ID, "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			s.sendError(apperror.Invalid("malformed frame"))
			continue
		}

		switch frame.Type {
		case FrameJoin:
			s.handleJoin(frame.Payload)
		case FrameSendMessage:
			s.handleSendMessage(ctx, frame.Payload)
		default:
			s.sendError(apperror.Invalid("unknown frame type " + frame.Type))
		}
	}
}

// writePump handles messages going to the peer.
func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.client.Send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *wsSession) handleJoin(raw json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.UserID == 0 {
		s.sendError(apperror.Invalid("join needs a userId"))
		return
	}
	if p.UserID != s.userID {
		s.sendError(apperror.Unauthorized("cannot join another user's room"))
		return
	}
	if err := s.h.rooms.Join(p.UserID, s.client); err != nil {
		return
	}
	s.h.rooms.SendTo(s.client, hub.Event{Type: FrameJoined, Payload: JoinPayload{UserID: p.UserID}})
}

func (s *wsSession) handleSendMessage(ctx context.Context, raw json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.sendError(apperror.Invalid("malformed sendMessage payload"))
		return
	}
	if p.SenderID == 0 {
		p.SenderID = s.userID
	}
	if p.SenderID != s.userID {
		s.sendError(apperror.Unauthorized("senderId does not match the authenticated user"))
		return
	}
	if !s.limiter.Allow() {
		s.sendError(apperror.Invalid("sending too fast"))
		return
	}

	msg, err := s.h.chat.SendMessage(ctx, p.SenderID, p.ReceiverID, p.Text)
	if err != nil {
		s.sendError(err)
		return
	}
	s.h.rooms.SendTo(s.client, hub.Event{Type: FrameMessageSent, Payload: MessageSentPayload{Message: msg}})
}

func (s *wsSession) sendError(err error) {
	msg := "internal error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	s.h.rooms.SendTo(s.client, hub.Event{
		Type:    FrameError,
		Payload: ErrorPayload{Kind: string(apperror.KindOf(err)), Error: msg},
	})
}
