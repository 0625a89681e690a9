package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// IdempotencyTTL is how long a used Idempotency-Key is remembered.
const IdempotencyTTL = 24 * time.Hour

type SendMessageInput struct {
	// SenderID defaults to the caller and must match it when given.
	SenderID   uint   `json:"senderId" example:"7"`
	ReceiverID uint   `json:"receiverId" binding:"required" example:"42"`
	Text       string `json:"text" binding:"required" example:"hi"`
}

// SendMessage godoc
// @Summary      Store a direct message
// @Description  Persists a message without pushing it to live connections. Repeating an Idempotency-Key within a day is rejected.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Client generated key for safe retries"
// @Param        input body SendMessageInput true "Message"
// @Success      201  {object}  models.Message
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /chat/send [post]
func (h *Handler) SendMessage(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if input.SenderID == 0 {
		input.SenderID = userID
	}
	if input.SenderID != userID {
		respondError(c, apperror.Unauthorized("senderId does not match the authenticated user"))
		return
	}

	if key := strings.TrimSpace(c.GetHeader("Idempotency-Key")); key != "" && h.idem != nil {
		fresh, err := h.idem.PutNX(c.Request.Context(), fmt.Sprintf("chat:%d:%s", userID, key), IdempotencyTTL)
		switch {
		case err != nil:
			slog.Warn("idempotency store unavailable, accepting request", "user", userID, "error", err)
		case !fresh:
			respondError(c, apperror.Conflict("duplicate request for this Idempotency-Key"))
			return
		}
	}

	msg, err := h.chat.Append(c.Request.Context(), input.SenderID, input.ReceiverID, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetConversation godoc
// @Summary      Get the messages between two users
// @Description  Oldest first. The caller must be one of the two users.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        idA  path      int  true  "User ID"
// @Param        idB  path      int  true  "User ID"
// @Success      200  {array}   models.Message
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /chat/conversation/{idA}/{idB} [get]
func (h *Handler) GetConversation(c *gin.Context) {
	userID, _ := auth.UserID(c)

	a, errA := strconv.ParseUint(c.Param("idA"), 10, 32)
	b, errB := strconv.ParseUint(c.Param("idB"), 10, 32)
	if errA != nil || errB != nil {
		respondError(c, apperror.Invalid("invalid user ID"))
		return
	}
	if uint(a) != userID && uint(b) != userID {
		respondError(c, apperror.Unauthorized("not a participant of this conversation"))
		return
	}

	messages, err := h.chat.History(c.Request.Context(), uint(a), uint(b))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
