package handler

import (
	"net/http"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/auth"
	"lounge/backend/internal/directory"
	"lounge/backend/internal/relation"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type SendRequestInput struct {
	InviteCode string `json:"inviteCode" binding:"required" example:"LG000042"`
}

type RespondRequestInput struct {
	RequesterID uint   `json:"requesterId" binding:"required" example:"7"`
	Action      string `json:"action" binding:"required,oneof=accept reject" example:"accept"`
}

type WithdrawRequestInput struct {
	TargetID uint `json:"targetId" example:"42"`
}

type RemoveFriendInput struct {
	FriendID uint `json:"friendId" binding:"required" example:"42"`
}

// MessageResponse is the acknowledgement of a friend operation.
type MessageResponse struct {
	Message string `json:"message" example:"Friend request sent"`
}

// SendRequestResponse tells the sender whether a request was opened or the
// pair became friends right away.
type SendRequestResponse struct {
	Message      string `json:"message" example:"Friend request sent"`
	TargetID     uint   `json:"targetId" example:"42"`
	AutoAccepted bool   `json:"autoAccepted"`
}

type InviteCodeResponse struct {
	InviteCode string `json:"inviteCode" example:"LG000042"`
}

// endregion

// SendFriendRequest godoc
// @Summary      Send a friend request
// @Description  Sends a friend request to the owner of an invite code. If that user already asked the caller, both become friends.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendRequestInput true "Invite code of the target"
// @Success      200  {object}  SendRequestResponse
// @Failure      400  {object}  ErrorResponse "Self request, duplicate request or already friends"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Unknown invite code"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/send-request [post]
func (h *Handler) SendFriendRequest(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.friends.SendRequest(c.Request.Context(), userID, input.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}

	msg := "Friend request sent"
	if res.AutoAccepted {
		msg = "Friend request accepted"
	}
	c.JSON(http.StatusOK, SendRequestResponse{Message: msg, TargetID: res.TargetID, AutoAccepted: res.AutoAccepted})
}

// RespondFriendRequest godoc
// @Summary      Accept or reject a friend request
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RespondRequestInput true "Requester and decision"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "No such pending request"
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/respond-request [post]
func (h *Handler) RespondFriendRequest(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input RespondRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	action := relation.Action(input.Action)
	if err := h.friends.Respond(c.Request.Context(), userID, input.RequesterID, action); err != nil {
		// A missing request is the caller's mistake here, not a missing resource.
		if apperror.Is(err, apperror.KindNotFound) {
			respondErrorStatus(c, http.StatusBadRequest, err)
			return
		}
		respondError(c, err)
		return
	}

	msg := "Friend request accepted"
	if action == relation.ActionReject {
		msg = "Friend request rejected"
	}
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

// WithdrawFriendRequest godoc
// @Summary      Withdraw a sent friend request
// @Description  Idempotent: withdrawing a request that does not exist succeeds.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body WithdrawRequestInput true "Target of the request"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/withdraw-request [post]
func (h *Handler) WithdrawFriendRequest(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input WithdrawRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.friends.Withdraw(c.Request.Context(), userID, input.TargetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend request withdrawn"})
}

// RemoveFriend godoc
// @Summary      Remove a friend
// @Description  Idempotent: removing someone who is not a friend succeeds.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body RemoveFriendInput true "Friend to remove"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/remove-friend [post]
func (h *Handler) RemoveFriend(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var input RemoveFriendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.friends.Remove(c.Request.Context(), userID, input.FriendID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Friend removed"})
}

// GetFriends godoc
// @Summary      List friends
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   directory.Profile
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/friends-list [get]
func (h *Handler) GetFriends(c *gin.Context) {
	h.listRelations(c, relation.ListFriends)
}

// GetSentRequests godoc
// @Summary      List pending requests the caller sent
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   directory.Profile
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/sent [get]
func (h *Handler) GetSentRequests(c *gin.Context) {
	h.listRelations(c, relation.ListSent)
}

// GetReceivedRequests godoc
// @Summary      List pending requests the caller received
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   directory.Profile
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/received [get]
func (h *Handler) GetReceivedRequests(c *gin.Context) {
	h.listRelations(c, relation.ListReceived)
}

func (h *Handler) listRelations(c *gin.Context, which relation.ListKind) {
	userID, _ := auth.UserID(c)

	profiles, err := h.friends.List(c.Request.Context(), userID, which)
	if err != nil {
		respondError(c, err)
		return
	}
	if profiles == nil {
		profiles = []directory.Profile{}
	}
	c.JSON(http.StatusOK, profiles)
}

// GetInviteCode godoc
// @Summary      Get the caller's invite code
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  InviteCodeResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/invite-code [get]
func (h *Handler) GetInviteCode(c *gin.Context) {
	userID, _ := auth.UserID(c)

	user, err := h.users.User(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, InviteCodeResponse{InviteCode: user.Code()})
}

// GenerateInviteCode godoc
// @Summary      Store and return the caller's invite code
// @Description  Codes derive from the user id, so generating again returns the same code.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  InviteCodeResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/generate-invite-code [post]
func (h *Handler) GenerateInviteCode(c *gin.Context) {
	userID, _ := auth.UserID(c)

	code, err := h.users.EnsureInviteCode(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, InviteCodeResponse{InviteCode: code})
}
