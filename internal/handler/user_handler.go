package handler

import (
	"net/http"
	"strings"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/auth"
	"lounge/backend/internal/directory"
	"lounge/backend/internal/models"
	"lounge/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"testuser"`
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	directory.Profile
	FriendsCount          int `json:"friendsCount"`
	SentRequestsCount     int `json:"sentRequestsCount"`
	ReceivedRequestsCount int `json:"receivedRequestsCount"`
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	var existing int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("username = ? OR email = ?", input.Username, input.Email).
		Count(&existing).Error
	if err != nil {
		respondError(c, apperror.Storage("failed to check existing users", err))
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already exists", Kind: string(apperror.KindConflict)})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperror.Storage("failed to hash password", err))
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		respondError(c, apperror.Storage("failed to create user", errors.Wrap(err, "insert user")))
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		respondError(c, apperror.Storage("failed to generate token", err))
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", input.Login, strings.ToLower(input.Login)).
		First(&user).Error
	// Unknown users and wrong passwords look the same to the caller.
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		respondError(c, apperror.Unauthorized("Invalid credentials"))
		return
	}

	token, err := jwt.GenerateToken(user.ID)
	if err != nil {
		respondError(c, apperror.Storage("failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for users by username with pagination. The caller is left out.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[directory.Profile]
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	viewerID, _ := auth.UserID(c)
	page, limit := pageParams(c)

	query := h.db.WithContext(c.Request.Context()).Where("id <> ?", viewerID).Order("id ASC")
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	users, err := Paginate[models.User](query, page, limit)
	if err != nil {
		respondError(c, apperror.Storage("failed to retrieve users", err))
		return
	}

	profiles := make([]directory.Profile, len(users.Data))
	for i, u := range users.Data {
		profiles[i] = directory.ProfileOf(u)
	}
	c.JSON(http.StatusOK, PaginatedResponse[directory.Profile]{Data: profiles, Meta: users.Meta})
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	viewerID, _ := auth.UserID(c)
	ctx := c.Request.Context()

	user, err := h.users.User(ctx, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}
	record, err := h.friends.Record(ctx, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PrivateUserResponse{
		Profile:               directory.ProfileOf(*user),
		FriendsCount:          len(record.Friends),
		SentRequestsCount:     len(record.SentRequests),
		ReceivedRequestsCount: len(record.FriendRequests),
	})
}

// endregion
