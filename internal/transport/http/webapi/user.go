package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"envisonet-server-go/internal/domain/staging"
	"envisonet-server-go/internal/platform/logging"
	"envisonet-server-go/internal/platform/storage"
)

// UserHandlers exposes register, login and logout.
type UserHandlers struct {
	logger *logging.Logger
	users  *storage.UserRepository
	auth   *Auth
	area   *staging.Area
	states *storage.StateRepository
}

func NewUserHandlers(logger *logging.Logger, users *storage.UserRepository, auth *Auth, area *staging.Area, states *storage.StateRepository) *UserHandlers {
	return &UserHandlers{
		logger: logger,
		users:  users,
		auth:   auth,
		area:   area,
		states: states,
	}
}

// Register mounts the handlers onto public and secured route groups.
func (h *UserHandlers) Register(public, secured *gin.RouterGroup) {
	public.POST("/register", h.register)
	public.POST("/login", h.login)
	secured.POST("/logout", h.logout)
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	existing, err := h.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.ErrorTag("Auth", "failed to create user %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	h.logger.InfoTag("Auth", "registered user %s", user.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (h *UserHandlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := h.auth.GenerateToken(c, user.ID, user.Username)
	if err != nil {
		h.logger.ErrorTag("Auth", "failed to issue token for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.SetCookie(TokenCookie, token, int(h.auth.ttl.Seconds()), "/", "", false, true)
	h.logger.InfoTag("Auth", "user %s logged in", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"message":  "logged in",
		"token":    token,
		"username": user.Username,
	})
}

// logout revokes the session and discards the user's staged files,
// clearing the file references from the state record with them.
func (h *UserHandlers) logout(c *gin.Context) {
	userID, username := CurrentUser(c)
	token, _ := c.Get("token")

	if tokenStr, ok := token.(string); ok && tokenStr != "" {
		if err := h.auth.Revoke(c, tokenStr); err != nil {
			h.logger.WarnTag("Auth", "failed to revoke session for %s: %v", username, err)
		}
	}
	if err := h.area.Cleanup(username); err != nil {
		h.logger.WarnTag("Auth", "failed to clean staged files for %s: %v", username, err)
	}
	if err := h.states.ClearFiles(c.Request.Context(), userID); err != nil {
		h.logger.WarnTag("Auth", "failed to clear state for %s: %v", username, err)
	}

	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
	h.logger.InfoTag("Auth", "user %s logged out", username)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
