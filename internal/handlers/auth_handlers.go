package handlers

import (
	"errors"
	"net/http"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/middleware"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves registration, verification, login, and session
// endpoints
type AuthHandler struct {
	users        *services.UserService
	verification *services.VerificationService
	sessions     *services.SessionService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(users *services.UserService, verification *services.VerificationService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{users: users, verification: verification, sessions: sessions}
}

// RegisterRequest is the body for POST /auth/register
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// Register godoc
// @Summary Start registration
// @Description Sends a verification code; the account is created only after the code is verified
// @Tags auth
// @Accept json
// @Produce json
// @Param data body RegisterRequest true "Account details"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := h.users.BeginRegistration(c.Request.Context(), req.Email, req.Username, req.Password, req.DisplayName, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailTaken), errors.Is(err, models.ErrUsernameTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrRateLimitExceeded):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
		default:
			logging.Logger.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start registration"})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Verification code sent"})
}

// RequestCodeRequest is the body for POST /auth/request-code
type RequestCodeRequest struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

// RequestCode godoc
// @Summary Request a verification code
// @Description Issues a code for password reset or login verification
// @Tags auth
// @Accept json
// @Produce json
// @Param data body RequestCodeRequest true "Email and purpose"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/request-code [post]
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	purpose := models.VerificationPurpose(req.Purpose)
	var err error
	switch purpose {
	case models.PurposePasswordReset:
		err = h.users.BeginPasswordReset(c.Request.Context(), req.Email, c.ClientIP(), c.Request.UserAgent())
	case models.PurposeLoginVerification:
		err = h.users.BeginLoginVerification(c.Request.Context(), req.Email, c.ClientIP(), c.Request.UserAgent())
	default:
		// Registration codes are only issued through /auth/register
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid purpose"})
		return
	}

	if err != nil {
		if errors.Is(err, models.ErrRateLimitExceeded) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to issue verification code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to send verification code"})
		return
	}

	// Same response whether or not the address holds an account
	c.JSON(http.StatusOK, SuccessResponse{Message: "Verification code sent if the address is registered"})
}

// VerifyCodeRequest is the body for POST /auth/verify
type VerifyCodeRequest struct {
	Email   string `json:"email" binding:"required"`
	Code    string `json:"code" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
	// NewPassword is required for password_reset verifications
	NewPassword string `json:"new_password"`
}

// SessionResponse returns the session token after a successful
// authentication
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      *models.User `json:"user,omitempty"`
}

// VerifyCode godoc
// @Summary Verify a code
// @Description Validates a verification code and completes the pending workflow
// @Tags auth
// @Accept json
// @Produce json
// @Param data body VerifyCodeRequest true "Email, code, and purpose"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	purpose := models.VerificationPurpose(req.Purpose)
	result, err := h.verification.VerifyCode(c.Request.Context(), req.Email, req.Code, purpose, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.writeVerificationError(c, err)
		return
	}

	switch purpose {
	case models.PurposeRegistration:
		user, err := h.users.CompleteRegistration(c.Request.Context(), result)
		if err != nil {
			logging.Logger.Error("failed to complete registration", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to complete registration"})
			return
		}
		h.writeSession(c, user)

	case models.PurposePasswordReset:
		if req.NewPassword == "" || len(req.NewPassword) < 8 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "new_password must be at least 8 characters"})
			return
		}
		if err := h.users.CompletePasswordReset(c.Request.Context(), result, req.NewPassword); err != nil {
			logging.Logger.Error("failed to complete password reset", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to reset password"})
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Message: "Password updated, sign in again"})

	case models.PurposeLoginVerification:
		user, err := h.users.CompleteLoginVerification(c.Request.Context(), result)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrUserBanned):
				c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
			case errors.Is(err, models.ErrUserNotFound):
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: models.ErrInvalidOrExpiredCode.Error()})
			default:
				logging.Logger.Error("failed to complete login verification", zap.Error(err))
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign in"})
			}
			return
		}
		h.writeSession(c, user)

	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid purpose"})
	}
}

func (h *AuthHandler) writeSession(c *gin.Context, user *models.User) {
	session, err := h.sessions.Create(c.Request.Context(), user.ID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logging.Logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:      user,
	})
}

func (h *AuthHandler) writeVerificationError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		switch {
		case errors.Is(err, models.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: models.ErrTooManyAttempts.Error()})
		default:
			resp := ErrorResponse{Error: models.ErrInvalidOrExpiredCode.Error()}
			if validationErr.RemainingAttempts > 0 {
				remaining := validationErr.RemainingAttempts
				resp.RemainingAttempts = &remaining
			}
			c.JSON(http.StatusBadRequest, resp)
		}
		return
	}

	if errors.Is(err, models.ErrInvalidPurpose) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid purpose"})
		return
	}

	logging.Logger.Error("failed to verify code", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to validate verification code"})
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Sign in
// @Description Authenticates credentials and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param data body LoginRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrUserBanned):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		default:
			logging.Logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign in"})
		}
		return
	}

	h.writeSession(c, user)
}

// Logout godoc
// @Summary Sign out
// @Description Terminates the current session
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.sessions.Terminate(c.Request.Context(), session.Token); err != nil {
		logging.Logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

// LogoutAll godoc
// @Summary Sign out everywhere
// @Description Terminates every session of the current user
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if _, err := h.sessions.TerminateAll(c.Request.Context(), user.ID); err != nil {
		logging.Logger.Error("logout-all failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "All sessions terminated"})
}
