package handlers

import (
	"errors"
	"net/http"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler serves moderation and security endpoints
type AdminHandler struct {
	stories      *services.StoryService
	reviews      *services.ReviewService
	users        *services.UserService
	events       *services.SecurityEventService
	verification *services.VerificationService
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(stories *services.StoryService, reviews *services.ReviewService, users *services.UserService, events *services.SecurityEventService, verification *services.VerificationService) *AdminHandler {
	return &AdminHandler{
		stories:      stories,
		reviews:      reviews,
		users:        users,
		events:       events,
		verification: verification,
	}
}

// FlaggedStories godoc
// @Summary List flagged stories
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Story
// @Router /admin/stories/flagged [get]
func (h *AdminHandler) FlaggedStories(c *gin.Context) {
	stories, err := h.stories.ListFlagged(c.Request.Context(), parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list flagged stories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list flagged stories"})
		return
	}
	c.JSON(http.StatusOK, stories)
}

// FlaggedReviews godoc
// @Summary List flagged reviews
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.Review
// @Router /admin/reviews/flagged [get]
func (h *AdminHandler) FlaggedReviews(c *gin.Context) {
	reviews, err := h.reviews.ListFlagged(c.Request.Context(), parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list flagged reviews", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list flagged reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// RemoveStory godoc
// @Summary Remove a story from the catalog
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Story id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/stories/{id} [delete]
func (h *AdminHandler) RemoveStory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.stories.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to remove story", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to remove story"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Story removed"})
}

// BanUser godoc
// @Summary Ban a user
// @Description Blocks the account and revokes all of its sessions
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (h *AdminHandler) BanUser(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Ban(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to ban user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to ban user"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "User banned"})
}

// SecurityEvents godoc
// @Summary List security events
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param kind query string false "Event kind"
// @Param limit query int false "Max results"
// @Success 200 {array} models.SecurityEvent
// @Router /admin/security-events [get]
func (h *AdminHandler) SecurityEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context(), c.Query("kind"), parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list security events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list security events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// SweepResponse reports how many records a sweep removed
type SweepResponse struct {
	Removed int64 `json:"removed"`
}

// SweepVerificationCodes godoc
// @Summary Remove expired verification codes
// @Description The TTL index reaps these passively; this endpoint forces a sweep
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SweepResponse
// @Router /admin/verification/sweep [post]
func (h *AdminHandler) SweepVerificationCodes(c *gin.Context) {
	removed, err := h.verification.SweepExpired(c.Request.Context())
	if err != nil {
		logging.Logger.Error("failed to sweep verification codes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sweep verification codes"})
		return
	}
	c.JSON(http.StatusOK, SweepResponse{Removed: removed})
}
