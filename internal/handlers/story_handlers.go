package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/middleware"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StoryHandler serves the catalog and play endpoints
type StoryHandler struct {
	stories *services.StoryService
	reviews *services.ReviewService
}

// NewStoryHandler creates a StoryHandler
func NewStoryHandler(stories *services.StoryService, reviews *services.ReviewService) *StoryHandler {
	return &StoryHandler{stories: stories, reviews: reviews}
}

func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil {
		return 50
	}
	return limit
}

// List godoc
// @Summary List published stories
// @Tags stories
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Story
// @Router /stories [get]
func (h *StoryHandler) List(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context(), parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list stories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list stories"})
		return
	}
	c.JSON(http.StatusOK, stories)
}

// Get godoc
// @Summary Get a story
// @Tags stories
// @Produce json
// @Param id path string true "Story id"
// @Success 200 {object} models.Story
// @Failure 404 {object} ErrorResponse
// @Router /stories/{id} [get]
func (h *StoryHandler) Get(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	story, err := h.stories.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to load story", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load story"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// Play godoc
// @Summary Start or resume a story
// @Tags stories
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Story id"
// @Success 200 {object} models.PlaySession
// @Failure 404 {object} ErrorResponse
// @Router /stories/{id}/play [post]
func (h *StoryHandler) Play(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	play, err := h.stories.StartPlay(c.Request.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to start play", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start story"})
		return
	}
	c.JSON(http.StatusOK, play)
}

// ChooseRequest is the body for POST /stories/{id}/choose
type ChooseRequest struct {
	NextNodeID string `json:"next_node_id" binding:"required"`
}

// Choose godoc
// @Summary Make a choice
// @Description Advances the play session through the chosen branch, spending one credit
// @Tags stories
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Story id"
// @Param data body ChooseRequest true "Chosen branch"
// @Success 200 {object} models.PlaySession
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Router /stories/{id}/choose [post]
func (h *StoryHandler) Choose(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req ChooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	play, err := h.stories.Choose(c.Request.Context(), user.ID, id, req.NextNodeID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientCredits):
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrInvalidChoice), errors.Is(err, models.ErrNodeNotFound), errors.Is(err, models.ErrStoryNotPlayed):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrStoryNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			logging.Logger.Error("failed to make choice", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to make choice"})
		}
		return
	}
	c.JSON(http.StatusOK, play)
}

// CreateReviewRequest is the body for POST /stories/{id}/reviews
type CreateReviewRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Text   string `json:"text"`
}

// CreateReview godoc
// @Summary Review a story
// @Tags reviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Story id"
// @Param data body CreateReviewRequest true "Rating and text"
// @Success 200 {object} models.Review
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /stories/{id}/reviews [post]
func (h *StoryHandler) CreateReview(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), user.ID, id, req.Rating, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrReviewExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrStoryNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		default:
			logging.Logger.Error("failed to create review", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create review"})
		}
		return
	}
	c.JSON(http.StatusOK, review)
}

// ListReviews godoc
// @Summary List reviews for a story
// @Tags reviews
// @Produce json
// @Param id path string true "Story id"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Review
// @Router /stories/{id}/reviews [get]
func (h *StoryHandler) ListReviews(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListByStory(c.Request.Context(), id, parseLimit(c))
	if err != nil {
		logging.Logger.Error("failed to list reviews", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// Flag godoc
// @Summary Flag a story for moderation
// @Tags stories
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Story id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /stories/{id}/flag [post]
func (h *StoryHandler) Flag(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.stories.Flag(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Logger.Error("failed to flag story", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to flag story"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Story flagged for moderation"})
}
