package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/electives/internal/app/models"
	"github.com/yigit/electives/internal/app/models/dto"
)

const sendBufferSize = 256

// SubjectLister provides the snapshot sent to a client right after it connects
type SubjectLister interface {
	ListSubjects(ctx context.Context) ([]models.SubjectOccupancy, error)
}

// Handler upgrades authenticated requests to the occupancy feed
type Handler struct {
	hub      *Hub
	subjects SubjectLister
	logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, subjects SubjectLister, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		subjects: subjects,
		logger:   logger,
	}
}

// HandleConnection godoc
// @Summary Live subject occupancy feed
// @Description Upgrades to a WebSocket that first receives one occupancy event per subject, then one event per committed change
// @Tags subjects
// @Security BearerAuth
// @Param token query string false "JWT, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /subjects/live [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	// Set by the JWT middleware
	userID := c.GetInt64("userID")

	subjects, err := h.subjects.ListSubjects(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to load occupancy snapshot")
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "Occupancy snapshot unavailable")))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		logger: h.logger,
	}
	for _, s := range subjects {
		if len(client.send) == cap(client.send) {
			break
		}
		data, err := json.Marshal(NewOccupancyEvent(s.ID, s.Occupancy, s.Capacity))
		if err != nil {
			continue
		}
		client.send <- data
	}

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("Occupancy feed connection established")
}
