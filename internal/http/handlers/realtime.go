package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codezs3/edusight-ai-new-sub001/internal/platform/logger"
	"github.com/codezs3/edusight-ai-new-sub001/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/recommendations/stream?student_id=
// Without student_id the stream carries every student's recommendations.
func (h *RealtimeHandler) RecommendationStream(c *gin.Context) {
	channel := realtime.ChannelAll
	if id := strings.TrimSpace(c.Query("student_id")); id != "" {
		channel = realtime.StudentChannel(id)
	}
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, channel)
	defer h.hub.CloseClient(client)

	h.log.Info("recommendation stream open", "client_id", client.ID, "channel", channel)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.log.Info("recommendation stream closed", "client_id", client.ID)
}
