package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reservpark/internal/liveactivity"
	"reservpark/internal/parse"
)

// activityResponse is the client view of the current live activity.
type activityResponse struct {
	Active        bool       `json:"active"`
	ID            *string    `json:"id"`
	ReservationID *string    `json:"reservation_id"`
	Location      string     `json:"location"`
	EndTime       *time.Time `json:"end_time"`
	EndClock      string     `json:"end_clock,omitempty"`
	TimeRemaining string     `json:"time_remaining,omitempty"`
}

// GetActivity handles GET /api/activity.
func (h *Handler) GetActivity(c *gin.Context) {
	st := h.activities.State()
	resp := activityResponse{
		Active:        st.Active(),
		ID:            st.ID,
		ReservationID: st.ReservationID,
		Location:      st.Location,
		EndTime:       st.EndTime,
	}
	if st.EndTime != nil {
		resp.EndClock = parse.Clock(*st.EndTime)
		resp.TimeRemaining = parse.Remaining(st.EndTime.Sub(h.now()))
	}
	c.JSON(http.StatusOK, resp)
}

// StartActivity handles POST /api/activity. A bridge failure is not an HTTP
// error: the reservation stands and the result explains why no countdown is shown.
func (h *Handler) StartActivity(c *gin.Context) {
	var req liveactivity.ReservationData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.activities.StartLiveActivity(c.Request.Context(), req)
	if err != nil {
		h.activityError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type extendRequest struct {
	Minutes int `json:"minutes" binding:"required"`
}

// ExtendActivity handles POST /api/activity/extend.
func (h *Handler) ExtendActivity(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end, err := h.activities.ExtendTime(c.Request.Context(), req.Minutes)
	if err != nil {
		h.activityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"end_time": end, "end_clock": parse.Clock(end)})
}

// EndActivity handles DELETE /api/activity. The client confirms with ?confirm=true.
func (h *Handler) EndActivity(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	confirm := liveactivity.ConfirmFunc(func(context.Context, string) bool { return confirmed })

	if err := h.activities.EndReservation(c.Request.Context(), confirm); err != nil {
		h.activityError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetActivityHistory handles GET /api/activity/history.
func (h *Handler) GetActivityHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.store.ListActivity(c.Request.Context(), c.Query("reservation_id"), limit)
	if err != nil {
		log.Printf("Error listing activity history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) activityError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, liveactivity.ErrInvalidReservation), errors.Is(err, liveactivity.ErrInvalidMinutes):
		status = http.StatusBadRequest
	case errors.Is(err, liveactivity.ErrNoActiveActivity):
		status = http.StatusConflict
	case errors.Is(err, liveactivity.ErrNotConfirmed):
		status = http.StatusPreconditionRequired
	case errors.Is(err, liveactivity.ErrBridgeFailure):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
