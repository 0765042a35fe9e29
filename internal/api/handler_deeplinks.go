package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reservpark/internal/deeplink"
)

type deepLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

// PostDeepLink handles POST /api/deeplinks. The link is queued and handled
// asynchronously, in arrival order.
func (h *Handler) PostDeepLink(c *gin.Context) {
	var req deepLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.links.Deliver(req.URL); err != nil {
		if errors.Is(err, deeplink.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}
