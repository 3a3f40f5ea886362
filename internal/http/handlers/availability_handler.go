// README: Availability endpoint for the manual mission-creation form.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"navette/internal/modules/availability"
)

// Resolver is the availability engine's entry point as seen by HTTP.
type Resolver interface {
	Resolve(ctx context.Context, req availability.Request) (availability.Result, error)
}

type AvailabilityHandler struct {
	engine Resolver
}

func NewAvailabilityHandler(engine Resolver) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

func (h *AvailabilityHandler) Resolve(c *gin.Context) {
	var body tripRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.engine.Resolve(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vehicles": toVehicleDTOs(res.Vehicles),
		"drivers":  toDriverDTOs(res.Drivers),
	})
}
