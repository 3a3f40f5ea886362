// README: Booking endpoint creating missions with commit-time re-validation.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"navette/internal/modules/mission"
	"navette/internal/types"
)

// Booker is the mission service's booking surface as seen by HTTP.
type Booker interface {
	Book(ctx context.Context, cmd mission.BookCommand) (*mission.Mission, error)
	Cancel(ctx context.Context, id types.ID) error
}

type MissionHandler struct {
	missions Booker
}

func NewMissionHandler(missions Booker) *MissionHandler {
	return &MissionHandler{missions: missions}
}

type bookRequest struct {
	DriverID           *string `json:"driver_id"`
	VehicleID          *string `json:"vehicle_id"`
	DepartureLocation  string  `json:"departure_location" binding:"required"`
	ArrivalLocation    string  `json:"arrival_location"`
	DepartureTimestamp string  `json:"departure_timestamp" binding:"required"`
	ArrivalTimestamp   *string `json:"arrival_timestamp"`
	PassengerCount     int     `json:"passenger_count" binding:"required,min=1"`
	PriceAmount        int64   `json:"price_amount"`
	PriceCurrency      string  `json:"price_currency"`
}

func (h *MissionHandler) Book(c *gin.Context) {
	var body bookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	startAt, err := time.Parse(time.RFC3339, body.DepartureTimestamp)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid departure timestamp")
		return
	}
	cmd := mission.BookCommand{
		StartAt:    startAt,
		From:       body.DepartureLocation,
		To:         body.ArrivalLocation,
		Passengers: body.PassengerCount,
		Price:      types.Money{Amount: body.PriceAmount, Currency: body.PriceCurrency},
	}
	if body.ArrivalTimestamp != nil {
		endAt, err := time.Parse(time.RFC3339, *body.ArrivalTimestamp)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid arrival timestamp")
			return
		}
		cmd.EndAt = &endAt
	}
	if body.DriverID != nil {
		id := types.ID(*body.DriverID)
		cmd.DriverID = &id
	}
	if body.VehicleID != nil {
		id := types.ID(*body.VehicleID)
		cmd.VehicleID = &id
	}

	m, err := h.missions.Book(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mission_id": m.ID, "status": m.Status})
}

func (h *MissionHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing mission id")
		return
	}
	if err := h.missions.Cancel(c.Request.Context(), types.ID(id)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mission_id": id, "status": mission.StatusCancelled})
}
