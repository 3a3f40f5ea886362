// README: Shared handler helpers for JSON errors and request parsing.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"navette/internal/modules/availability"
	"navette/internal/modules/directory"
	"navette/internal/modules/mission"
	"navette/internal/types"
)

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// writeServiceError maps module sentinel errors onto HTTP statuses. Booking
// conflicts carry a retryable hint so clients know to re-run the
// recommendation instead of re-submitting the same booking.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidRequest), errors.Is(err, mission.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, mission.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, mission.ErrConflictAtCommit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// tripRequest is the inbound trip request shared by the recommendation and
// availability endpoints.
type tripRequest struct {
	DepartureLocation   string  `json:"departure_location" binding:"required"`
	DestinationLocation string  `json:"destination_location"`
	DepartureTimestamp  string  `json:"departure_timestamp" binding:"required"`
	ArrivalTimestamp    *string `json:"arrival_timestamp"`
	PassengerCount      int     `json:"passenger_count" binding:"required,min=1"`
	CompanyID           *string `json:"company_id"`
	VehicleType         *string `json:"vehicle_type"`
}

func (r tripRequest) toRequest() (availability.Request, error) {
	departAt, err := time.Parse(time.RFC3339, r.DepartureTimestamp)
	if err != nil {
		return availability.Request{}, err
	}
	req := availability.Request{
		Departure:   r.DepartureLocation,
		Destination: r.DestinationLocation,
		Passengers:  r.PassengerCount,
		DepartAt:    departAt,
	}
	if r.ArrivalTimestamp != nil {
		arriveAt, err := time.Parse(time.RFC3339, *r.ArrivalTimestamp)
		if err != nil {
			return availability.Request{}, err
		}
		req.ArriveAt = &arriveAt
	}
	if r.CompanyID != nil {
		id := types.ID(*r.CompanyID)
		req.CompanyID = &id
	}
	if r.VehicleType != nil {
		t := directory.VehicleType(*r.VehicleType)
		if !directory.ValidVehicleType(t) {
			return availability.Request{}, availability.ErrInvalidRequest
		}
		req.VehicleType = &t
	}
	return req, nil
}

type vehicleDTO struct {
	ID       string  `json:"id"`
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Capacity int     `json:"capacity"`
	Type     string  `json:"vehicle_type"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

type driverDTO struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Rating *float64 `json:"rating,omitempty"`
}

func toVehicleDTOs(vehicles []directory.Vehicle) []vehicleDTO {
	out := make([]vehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, vehicleDTO{
			ID:       string(v.ID),
			Brand:    v.Brand,
			Model:    v.Model,
			Capacity: v.Capacity,
			Type:     string(v.Type),
			PhotoURL: v.PhotoURL,
		})
	}
	return out
}

func toDriverDTOs(drivers []directory.Driver) []driverDTO {
	out := make([]driverDTO, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, driverDTO{
			ID:     string(d.ID),
			Name:   d.Name,
			Rating: d.Rating,
		})
	}
	return out
}
