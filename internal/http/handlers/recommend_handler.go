// README: Recommendation endpoint.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"navette/internal/modules/availability"
	"navette/internal/modules/recommend"
)

// Recommender is the recommendation engine's entry point as seen by HTTP.
type Recommender interface {
	Recommend(ctx context.Context, req availability.Request) ([]recommend.Recommendation, error)
}

type RecommendHandler struct {
	engine Recommender
}

func NewRecommendHandler(engine Recommender) *RecommendHandler {
	return &RecommendHandler{engine: engine}
}

type recommendationDTO struct {
	FleetID                  string       `json:"fleet_id"`
	FleetName                string       `json:"fleet_name"`
	CompanyName              string       `json:"company_name"`
	Vehicles                 []vehicleDTO `json:"vehicles"`
	Drivers                  []driverDTO  `json:"drivers"`
	DistanceKm               float64      `json:"distance_km"`
	EstimatedDurationMinutes int          `json:"estimated_duration_minutes"`
	EstimatedPrice           int64        `json:"estimated_price"`
	Currency                 string       `json:"currency"`
	Incomplete               bool         `json:"incomplete,omitempty"`
}

func (h *RecommendHandler) Recommend(c *gin.Context) {
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

	recs, err := h.engine.Recommend(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	out := make([]recommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, recommendationDTO{
			FleetID:                  string(r.FleetID),
			FleetName:                r.FleetName,
			CompanyName:              r.CompanyName,
			Vehicles:                 toVehicleDTOs(r.Vehicles),
			Drivers:                  toDriverDTOs(r.Drivers),
			DistanceKm:               r.DistanceKm,
			EstimatedDurationMinutes: r.DurationMinutes,
			EstimatedPrice:           r.Price.Amount,
			Currency:                 r.Price.Currency,
			Incomplete:               r.Incomplete,
		})
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": out})
}
