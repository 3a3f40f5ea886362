package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navette/internal/modules/mission"
	"navette/internal/types"
)

type fakeBooker struct {
	booked *mission.Mission
	err    error
}

func (f *fakeBooker) Book(context.Context, mission.BookCommand) (*mission.Mission, error) {
	return f.booked, f.err
}

func (f *fakeBooker) Cancel(context.Context, types.ID) error {
	return f.err
}

func newMissionRouter(b Booker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMissionHandler(b)
	r.POST("/api/missions", h.Book)
	r.POST("/api/missions/:id/cancel", h.Cancel)
	return r
}

const bookBody = `{
	"vehicle_id": "veh-1",
	"driver_id": "drv-1",
	"departure_location": "Paris",
	"arrival_location": "Lyon",
	"departure_timestamp": "2026-05-10T09:00:00Z",
	"arrival_timestamp": "2026-05-10T18:00:00Z",
	"passenger_count": 25,
	"price_amount": 72250,
	"price_currency": "EUR"
}`

func TestMissionHandler_Book(t *testing.T) {
	booker := &fakeBooker{booked: &mission.Mission{ID: "mi-1", Status: mission.StatusInProgress}}
	router := newMissionRouter(booker)

	w := postJSON(t, router, "/api/missions", bookBody)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"mission_id":"mi-1"`)
}

func TestMissionHandler_ConflictAtCommitIsRetryable(t *testing.T) {
	router := newMissionRouter(&fakeBooker{err: mission.ErrConflictAtCommit})

	w := postJSON(t, router, "/api/missions", bookBody)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
}

func TestMissionHandler_Cancel(t *testing.T) {
	router := newMissionRouter(&fakeBooker{})

	w := postJSON(t, router, "/api/missions/mi-1/cancel", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestMissionHandler_CancelUnknown(t *testing.T) {
	router := newMissionRouter(&fakeBooker{err: mission.ErrNotFound})

	w := postJSON(t, router, "/api/missions/mi-missing/cancel", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissionHandler_BadRequest(t *testing.T) {
	router := newMissionRouter(&fakeBooker{err: mission.ErrBadRequest})

	w := postJSON(t, router, "/api/missions", bookBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
