// README: Mission aggregate and status definitions.
package mission

import (
	"time"

	"navette/internal/types"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Mission struct {
	ID         types.ID
	DriverID   *types.ID
	VehicleID  *types.ID
	StartAt    time.Time
	EndAt      *time.Time // nil for open-ended commitments
	Status     Status
	From       string
	To         string
	Passengers int
	Price      types.Money
	CreatedAt  time.Time
}

// Window returns the time interval the mission occupies for conflict
// purposes. An open-ended mission occupies just its start instant.
func (m Mission) Window() (time.Time, time.Time) {
	if m.EndAt == nil {
		return m.StartAt, m.StartAt
	}
	return m.StartAt, *m.EndAt
}

type Event struct {
	ID        int64
	MissionID types.ID
	ToStatus  Status
	ActorType string
	CreatedAt time.Time
}
