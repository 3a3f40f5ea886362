// README: Mission service implements booking with commit-time re-validation.
package mission

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"navette/internal/types"
)

var (
	ErrNotFound = errors.New("mission not found")
	// ErrConflictAtCommit means the chosen resource gained an overlapping
	// mission between recommendation and booking. Retryable: the caller
	// should re-run the recommendation, not re-submit the same booking.
	ErrConflictAtCommit = errors.New("resource no longer free")
	ErrBadRequest       = errors.New("bad booking request")
)

// Booker is the transactional write surface the service needs from its store.
type Booker interface {
	CreateBooked(ctx context.Context, m *Mission) error
	Cancel(ctx context.Context, id types.ID) error
	AppendEvent(ctx context.Context, e *Event) error
	MarkCompletedDue(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	store Booker
	log   *zap.Logger
}

func NewService(store Booker, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

type BookCommand struct {
	DriverID   *types.ID
	VehicleID  *types.ID
	StartAt    time.Time
	EndAt      *time.Time
	From       string
	To         string
	Passengers int
	Price      types.Money
}

// Book creates a mission for the chosen driver/vehicle pair. The conflict
// check runs inside the store transaction so a recommendation gone stale
// surfaces as ErrConflictAtCommit instead of a silent double-booking. The
// driver may be nil: companies sometimes confirm the vehicle first and assign
// a driver manually later.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*Mission, error) {
	if cmd.VehicleID == nil && cmd.DriverID == nil {
		return nil, ErrBadRequest
	}
	if cmd.Passengers < 1 || cmd.From == "" || cmd.StartAt.IsZero() {
		return nil, ErrBadRequest
	}
	if cmd.EndAt != nil && cmd.EndAt.Before(cmd.StartAt) {
		return nil, ErrBadRequest
	}

	now := time.Now()
	m := &Mission{
		ID:         types.NewID(),
		DriverID:   cmd.DriverID,
		VehicleID:  cmd.VehicleID,
		StartAt:    cmd.StartAt,
		EndAt:      cmd.EndAt,
		Status:     StatusInProgress,
		From:       cmd.From,
		To:         cmd.To,
		Passengers: cmd.Passengers,
		Price:      cmd.Price,
		CreatedAt:  now,
	}
	if err := s.store.CreateBooked(ctx, m); err != nil {
		return nil, err
	}
	if err := s.store.AppendEvent(ctx, &Event{
		MissionID: m.ID,
		ToStatus:  StatusInProgress,
		ActorType: "booking",
		CreatedAt: now,
	}); err != nil {
		s.log.Warn("mission event append failed", zap.String("mission_id", string(m.ID)), zap.Error(err))
	}
	return m, nil
}

// Cancel cancels an in-progress mission, releasing its window so the driver
// and vehicle become bookable again.
func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	if err := s.store.Cancel(ctx, id); err != nil {
		return err
	}
	if err := s.store.AppendEvent(ctx, &Event{
		MissionID: id,
		ToStatus:  StatusCancelled,
		ActorType: "company",
		CreatedAt: time.Now(),
	}); err != nil {
		s.log.Warn("mission event append failed", zap.String("mission_id", string(id)), zap.Error(err))
	}
	return nil
}

// RunCompletionTicker periodically completes missions whose arrival time has
// elapsed, so their resources show up as bookable again without manual
// intervention.
func (s *Service) RunCompletionTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.MarkCompletedDue(ctx, time.Now())
			if err != nil {
				s.log.Warn("mission completion sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("missions completed", zap.Int64("count", n))
			}
		}
	}
}
