// README: Mission store backed by PostgreSQL with transactional booking.
package mission

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"navette/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const missionColumns = `
	id, driver_id, vehicle_id, start_at, end_at, status,
	from_location, to_location, passengers, price_amount, price_currency, created_at`

// ListActiveForDriver returns the driver's non-cancelled missions. Completed
// missions are included: the conflict checker needs the full committed
// history, and completed windows are in the past anyway.
func (s *Store) ListActiveForDriver(ctx context.Context, driverID types.ID) ([]Mission, error) {
	return s.list(ctx, `
		SELECT `+missionColumns+`
		FROM missions
		WHERE driver_id = $1 AND status <> 'cancelled'
		ORDER BY start_at`, string(driverID))
}

// ListActiveForVehicle returns the vehicle's non-cancelled missions.
func (s *Store) ListActiveForVehicle(ctx context.Context, vehicleID types.ID) ([]Mission, error) {
	return s.list(ctx, `
		SELECT `+missionColumns+`
		FROM missions
		WHERE vehicle_id = $1 AND status <> 'cancelled'
		ORDER BY start_at`, string(vehicleID))
}

// CreateBooked inserts a mission after re-validating, inside one transaction,
// that neither the driver nor the vehicle has gained a conflicting mission
// since the recommendation snapshot was taken. A transaction-scoped advisory
// lock per resource serializes concurrent bookings: row locks alone cannot
// guard against a concurrent INSERT (a phantom under READ COMMITTED), so the
// lock is taken before the overlap check and held until commit. The loser of
// two racing bookings re-checks after the winner's commit and gets
// ErrConflictAtCommit.
func (s *Store) CreateBooked(ctx context.Context, m *Mission) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start, end := m.Window()
	if m.DriverID != nil {
		if err := checkResourceFree(ctx, tx, "driver_id", *m.DriverID, start, end); err != nil {
			return err
		}
	}
	if m.VehicleID != nil {
		if err := checkResourceFree(ctx, tx, "vehicle_id", *m.VehicleID, start, end); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO missions (
			id, driver_id, vehicle_id, start_at, end_at, status,
			from_location, to_location, passengers, price_amount, price_currency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		string(m.ID),
		idParam(m.DriverID),
		idParam(m.VehicleID),
		m.StartAt,
		m.EndAt,
		string(m.Status),
		m.From,
		m.To,
		m.Passengers,
		m.Price.Amount,
		m.Price.Currency,
		m.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func checkResourceFree(ctx context.Context, tx pgx.Tx, column string, id types.ID, start, end time.Time) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingLockKey(column, id)); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `
		SELECT start_at, end_at
		FROM missions
		WHERE `+column+` = $1 AND status <> 'cancelled'`, string(id))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ms time.Time
		var me sql.NullTime
		if err := rows.Scan(&ms, &me); err != nil {
			return err
		}
		existing := Mission{StartAt: ms, Status: StatusInProgress}
		if me.Valid {
			existing.EndAt = &me.Time
		}
		es, ee := existing.Window()
		if Overlaps(start, end, es, ee) {
			return ErrConflictAtCommit
		}
	}
	return rows.Err()
}

// bookingLockKey derives the advisory lock key serializing bookings of one
// resource. Keys are column-scoped so a driver and a vehicle that happen to
// share an ID value never contend on the same lock.
func bookingLockKey(column string, id types.ID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(column + ":" + string(id)))
	return int64(h.Sum64())
}

// MarkCompletedDue flips in-progress missions whose arrival time has elapsed
// to completed, returning how many rows changed.
func (s *Store) MarkCompletedDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE missions
		SET status = 'completed'
		WHERE status = 'in_progress' AND end_at IS NOT NULL AND end_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Cancel marks a mission cancelled, releasing its window for future bookings.
func (s *Store) Cancel(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE missions
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'in_progress'`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO mission_events (mission_id, to_status, actor_type, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(e.MissionID), string(e.ToStatus), e.ActorType, e.CreatedAt)
	return err
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Mission, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMission(rows pgx.Rows) (Mission, error) {
	var m Mission
	var driverID, vehicleID sql.NullString
	var endAt sql.NullTime
	err := rows.Scan(
		&m.ID, &driverID, &vehicleID, &m.StartAt, &endAt, &m.Status,
		&m.From, &m.To, &m.Passengers, &m.Price.Amount, &m.Price.Currency, &m.CreatedAt,
	)
	if err != nil {
		return Mission{}, err
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		m.DriverID = &d
	}
	if vehicleID.Valid {
		v := types.ID(vehicleID.String)
		m.VehicleID = &v
	}
	if endAt.Valid {
		m.EndAt = &endAt.Time
	}
	return m, nil
}

func idParam(id *types.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
